package strategy

import (
	"fmt"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/indicator"
)

// MACrossover trades simple moving average crossovers: buy on the
// golden cross, sell on the death cross. The fast/slow periods are its
// tunable parameters.
type MACrossover struct {
	fastPeriod int
	slowPeriod int
}

// NewMACrossover creates the strategy with default periods.
func NewMACrossover() *MACrossover {
	return &MACrossover{fastPeriod: 10, slowPeriod: 30}
}

// MACrossoverFactory is the registry factory for the crossover strategy.
func MACrossoverFactory() Strategy {
	return NewMACrossover()
}

func (m *MACrossover) Name() string {
	return "ma_crossover"
}

func (m *MACrossover) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.fastPeriod, m.slowPeriod)
}

func (m *MACrossover) Warmup() int {
	return m.slowPeriod + 1
}

func (m *MACrossover) Configure(params core.Params) error {
	if v, ok := intParam(params, "fast"); ok {
		m.fastPeriod = v
	}
	if v, ok := intParam(params, "slow"); ok {
		m.slowPeriod = v
	}
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 {
		return fmt.Errorf("periods must be positive: fast=%d slow=%d", m.fastPeriod, m.slowPeriod)
	}
	if m.fastPeriod >= m.slowPeriod {
		return fmt.Errorf("fast period %d must be below slow period %d", m.fastPeriod, m.slowPeriod)
	}
	return nil
}

func (m *MACrossover) Evaluate(window []core.Candle) core.Action {
	if len(window) < m.slowPeriod+1 {
		return core.ActionHold
	}

	prices := make([]float64, len(window))
	for i, bar := range window {
		prices[i] = bar.Close
	}

	fastMA := indicator.SMA(prices, m.fastPeriod)
	slowMA := indicator.SMA(prices, m.slowPeriod)
	if len(fastMA) < 2 || len(slowMA) < 2 {
		return core.ActionHold
	}

	currFast := fastMA[len(fastMA)-1]
	prevFast := fastMA[len(fastMA)-2]
	currSlow := slowMA[len(slowMA)-1]
	prevSlow := slowMA[len(slowMA)-2]

	switch {
	case prevFast <= prevSlow && currFast > currSlow:
		return core.ActionBuy
	case prevFast >= prevSlow && currFast < currSlow:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}

// intParam reads an int parameter that may arrive as int or float64
// depending on whether it came from code or JSON.
func intParam(params core.Params, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
