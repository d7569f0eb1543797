package core

import (
	"encoding/json"
	"math"
	"time"
)

// Candle represents a single OHLCV bar
type Candle struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Dataset is an ordered series of candles for one symbol
type Dataset struct {
	Symbol  string
	Candles []Candle
}

// Len returns the number of candles in the dataset
func (d Dataset) Len() int {
	return len(d.Candles)
}

// Slice returns the candles in [start, end), preserving order.
// The returned dataset shares the underlying array.
func (d Dataset) Slice(start, end time.Time) Dataset {
	lo := len(d.Candles)
	for i, c := range d.Candles {
		if !c.Time.Before(start) {
			lo = i
			break
		}
	}
	hi := lo
	for hi < len(d.Candles) && d.Candles[hi].Time.Before(end) {
		hi++
	}
	return Dataset{Symbol: d.Symbol, Candles: d.Candles[lo:hi]}
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Trade represents a simulated trade from entry to exit
type Trade struct {
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Return     float64 // Fractional return, 0.05 = +5%
	Closed     bool
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// Metrics holds performance statistics for one backtest run.
// ProfitFactor may be +Inf when there are no losing trades.
type Metrics struct {
	Expectancy     float64 `json:"expectancy"`
	ProfitFactor   float64 `json:"profit_factor"`
	WinRate        float64 `json:"win_rate"` // Fraction 0..1
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
}

// HasFiniteProfitFactor reports whether the profit factor can participate
// in averaging without dominating the mean.
func (m Metrics) HasFiniteProfitFactor() bool {
	return !math.IsInf(m.ProfitFactor, 0) && !math.IsNaN(m.ProfitFactor)
}

// MarshalJSON emits null for a non-finite profit factor since JSON has
// no encoding for infinity.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	aux := struct {
		alias
		ProfitFactor any `json:"profit_factor"`
	}{alias: alias(m), ProfitFactor: m.ProfitFactor}
	if !m.HasFiniteProfitFactor() {
		aux.ProfitFactor = nil
	}
	return json.Marshal(aux)
}

// Params is a strategy parameter set
type Params map[string]any

// Merge returns a copy of p with overrides applied on top
func (p Params) Merge(overrides Params) Params {
	merged := make(Params, len(p)+len(overrides))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
