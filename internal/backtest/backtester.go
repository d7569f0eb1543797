package backtest

import (
	"context"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/strategy"
	"go.uber.org/zap"
)

// Backtester replays a strategy over historical candles with a fixed
// parameter set. It performs no fitting of its own, which is what
// makes it safe to point at out-of-sample windows.
type Backtester struct {
	factory strategy.Factory
	logger  *zap.Logger
}

// New creates a backtester for the given strategy factory.
func New(factory strategy.Factory, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{factory: factory, logger: logger}
}

// Run replays the strategy bar by bar and returns the resulting
// metrics and trades. Each run gets a fresh strategy instance so
// parameter sets never leak between windows.
func (b *Backtester) Run(ctx context.Context, data core.Dataset, params core.Params) (core.Metrics, []core.Trade, error) {
	if data.Len() == 0 {
		return core.Metrics{}, nil, core.ErrNoData
	}

	strat := b.factory()
	if err := strat.Configure(params); err != nil {
		return core.Metrics{}, nil, core.WrapError(core.ErrBacktestFailed, err)
	}

	windowSize := strat.Warmup()
	if windowSize <= 0 {
		windowSize = 1
	}

	var trades []core.Trade
	var open *core.Trade

	for i := 0; i < data.Len(); i++ {
		select {
		case <-ctx.Done():
			return core.Metrics{}, nil, ctx.Err()
		default:
		}

		windowStart := i - windowSize + 1
		if windowStart < 0 {
			windowStart = 0
		}
		bar := data.Candles[i]

		switch strat.Evaluate(data.Candles[windowStart : i+1]) {
		case core.ActionBuy:
			if open == nil {
				open = &core.Trade{
					Symbol:     data.Symbol,
					EntryTime:  bar.Time,
					EntryPrice: bar.Close,
				}
			}
		case core.ActionSell:
			if open != nil {
				open.ExitTime = bar.Time
				open.ExitPrice = bar.Close
				open.Return = (open.ExitPrice - open.EntryPrice) / open.EntryPrice
				open.Closed = true
				trades = append(trades, *open)
				open = nil
			}
		}
	}

	// Force-close any position left open at the end of the window at
	// the last available close.
	if open != nil {
		last := data.Candles[data.Len()-1]
		open.ExitTime = last.Time
		open.ExitPrice = last.Close
		open.Return = (open.ExitPrice - open.EntryPrice) / open.EntryPrice
		open.Closed = true
		trades = append(trades, *open)
	}

	metrics := CalculateMetrics(trades)
	b.logger.Debug("backtest complete",
		zap.String("symbol", data.Symbol),
		zap.String("strategy", strat.Name()),
		zap.Int("bars", data.Len()),
		zap.Int("trades", metrics.TotalTrades),
	)
	return metrics, trades, nil
}
