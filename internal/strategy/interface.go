package strategy

import (
	"github.com/newthinker/prism/internal/core"
)

// Strategy is a parameterized trading rule evaluated bar by bar over a
// rolling window of candles.
type Strategy interface {
	Name() string
	Description() string

	// Warmup is the number of bars the strategy needs before it can
	// emit a meaningful signal.
	Warmup() int

	// Configure applies a parameter set. Unknown keys are ignored so
	// one search space can drive several strategies.
	Configure(params core.Params) error

	// Evaluate inspects the window (oldest first, current bar last) and
	// returns the action for the current bar.
	Evaluate(window []core.Candle) core.Action
}

// Factory builds a fresh, unconfigured strategy instance. Backtests
// and optimization candidates each get their own instance so parameter
// sets never bleed between runs.
type Factory func() Strategy
