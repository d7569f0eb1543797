package optimizer

import (
	"context"
	"sort"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/walkforward"
	"go.uber.org/zap"
)

// Objective scores a candidate's train metrics; higher is better.
type Objective func(core.Metrics) float64

// TotalReturnObjective ranks candidates by net return.
func TotalReturnObjective(m core.Metrics) float64 {
	return m.TotalReturnPct
}

// ExpectancyObjective ranks candidates by per-trade expectancy.
func ExpectancyObjective(m core.Metrics) float64 {
	return m.Expectancy
}

// Grid exhaustively evaluates the cartesian product of a search space
// against in-sample data and returns the best-scoring parameter set.
// It satisfies the walkforward.Optimizer interface.
type Grid struct {
	backtester walkforward.Backtester
	objective  Objective
	logger     *zap.Logger
}

// NewGrid creates a grid-search optimizer. A nil objective defaults to
// net return.
func NewGrid(backtester walkforward.Backtester, objective Objective, logger *zap.Logger) *Grid {
	if objective == nil {
		objective = TotalReturnObjective
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grid{backtester: backtester, objective: objective, logger: logger}
}

// Optimize evaluates every candidate in the space on the train window.
// Candidates whose backtest fails are skipped, not fatal; when no
// candidate succeeds the result is an empty parameter set with a zero
// run count of successes, and the caller decides how to proceed.
func (g *Grid) Optimize(ctx context.Context, train core.Dataset, space walkforward.SearchSpace) (core.Params, core.Metrics, int, error) {
	candidates := expand(space)

	var best core.Params
	var bestMetrics core.Metrics
	bestScore := 0.0
	found := false
	runs := 0

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return nil, core.Metrics{}, runs, ctx.Err()
		}

		metrics, _, err := g.backtester.Run(ctx, train, candidate)
		runs++
		if err != nil {
			g.logger.Debug("candidate rejected",
				zap.Any("params", candidate),
				zap.Error(err),
			)
			continue
		}

		score := g.objective(metrics)
		if !found || score > bestScore {
			best = candidate
			bestMetrics = metrics
			bestScore = score
			found = true
		}
	}

	if !found {
		return core.Params{}, core.Metrics{}, runs, nil
	}

	g.logger.Debug("grid search complete",
		zap.Int("candidates", len(candidates)),
		zap.Any("best", best),
		zap.Float64("score", bestScore),
	)
	return best, bestMetrics, runs, nil
}

// expand enumerates the cartesian product of the search space in a
// deterministic order (parameter names sorted, values in declaration
// order) so repeated optimizations of the same window are repeatable.
func expand(space walkforward.SearchSpace) []core.Params {
	names := make([]string, 0, len(space))
	for name := range space {
		if len(space[name]) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	out := []core.Params{{}}
	for _, name := range names {
		grown := make([]core.Params, 0, len(out)*len(space[name]))
		for _, base := range out {
			for _, value := range space[name] {
				next := base.Merge(core.Params{name: value})
				grown = append(grown, next)
			}
		}
		out = grown
	}
	return out
}
