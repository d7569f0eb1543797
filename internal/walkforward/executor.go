package walkforward

import (
	"context"
	"fmt"

	"github.com/newthinker/prism/internal/core"
	"go.uber.org/zap"
)

// Executor runs a single fold: optimize on the train window, then
// validate the chosen parameters on the test window. Any failure in
// either phase is trapped at the fold boundary and recorded on the
// result, so one bad window never aborts the whole study.
type Executor struct {
	optimizer  Optimizer
	backtester Backtester
	logger     *zap.Logger
}

// NewExecutor creates a fold executor.
func NewExecutor(optimizer Optimizer, backtester Backtester, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		optimizer:  optimizer,
		backtester: backtester,
		logger:     logger,
	}
}

// RunFold executes one fold to completion or failure. It never returns
// an error: per-fold failures live in FoldResult.Err.
func (e *Executor) RunFold(ctx context.Context, period FoldPeriod, cfg RunConfig) FoldResult {
	result := FoldResult{Period: period}

	// Train phase: fit parameters on in-sample data only.
	if cfg.ReoptimizeEachFold {
		train := cfg.Data.Slice(period.TrainStart, period.TrainEnd)
		best, trainMetrics, runs, err := e.optimizer.Optimize(ctx, train, cfg.SearchSpace)
		result.OptimizationRuns = runs
		if err != nil {
			return e.failed(result, "optimization", err)
		}
		if len(best) == 0 {
			// Not fatal: the test phase still runs with defaults.
			e.logger.Warn("no successful optimization run, falling back to default parameters",
				zap.Int("fold", period.Index),
				zap.String("train", period.TrainRange()),
			)
		} else {
			result.BestParams = best
			result.TrainMetrics = &trainMetrics
		}
	} else {
		result.BestParams = cfg.FixedParams
	}

	// Test phase: bestParams are merged in as fixed values. Nothing is
	// fitted on out-of-sample data.
	test := cfg.Data.Slice(period.TestStart, period.TestEnd)
	params := cfg.BaseParams.Merge(result.BestParams)
	testMetrics, _, err := e.backtester.Run(ctx, test, params)
	if err != nil {
		return e.failed(result, "backtest", err)
	}
	result.TestMetrics = &testMetrics

	e.logger.Debug("fold complete",
		zap.Int("fold", period.Index),
		zap.String("test", period.TestRange()),
		zap.Float64("oos_return_pct", testMetrics.TotalReturnPct),
		zap.Int("oos_trades", testMetrics.TotalTrades),
	)
	return result
}

func (e *Executor) failed(result FoldResult, phase string, err error) FoldResult {
	msg := core.WrapError(core.ErrFoldFailed, fmt.Errorf("%s: %w", phase, err)).Error()
	result.Err = &msg
	result.TrainMetrics = nil
	result.TestMetrics = nil
	e.logger.Warn("fold failed",
		zap.Int("fold", result.Period.Index),
		zap.String("phase", phase),
		zap.Error(err),
	)
	return result
}
