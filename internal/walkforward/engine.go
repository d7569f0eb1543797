package walkforward

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/prism/internal/core"
	"go.uber.org/zap"
)

// State is the engine run lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
	StateCompleted  State = "completed"
)

// Engine owns the lifecycle of a walk-forward study: schedule the
// folds, execute them strictly in order, then aggregate whatever
// completed. Fold processing is deliberately sequential; the
// optimizer/backtester collaborators are not assumed thread-safe
// across overlapping windows, and sequential results keep every
// anomaly attributable to exactly one fold.
type Engine struct {
	executor *Executor
	logger   *zap.Logger
	progress ProgressFunc

	mu            sync.Mutex
	state         State
	stopRequested atomic.Bool
}

// NewEngine creates a walk-forward engine.
func NewEngine(executor *Executor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		executor: executor,
		logger:   logger,
		state:    StateNotStarted,
	}
}

// OnProgress registers a callback invoked after every fold. Must be
// set before Run.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stop requests cooperative cancellation. The in-flight fold still
// runs to completion; the engine checks the flag between folds only.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// Run executes the full study and always returns a Summary once folds
// were scheduled, even when some or all folds failed or the run was
// stopped early. Configuration-level problems (no computable folds)
// abort before any fold executes. A second concurrent Run on the same
// instance returns core.ErrRunInProgress immediately.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Summary, error) {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, core.ErrRunInProgress
	}
	e.state = StateRunning
	e.stopRequested.Store(false)
	e.mu.Unlock()

	folds, warning, err := CalculateFolds(cfg.Start, cfg.End, cfg.TrainDays, cfg.TestDays, cfg.StepDays, cfg.MinFolds)
	if err != nil {
		e.setState(StateNotStarted)
		return nil, err
	}
	if warning != "" {
		e.logger.Warn(warning,
			zap.Int("folds", len(folds)),
			zap.Int("min_folds", cfg.MinFolds),
		)
		e.report(0, warning)
	}

	summary := &Summary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	e.logger.Info("walk-forward run started",
		zap.String("wf_id", summary.ID),
		zap.String("symbol", cfg.Symbol),
		zap.Int("folds", len(folds)),
		zap.Bool("reoptimize_each_fold", cfg.ReoptimizeEachFold),
	)

	stopped := false
	for _, period := range folds {
		if e.stopRequested.Load() || ctx.Err() != nil {
			stopped = true
			e.logger.Info("walk-forward run stopped between folds",
				zap.String("wf_id", summary.ID),
				zap.Int("completed", len(summary.Folds)),
			)
			break
		}

		foldStart := time.Now()
		result := e.executor.RunFold(ctx, period, cfg)
		result.DurationSeconds = time.Since(foldStart).Seconds()
		summary.Folds = append(summary.Folds, result)

		percent := (period.Index + 1) * 100 / len(folds)
		msg := fmt.Sprintf("fold %d/%d complete (test %s)", period.Index+1, len(folds), period.TestRange())
		if !result.IsSuccessful() {
			msg = fmt.Sprintf("fold %d/%d failed", period.Index+1, len(folds))
		}
		e.report(percent, msg)
	}

	summary.TotalFolds = len(folds)
	for _, r := range summary.Folds {
		if r.IsSuccessful() {
			summary.SuccessfulFolds++
		}
	}
	summary.Aggregated, summary.Stability = Summarize(summary.Folds)
	summary.FinishedAt = time.Now()

	finalState := StateCompleted
	if stopped {
		finalState = StateStopped
	}
	e.setState(finalState)

	e.logger.Info("walk-forward run finished",
		zap.String("wf_id", summary.ID),
		zap.String("state", string(finalState)),
		zap.Int("total_folds", summary.TotalFolds),
		zap.Int("successful_folds", summary.SuccessfulFolds),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) report(percent int, message string) {
	if e.progress != nil {
		e.progress(percent, message)
	}
}
