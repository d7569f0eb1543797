package app

import (
	"context"
	"fmt"
	"time"

	handler "github.com/newthinker/prism/internal/api/handler/api"
	"github.com/newthinker/prism/internal/backtest"
	"github.com/newthinker/prism/internal/config"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/data"
	"github.com/newthinker/prism/internal/indicator"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/newthinker/prism/internal/optimizer"
	"github.com/newthinker/prism/internal/regime"
	"github.com/newthinker/prism/internal/report"
	"github.com/newthinker/prism/internal/storage/archive"
	"github.com/newthinker/prism/internal/strategy"
	"github.com/newthinker/prism/internal/walkforward"
	"go.uber.org/zap"
)

// App wires configuration, data access, the strategy registry and the
// walk-forward machinery together. One App serves any number of runs;
// each run gets its own engine so concurrent jobs never share state.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	loader     *data.Loader
	strategies *strategy.Registry
	regimes    *regime.ConfigStore
	metrics    *metrics.Registry
	exporter   *report.Exporter
}

// New creates an App from validated configuration. The regime config
// file is loaded eagerly so startup fails fast on a bad file.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := archive.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating archive storage: %w", err)
	}

	regimes := regime.NewConfigStore()
	if err := regimes.Load(cfg.Regime.ConfigPath); err != nil {
		return nil, fmt.Errorf("loading regime config: %w", err)
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.MACrossoverFactory)

	return &App{
		cfg:        cfg,
		logger:     logger,
		loader:     data.NewLoader(cfg.Data.Dir),
		strategies: registry,
		regimes:    regimes,
		metrics:    metrics.NewRegistry(),
		exporter:   report.NewExporter(store, logger),
	}, nil
}

// Strategies exposes the strategy registry.
func (a *App) Strategies() *strategy.Registry { return a.strategies }

// Regimes exposes the regime config store.
func (a *App) Regimes() *regime.ConfigStore { return a.regimes }

// Metrics exposes the Prometheus registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// RunWalkForward executes one walk-forward study end to end: load the
// candles, run the folds, export the artifacts. Request fields left at
// zero fall back to configured defaults.
func (a *App) RunWalkForward(ctx context.Context, req handler.RunParams, progress walkforward.ProgressFunc) (*walkforward.Summary, error) {
	factory, ok := a.strategies.Get(req.Strategy)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown strategy %q", req.Strategy))
	}

	dataset, err := a.loader.Load(req.Symbol)
	if err != nil {
		return nil, err
	}
	dataset = dataset.Slice(req.Start, req.End)

	wf := a.cfg.WalkForward
	runCfg := walkforward.RunConfig{
		Symbol:    req.Symbol,
		Data:      dataset,
		Start:     req.Start,
		End:       req.End,
		TrainDays: orDefault(req.TrainDays, wf.TrainDays),
		TestDays:  orDefault(req.TestDays, wf.TestDays),
		StepDays:  orDefault(req.StepDays, wf.StepDays),
		MinFolds:  orDefault(req.MinFolds, wf.MinFolds),

		ReoptimizeEachFold: wf.ReoptimizeEachFold,
		FixedParams:        req.Params,
		BaseParams:         req.Params,
		SearchSpace:        searchSpace(req.SearchSpace, wf.SearchSpace),
	}
	if req.ReoptimizeEachFold != nil {
		runCfg.ReoptimizeEachFold = *req.ReoptimizeEachFold
	}

	backtester := backtest.New(factory, a.logger)
	grid := optimizer.NewGrid(backtester, objective(firstNonEmpty(req.Objective, wf.Objective)), a.logger)
	engine := walkforward.NewEngine(walkforward.NewExecutor(grid, backtester, a.logger), a.logger)
	if progress != nil {
		engine.OnProgress(progress)
	}

	started := time.Now()
	summary, err := engine.Run(ctx, runCfg)
	if err != nil {
		a.metrics.RecordWalkForwardRun("failed", time.Since(started).Seconds())
		return nil, err
	}

	a.recordRunMetrics(summary, time.Since(started))

	if _, err := a.exporter.Export(ctx, summary); err != nil {
		// The run itself succeeded; a broken export should not throw
		// away the results.
		a.logger.Error("exporting run artifacts", zap.String("wf_id", summary.ID), zap.Error(err))
	}

	return summary, nil
}

// ClassifySnapshot computes indicators over the tail of a symbol's
// candles and classifies the current regime.
func (a *App) ClassifySnapshot(symbol string, snapCfg indicator.SnapshotConfig) (*regime.ActiveRegime, error) {
	dataset, err := a.loader.Load(symbol)
	if err != nil {
		return nil, err
	}

	values, types, err := indicator.Snapshot(dataset, snapCfg)
	if err != nil {
		return nil, err
	}

	active, err := regime.Classify(values, types, a.regimes.Definitions(), a.cfg.Regime.Scope)
	if err != nil {
		return nil, err
	}

	name := "none"
	if active != nil {
		name = active.ID
	}
	a.metrics.RecordClassification(name)
	return active, nil
}

func (a *App) recordRunMetrics(s *walkforward.Summary, elapsed time.Duration) {
	status := "completed"
	if s.SuccessfulFolds == 0 && s.TotalFolds > 0 {
		status = "all_folds_failed"
	}
	a.metrics.RecordWalkForwardRun(status, elapsed.Seconds())

	runs := 0
	for _, fold := range s.Folds {
		outcome := "success"
		if !fold.IsSuccessful() {
			outcome = "failed"
		}
		a.metrics.RecordFold(outcome, fold.DurationSeconds)
		runs += fold.OptimizationRuns
	}
	a.metrics.AddOptimizationRuns(runs)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func searchSpace(req walkforward.SearchSpace, def map[string][]any) walkforward.SearchSpace {
	if len(req) > 0 {
		return req
	}
	return walkforward.SearchSpace(def)
}

func objective(name string) optimizer.Objective {
	switch name {
	case "expectancy":
		return optimizer.ExpectancyObjective
	default:
		return optimizer.TotalReturnObjective
	}
}
