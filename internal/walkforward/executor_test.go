package walkforward

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/newthinker/prism/internal/core"
)

type stubOptimizer struct {
	best    core.Params
	metrics core.Metrics
	runs    int
	err     error

	calls     int
	lastTrain core.Dataset
}

func (s *stubOptimizer) Optimize(_ context.Context, train core.Dataset, _ SearchSpace) (core.Params, core.Metrics, int, error) {
	s.calls++
	s.lastTrain = train
	return s.best, s.metrics, s.runs, s.err
}

type stubBacktester struct {
	metrics core.Metrics
	err     error

	calls      int
	lastTest   core.Dataset
	lastParams core.Params
}

func (s *stubBacktester) Run(_ context.Context, test core.Dataset, params core.Params) (core.Metrics, []core.Trade, error) {
	s.calls++
	s.lastTest = test
	s.lastParams = params
	return s.metrics, nil, s.err
}

func testDataset(days int) core.Dataset {
	ds := core.Dataset{Symbol: "BTCUSDT"}
	for i := 0; i < days; i++ {
		ds.Candles = append(ds.Candles, core.Candle{
			Symbol: "BTCUSDT",
			Close:  100 + float64(i),
			Time:   day(i),
		})
	}
	return ds
}

func foldPeriod() FoldPeriod {
	return FoldPeriod{Index: 0, TrainStart: day(0), TrainEnd: day(90), TestStart: day(90), TestEnd: day(120)}
}

func TestRunFold_TrainThenTest(t *testing.T) {
	opt := &stubOptimizer{
		best:    core.Params{"fast": 5},
		metrics: core.Metrics{TotalReturnPct: 12},
		runs:    24,
	}
	bt := &stubBacktester{metrics: core.Metrics{TotalReturnPct: 4, TotalTrades: 7}}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{
		Data:               testDataset(120),
		ReoptimizeEachFold: true,
		SearchSpace:        SearchSpace{"fast": {5, 10}},
	}
	result := exec.RunFold(context.Background(), foldPeriod(), cfg)

	if !result.IsSuccessful() {
		t.Fatalf("fold should succeed: %v", result.Err)
	}
	if result.OptimizationRuns != 24 {
		t.Errorf("OptimizationRuns = %d, want 24", result.OptimizationRuns)
	}
	if result.TrainMetrics == nil || result.TrainMetrics.TotalReturnPct != 12 {
		t.Error("train metrics not recorded")
	}
	if result.TestMetrics.TotalTrades != 7 {
		t.Error("test metrics not recorded")
	}

	// The optimizer sees only in-sample bars; the backtester only
	// out-of-sample bars.
	if opt.lastTrain.Len() != 90 {
		t.Errorf("optimizer saw %d bars, want 90", opt.lastTrain.Len())
	}
	if bt.lastTest.Len() != 30 {
		t.Errorf("backtester saw %d bars, want 30", bt.lastTest.Len())
	}
	if bt.lastParams["fast"] != 5 {
		t.Error("best params not forwarded to the test phase")
	}
}

func TestRunFold_FixedParamsSkipOptimizer(t *testing.T) {
	opt := &stubOptimizer{}
	bt := &stubBacktester{metrics: core.Metrics{TotalTrades: 1}}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{
		Data:               testDataset(120),
		ReoptimizeEachFold: false,
		FixedParams:        core.Params{"fast": 8, "slow": 21},
	}
	result := exec.RunFold(context.Background(), foldPeriod(), cfg)

	if opt.calls != 0 {
		t.Error("optimizer must not be called when ReoptimizeEachFold is false")
	}
	if !result.IsSuccessful() {
		t.Fatalf("fold should succeed: %v", result.Err)
	}
	if bt.lastParams["slow"] != 21 {
		t.Error("fixed params not forwarded")
	}
	if result.OptimizationRuns != 0 {
		t.Error("no optimization runs expected")
	}
}

func TestRunFold_BaseParamsMergedUnderBest(t *testing.T) {
	opt := &stubOptimizer{best: core.Params{"fast": 5}, runs: 3}
	bt := &stubBacktester{}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{
		Data:               testDataset(120),
		ReoptimizeEachFold: true,
		BaseParams:         core.Params{"fast": 10, "stop_loss": 0.02},
	}
	exec.RunFold(context.Background(), foldPeriod(), cfg)

	if bt.lastParams["fast"] != 5 {
		t.Error("optimized value must override the base value")
	}
	if bt.lastParams["stop_loss"] != 0.02 {
		t.Error("base params must be preserved")
	}
}

func TestRunFold_OptimizerErrorTrappedAtFoldBoundary(t *testing.T) {
	opt := &stubOptimizer{err: errors.New("search space empty")}
	bt := &stubBacktester{}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{Data: testDataset(120), ReoptimizeEachFold: true}
	result := exec.RunFold(context.Background(), foldPeriod(), cfg)

	if result.IsSuccessful() {
		t.Fatal("fold must be marked failed")
	}
	if result.Err == nil || !strings.Contains(*result.Err, "optimization") {
		t.Errorf("error should name the failing phase: %v", result.Err)
	}
	if bt.calls != 0 {
		t.Error("test phase must not run after a train-phase error")
	}
}

func TestRunFold_BacktesterErrorTrappedAtFoldBoundary(t *testing.T) {
	opt := &stubOptimizer{best: core.Params{"fast": 5}}
	bt := &stubBacktester{err: errors.New("missing candles")}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{Data: testDataset(120), ReoptimizeEachFold: true}
	result := exec.RunFold(context.Background(), foldPeriod(), cfg)

	if result.IsSuccessful() {
		t.Fatal("fold must be marked failed")
	}
	if result.TestMetrics != nil {
		t.Error("failed folds contribute no metrics")
	}
	if result.Err == nil || !strings.Contains(*result.Err, "backtest") {
		t.Errorf("error should name the failing phase: %v", result.Err)
	}
}

func TestRunFold_EmptyBestParamsIsNotFatal(t *testing.T) {
	// The optimizer found no successful run; the test phase still
	// executes with defaults.
	opt := &stubOptimizer{best: core.Params{}, runs: 0}
	bt := &stubBacktester{metrics: core.Metrics{TotalTrades: 2}}
	exec := NewExecutor(opt, bt, nil)

	cfg := RunConfig{
		Data:               testDataset(120),
		ReoptimizeEachFold: true,
		BaseParams:         core.Params{"fast": 10},
	}
	result := exec.RunFold(context.Background(), foldPeriod(), cfg)

	if !result.IsSuccessful() {
		t.Fatalf("fold should still succeed: %v", result.Err)
	}
	if bt.calls != 1 {
		t.Error("test phase must run with default parameters")
	}
	if bt.lastParams["fast"] != 10 {
		t.Error("defaults must survive an empty optimization result")
	}
	if result.TrainMetrics != nil {
		t.Error("no train metrics without a successful optimization run")
	}
}
