package walkforward

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// FoldPeriod is one train/test window pair. Immutable once computed.
// Invariants: TestStart == TrainEnd, and consecutive folds advance
// TrainStart by the configured step size.
type FoldPeriod struct {
	Index      int       `json:"index"`
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TestStart  time.Time `json:"test_start"`
	TestEnd    time.Time `json:"test_end"`
}

// TrainRange formats the in-sample window for reports.
func (p FoldPeriod) TrainRange() string {
	return fmt.Sprintf("%s/%s", p.TrainStart.Format("2006-01-02"), p.TrainEnd.Format("2006-01-02"))
}

// TestRange formats the out-of-sample window for reports.
func (p FoldPeriod) TestRange() string {
	return fmt.Sprintf("%s/%s", p.TestStart.Format("2006-01-02"), p.TestEnd.Format("2006-01-02"))
}

// FoldResult is the outcome of one fold. Created by the executor,
// immutable afterwards, read only by the aggregator. A non-nil Err
// marks the fold as failed; failed folds contribute nothing to
// aggregation but stay in the result list at their index.
type FoldResult struct {
	Period           FoldPeriod    `json:"period"`
	BestParams       core.Params   `json:"best_params,omitempty"`
	TrainMetrics     *core.Metrics `json:"train_metrics,omitempty"`
	TestMetrics      *core.Metrics `json:"test_metrics,omitempty"`
	OptimizationRuns int           `json:"optimization_runs"`
	DurationSeconds  float64       `json:"duration_seconds"`
	Err              *string       `json:"error,omitempty"`
}

// IsSuccessful reports whether the fold completed with out-of-sample
// metrics and no error.
func (r FoldResult) IsSuccessful() bool {
	return r.Err == nil && r.TestMetrics != nil
}

// Summary is the final product of a walk-forward run. Produced once,
// immutable, exported. Folds preserve execution order even when
// failures are interspersed with successes.
type Summary struct {
	ID              string             `json:"wf_id"`
	Folds           []FoldResult       `json:"folds"`
	TotalFolds      int                `json:"total_folds"`
	SuccessfulFolds int                `json:"successful_folds"`
	Aggregated      map[string]float64 `json:"aggregated_metrics"`
	Stability       map[string]float64 `json:"stability_metrics"`
	StartedAt       time.Time          `json:"start_time"`
	FinishedAt      time.Time          `json:"end_time"`
}

// SuccessRate returns the fraction of folds that completed.
func (s Summary) SuccessRate() float64 {
	if s.TotalFolds == 0 {
		return 0
	}
	return float64(s.SuccessfulFolds) / float64(s.TotalFolds)
}

// MarshalJSON emits null for non-finite metric values such as the CV
// on a zero mean, which JSON cannot represent.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal(struct {
		alias
		Aggregated map[string]any `json:"aggregated_metrics"`
		Stability  map[string]any `json:"stability_metrics"`
	}{alias(s), jsonSafe(s.Aggregated), jsonSafe(s.Stability)})
}

func jsonSafe(in map[string]float64) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

// SearchSpace lists the candidate values for each tunable parameter.
type SearchSpace map[string][]any

// RunConfig describes one walk-forward study.
type RunConfig struct {
	Symbol string
	Data   core.Dataset

	Start time.Time
	End   time.Time

	TrainDays int
	TestDays  int
	StepDays  int
	MinFolds  int

	// ReoptimizeEachFold controls the train phase: when false the
	// optimizer is never called and FixedParams are used for every fold.
	ReoptimizeEachFold bool
	FixedParams        core.Params
	BaseParams         core.Params
	SearchSpace        SearchSpace
}

// Optimizer fits parameters on in-sample data. The walk-forward core
// treats it as a black box.
type Optimizer interface {
	Optimize(ctx context.Context, train core.Dataset, space SearchSpace) (best core.Params, trainMetrics core.Metrics, runs int, err error)
}

// Backtester replays a fixed parameter set over out-of-sample data.
// No fitting happens behind this interface.
type Backtester interface {
	Run(ctx context.Context, test core.Dataset, params core.Params) (core.Metrics, []core.Trade, error)
}

// ProgressFunc receives progress updates between folds.
type ProgressFunc func(percent int, message string)
