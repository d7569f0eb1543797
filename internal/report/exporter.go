package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/storage/archive"
	"github.com/newthinker/prism/internal/walkforward"
	"go.uber.org/zap"
)

// Exporter writes run artifacts to archive storage: a summary JSON, a
// per-fold CSV for spreadsheet review, and one detail JSON per fold.
type Exporter struct {
	store  archive.Storage
	logger *zap.Logger
}

// NewExporter creates an exporter backed by the given store.
func NewExporter(store archive.Storage, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{store: store, logger: logger}
}

type summaryReport struct {
	WfID            string         `json:"wf_id"`
	TotalFolds      int            `json:"total_folds"`
	SuccessfulFolds int            `json:"successful_folds"`
	SuccessRate     float64        `json:"success_rate"`
	Aggregated      map[string]any `json:"aggregated_metrics"`
	Stability       map[string]any `json:"stability_metrics"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationSeconds float64        `json:"duration_seconds"`
}

type foldReport struct {
	Fold             int            `json:"fold"`
	TrainPeriod      string         `json:"train_period"`
	TestPeriod       string         `json:"test_period"`
	BestParams       core.Params    `json:"best_params,omitempty"`
	TrainMetrics     map[string]any `json:"train_metrics,omitempty"`
	TestMetrics      map[string]any `json:"test_metrics,omitempty"`
	OptimizationRuns int            `json:"optimization_runs"`
	Error            *string        `json:"error,omitempty"`
}

// Export writes all artifacts for one run and returns the relative
// paths written, summary first.
func (e *Exporter) Export(ctx context.Context, s *walkforward.Summary) ([]string, error) {
	var written []string

	summaryPath := s.ID + "_summary.json"
	data, err := json.MarshalIndent(summaryReport{
		WfID:            s.ID,
		TotalFolds:      s.TotalFolds,
		SuccessfulFolds: s.SuccessfulFolds,
		SuccessRate:     s.SuccessRate(),
		Aggregated:      sanitizeMap(s.Aggregated),
		Stability:       sanitizeMap(s.Stability),
		StartTime:       s.StartedAt,
		EndTime:         s.FinishedAt,
		DurationSeconds: s.FinishedAt.Sub(s.StartedAt).Seconds(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling summary: %w", err)
	}
	if err := e.store.Write(ctx, summaryPath, data); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	written = append(written, summaryPath)

	csvPath := s.ID + "_folds.csv"
	csvData, err := foldsCSV(s.Folds)
	if err != nil {
		return nil, fmt.Errorf("building folds csv: %w", err)
	}
	if err := e.store.Write(ctx, csvPath, csvData); err != nil {
		return nil, fmt.Errorf("writing folds csv: %w", err)
	}
	written = append(written, csvPath)

	for i, fold := range s.Folds {
		foldPath := fmt.Sprintf("%s_folds/fold_%02d.json", s.ID, i+1)
		data, err := json.MarshalIndent(foldReport{
			Fold:             fold.Period.Index,
			TrainPeriod:      fold.Period.TrainRange(),
			TestPeriod:       fold.Period.TestRange(),
			BestParams:       fold.BestParams,
			TrainMetrics:     metricsMap(fold.TrainMetrics),
			TestMetrics:      metricsMap(fold.TestMetrics),
			OptimizationRuns: fold.OptimizationRuns,
			Error:            fold.Err,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling fold %d: %w", fold.Period.Index, err)
		}
		if err := e.store.Write(ctx, foldPath, data); err != nil {
			return nil, fmt.Errorf("writing fold %d: %w", fold.Period.Index, err)
		}
		written = append(written, foldPath)
	}

	e.logger.Info("run exported",
		zap.String("wf_id", s.ID),
		zap.Int("artifacts", len(written)),
	)
	return written, nil
}

func foldsCSV(folds []walkforward.FoldResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"fold", "train_period", "test_period",
		"oos_trades", "oos_win_rate", "oos_pf", "oos_expectancy",
		"oos_return_pct", "oos_max_dd", "opt_runs", "error",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, fold := range folds {
		row := []string{
			strconv.Itoa(fold.Period.Index),
			fold.Period.TrainRange(),
			fold.Period.TestRange(),
		}
		if m := fold.TestMetrics; m != nil {
			row = append(row,
				strconv.Itoa(m.TotalTrades),
				formatFloat(m.WinRate),
				formatFloat(m.ProfitFactor),
				formatFloat(m.Expectancy),
				formatFloat(m.TotalReturnPct),
				formatFloat(m.MaxDrawdownPct),
			)
		} else {
			row = append(row, "", "", "", "", "", "")
		}
		row = append(row, strconv.Itoa(fold.OptimizationRuns))
		if fold.Err != nil {
			row = append(row, *fold.Err)
		} else {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// sanitizeMap replaces non-finite values with null so the result is
// always valid JSON. CV on a zero mean and profit factors without
// losing trades both produce +Inf.
func sanitizeMap(in map[string]float64) map[string]any {
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

func metricsMap(m *core.Metrics) map[string]any {
	if m == nil {
		return nil
	}
	return sanitizeMap(map[string]float64{
		"expectancy":       m.Expectancy,
		"profit_factor":    m.ProfitFactor,
		"win_rate":         m.WinRate,
		"max_drawdown_pct": m.MaxDrawdownPct,
		"total_return_pct": m.TotalReturnPct,
		"sharpe_ratio":     m.SharpeRatio,
		"total_trades":     float64(m.TotalTrades),
		"winning_trades":   float64(m.WinningTrades),
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
