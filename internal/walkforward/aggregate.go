package walkforward

import (
	"math"

	"github.com/newthinker/prism/internal/core"
)

// profitFactorCap stands in for +Inf profit factors in min/max keys so
// the aggregated map stays JSON-serializable.
const profitFactorCap = 1000.0

// Summarize pools the successful folds into aggregated and stability
// metric maps. Failed folds are skipped entirely. The stability map is
// non-nil but empty when fewer than two folds succeeded; variance over
// one sample means nothing and must not raise.
func Summarize(results []FoldResult) (aggregated, stability map[string]float64) {
	aggregated = make(map[string]float64)
	stability = make(map[string]float64)

	var ok []core.Metrics
	for _, r := range results {
		if r.IsSuccessful() {
			ok = append(ok, *r.TestMetrics)
		}
	}
	if len(ok) == 0 {
		return aggregated, stability
	}

	aggregate(aggregated, "expectancy", ok, func(m core.Metrics) float64 { return m.Expectancy })
	aggregate(aggregated, "win_rate", ok, func(m core.Metrics) float64 { return m.WinRate })
	aggregate(aggregated, "max_drawdown_pct", ok, func(m core.Metrics) float64 { return m.MaxDrawdownPct })
	aggregate(aggregated, "total_return_pct", ok, func(m core.Metrics) float64 { return m.TotalReturnPct })
	aggregate(aggregated, "sharpe_ratio", ok, func(m core.Metrics) float64 { return m.SharpeRatio })
	aggregate(aggregated, "total_trades", ok, func(m core.Metrics) float64 { return float64(m.TotalTrades) })
	aggregateProfitFactor(aggregated, ok)

	// Trade-count-weighted pool: small-sample folds must not be
	// overweighted the way an average of per-fold win rates would.
	var winners, trades int
	for _, m := range ok {
		winners += m.WinningTrades
		trades += m.TotalTrades
	}
	if trades > 0 {
		aggregated["combined_win_rate"] = float64(winners) / float64(trades)
	} else {
		aggregated["combined_win_rate"] = 0
	}

	if len(ok) < 2 {
		return aggregated, stability
	}

	dispersion(stability, "expectancy", values(ok, func(m core.Metrics) float64 { return m.Expectancy }))
	dispersion(stability, "profit_factor", finiteProfitFactors(ok))
	dispersion(stability, "total_return_pct", values(ok, func(m core.Metrics) float64 { return m.TotalReturnPct }))

	worst := math.Inf(1)
	profitable := 0
	for _, m := range ok {
		if m.TotalReturnPct < worst {
			worst = m.TotalReturnPct
		}
		if m.TotalReturnPct > 0 {
			profitable++
		}
	}
	stability["worst_fold_return_pct"] = worst
	stability["profitable_folds_ratio"] = float64(profitable) / float64(len(ok))

	return aggregated, stability
}

func values(ms []core.Metrics, f func(core.Metrics) float64) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = f(m)
	}
	return out
}

func aggregate(dst map[string]float64, name string, ms []core.Metrics, f func(core.Metrics) float64) {
	vs := values(ms, f)
	dst["avg_"+name] = mean(vs)
	dst["min_"+name] = minOf(vs)
	dst["max_"+name] = maxOf(vs)
}

// aggregateProfitFactor averages finite values only; a single +Inf fold
// (no losing trades) would otherwise dominate the mean. Min/max still
// see infinite folds through a capped sentinel.
func aggregateProfitFactor(dst map[string]float64, ms []core.Metrics) {
	var finite, capped []float64
	for _, m := range ms {
		if m.HasFiniteProfitFactor() {
			finite = append(finite, m.ProfitFactor)
			capped = append(capped, m.ProfitFactor)
		} else {
			capped = append(capped, profitFactorCap)
		}
	}
	if len(finite) > 0 {
		dst["avg_profit_factor"] = mean(finite)
	}
	dst["min_profit_factor"] = minOf(capped)
	dst["max_profit_factor"] = maxOf(capped)
}

// dispersion records sample stdev and the coefficient of variation for
// one metric. A zero mean makes CV undefined; +Inf is the conventional
// answer and serializes as the string the report layer chooses.
func dispersion(dst map[string]float64, name string, vs []float64) {
	if len(vs) < 2 {
		return
	}
	m := mean(vs)
	sd := stdev(vs, m)
	dst["std_"+name] = sd
	if m == 0 {
		dst["cv_"+name] = math.Inf(1)
	} else {
		dst["cv_"+name] = sd / math.Abs(m)
	}
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stdev(vs []float64, m float64) float64 {
	var variance float64
	for _, v := range vs {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(vs)-1))
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func finiteProfitFactors(ms []core.Metrics) []float64 {
	var out []float64
	for _, m := range ms {
		if m.HasFiniteProfitFactor() {
			out = append(out, m.ProfitFactor)
		}
	}
	return out
}
