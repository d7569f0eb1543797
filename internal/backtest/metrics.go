package backtest

import (
	"math"

	"github.com/newthinker/prism/internal/core"
)

// CalculateMetrics computes performance statistics from closed trades.
// ProfitFactor is +Inf when there are winners but no losers; callers
// averaging across runs must account for that.
func CalculateMetrics(trades []core.Trade) core.Metrics {
	if len(trades) == 0 {
		return core.Metrics{}
	}

	var winning int
	var grossProfit, grossLoss, totalReturn float64
	var returns []float64

	for _, t := range trades {
		if !t.Closed {
			continue
		}
		returns = append(returns, t.Return)
		totalReturn += t.Return
		if t.IsWin() {
			winning++
			grossProfit += t.Return
		} else {
			grossLoss += -t.Return
		}
	}

	m := core.Metrics{
		TotalTrades:    len(returns),
		WinningTrades:  winning,
		TotalReturnPct: totalReturn * 100,
		MaxDrawdownPct: maxDrawdown(returns) * 100,
		SharpeRatio:    sharpeRatio(returns),
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(winning) / float64(m.TotalTrades)
		m.Expectancy = totalReturn / float64(m.TotalTrades) * 100
	}
	m.ProfitFactor = profitFactor(grossProfit, grossLoss)
	return m
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return grossProfit / grossLoss
}

// maxDrawdown finds the largest peak-to-trough decline on the
// compounded equity curve implied by the trade returns.
func maxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	var peak float64
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// sharpeRatio computes risk-adjusted return per trade, annualized
// assuming ~252 trading days and a zero risk-free rate.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return (mean * 252) / (stdDev * math.Sqrt(252))
}
