package indicator

import "github.com/newthinker/prism/internal/core"

// RSI calculates the Relative Strength Index using Wilder smoothing.
// Returns slice of length: len(prices) - period
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) <= period {
		return []float64{}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	result := make([]float64, 0, len(prices)-period)
	result = append(result, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result = append(result, rsiValue(avgGain, avgLoss))
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR calculates the Average True Range with Wilder smoothing.
// Returns slice of length: len(candles) - period
func ATR(candles []core.Candle, period int) []float64 {
	if period <= 0 || len(candles) <= period {
		return []float64{}
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, trueRange(candles[i], candles[i-1].Close))
	}

	var atr float64
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	result := make([]float64, 0, len(trs)-period+1)
	result = append(result, atr)
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		result = append(result, atr)
	}

	return result
}

// ADX calculates the Average Directional Index together with its
// +DI/-DI components, all Wilder smoothed. The DI slices have length
// len(candles) - period; the ADX slice is period-1 values shorter
// while the DX average fills. Empty results below 2*period+1 candles.
func ADX(candles []core.Candle, period int) (adx, plusDI, minusDI []float64) {
	if period <= 0 || len(candles) <= 2*period {
		return nil, nil, nil
	}

	n := len(candles) - 1
	trs := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < len(candles); i++ {
		trs[i-1] = trueRange(candles[i], candles[i-1].Close)
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	var smTR, smPlus, smMinus float64
	for i := 0; i < period; i++ {
		smTR += trs[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := make([]float64, 0, n-period+1)
	plusDI = make([]float64, 0, n-period+1)
	minusDI = make([]float64, 0, n-period+1)

	record := func() {
		var p, m float64
		if smTR > 0 {
			p = 100 * smPlus / smTR
			m = 100 * smMinus / smTR
		}
		plusDI = append(plusDI, p)
		minusDI = append(minusDI, m)
		if sum := p + m; sum > 0 {
			dx = append(dx, 100*abs(p-m)/sum)
		} else {
			dx = append(dx, 0)
		}
	}
	record()
	for i := period; i < n; i++ {
		smTR = smTR - smTR/float64(period) + trs[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		record()
	}

	var avg float64
	for i := 0; i < period; i++ {
		avg += dx[i]
	}
	avg /= float64(period)

	adx = make([]float64, 0, len(dx)-period+1)
	adx = append(adx, avg)
	for i := period; i < len(dx); i++ {
		avg = (avg*float64(period-1) + dx[i]) / float64(period)
		adx = append(adx, avg)
	}

	return adx, plusDI, minusDI
}

func trueRange(c core.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if hc := abs(c.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := abs(c.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
