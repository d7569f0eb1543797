package indicator

import (
	"fmt"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/regime"
)

// SnapshotConfig controls which indicators a snapshot computes.
type SnapshotConfig struct {
	RSIPeriod int
	ATRPeriod int
	ADXPeriod int
	FastSMA   int
	SlowSMA   int
}

// DefaultSnapshotConfig returns the standard lookback periods.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		RSIPeriod: 14,
		ATRPeriod: 14,
		ADXPeriod: 14,
		FastSMA:   20,
		SlowSMA:   50,
	}
}

// Snapshot computes the latest indicator values for a dataset in the
// shape the regime classifier consumes, together with the type index
// for fallback resolution.
func Snapshot(data core.Dataset, cfg SnapshotConfig) (regime.IndicatorValues, regime.TypeIndex, error) {
	closes := make([]float64, data.Len())
	for i, c := range data.Candles {
		closes[i] = c.Close
	}

	values := make(regime.IndicatorValues)
	index := make(regime.TypeIndex)

	rsi := RSI(closes, cfg.RSIPeriod)
	if len(rsi) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("%d bars cannot fill a %d-period RSI", data.Len(), cfg.RSIPeriod))
	}
	rsiID := fmt.Sprintf("rsi_%d", cfg.RSIPeriod)
	values[rsiID] = map[string]float64{"rsi": rsi[len(rsi)-1]}
	index["rsi"] = rsiID

	atr := ATR(data.Candles, cfg.ATRPeriod)
	if len(atr) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("%d bars cannot fill a %d-period ATR", data.Len(), cfg.ATRPeriod))
	}
	lastATR := atr[len(atr)-1]
	lastClose := closes[len(closes)-1]
	atrID := fmt.Sprintf("atr_%d", cfg.ATRPeriod)
	values[atrID] = map[string]float64{
		"atr":         lastATR,
		"atr_percent": lastATR / lastClose * 100,
	}
	index["atr"] = atrID

	adx, plusDI, minusDI := ADX(data.Candles, cfg.ADXPeriod)
	if len(adx) == 0 {
		return nil, nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("%d bars cannot fill a %d-period ADX", data.Len(), cfg.ADXPeriod))
	}
	p := plusDI[len(plusDI)-1]
	m := minusDI[len(minusDI)-1]
	adxID := fmt.Sprintf("adx_%d", cfg.ADXPeriod)
	values[adxID] = map[string]float64{
		"adx":      adx[len(adx)-1],
		"di_plus":  p,
		"di_minus": m,
		"di_diff":  p - m,
	}
	index["adx"] = adxID

	// Trend context from the SMA pair; regimes key off the spread.
	fast := SMA(closes, cfg.FastSMA)
	slow := SMA(closes, cfg.SlowSMA)
	if len(fast) > 0 && len(slow) > 0 {
		f := fast[len(fast)-1]
		s := slow[len(slow)-1]
		smaID := fmt.Sprintf("sma_%d_%d", cfg.FastSMA, cfg.SlowSMA)
		values[smaID] = map[string]float64{
			"fast":           f,
			"slow":           s,
			"spread_percent": (f - s) / s * 100,
		}
		index["sma"] = smaID
	}

	return values, index, nil
}
