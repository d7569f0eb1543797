package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/regime"
)

func snapshotDataset(n int) core.Dataset {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, n)
	for i := range candles {
		price := 100 + 5*math.Sin(float64(i)/7)
		candles[i] = core.Candle{
			Time:  base.AddDate(0, 0, i),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price,
		}
	}
	return core.Dataset{Symbol: "TEST", Candles: candles}
}

func TestSnapshot_ProducesAllIndicators(t *testing.T) {
	values, index, err := Snapshot(snapshotDataset(120), DefaultSnapshotConfig())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if _, ok := values["rsi_14"]["rsi"]; !ok {
		t.Error("missing rsi value")
	}
	if _, ok := values["atr_14"]["atr"]; !ok {
		t.Error("missing atr value")
	}
	if _, ok := values["atr_14"]["atr_percent"]; !ok {
		t.Error("missing atr_percent value")
	}
	if _, ok := values["sma_20_50"]["spread_percent"]; !ok {
		t.Error("missing sma spread")
	}
	for _, field := range []string{"adx", "di_plus", "di_minus", "di_diff"} {
		if _, ok := values["adx_14"][field]; !ok {
			t.Errorf("missing adx field %q", field)
		}
	}

	if index["rsi"] != "rsi_14" || index["atr"] != "atr_14" || index["adx"] != "adx_14" || index["sma"] != "sma_20_50" {
		t.Errorf("type index = %v", index)
	}
}

func TestSnapshot_ValueRanges(t *testing.T) {
	values, _, err := Snapshot(snapshotDataset(120), DefaultSnapshotConfig())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	rsi := values["rsi_14"]["rsi"]
	if rsi < 0 || rsi > 100 {
		t.Errorf("rsi = %f, out of range", rsi)
	}
	if values["atr_14"]["atr"] <= 0 {
		t.Errorf("atr = %f, expected positive on moving prices", values["atr_14"]["atr"])
	}
}

func TestSnapshot_InsufficientData(t *testing.T) {
	_, _, err := Snapshot(snapshotDataset(5), DefaultSnapshotConfig())
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestSnapshot_SMAOmittedWhenShort(t *testing.T) {
	// Enough bars for RSI/ATR but not for the slow SMA
	values, index, err := Snapshot(snapshotDataset(30), DefaultSnapshotConfig())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, ok := values["sma_20_50"]; ok {
		t.Error("sma snapshot should be omitted without enough bars")
	}
	if _, ok := index["sma"]; ok {
		t.Error("type index must not point at an absent indicator")
	}
}

// Every rule name in the default regime config must resolve against
// the value shape Snapshot produces; an unresolvable rule makes every
// classification fail fatally.
func TestSnapshot_ResolvesDefaultRegimeConfig(t *testing.T) {
	store := regime.NewConfigStore()
	if err := store.Load("../../configs/regimes.json"); err != nil {
		t.Fatalf("loading default regime config: %v", err)
	}

	values, index, err := Snapshot(snapshotDataset(120), DefaultSnapshotConfig())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if _, err := regime.Classify(values, index, store.Definitions(), ""); err != nil {
		t.Errorf("default config should classify cleanly, got %v", err)
	}
}
