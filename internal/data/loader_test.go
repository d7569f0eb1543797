package data

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newthinker/prism/internal/core"
)

const sampleCSV = `time,open,high,low,close,volume
2024-01-03,102,106,101,105,1200
2024-01-01,100,101,99,100,1000
2024-01-02,100,103,100,102,1100
`

func TestParseCSV_SortsAndSkipsHeader(t *testing.T) {
	candles, err := ParseCSV(strings.NewReader(sampleCSV), "TEST")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("candles = %d, want 3", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Time.Before(candles[i-1].Time) {
			t.Fatal("candles must be sorted by time ascending")
		}
	}
	if candles[0].Close != 100 || candles[2].Close != 105 {
		t.Errorf("unexpected order: first close %f, last close %f",
			candles[0].Close, candles[2].Close)
	}
	if candles[0].Symbol != "TEST" {
		t.Errorf("symbol = %s", candles[0].Symbol)
	}
}

func TestParseCSV_RFC3339Timestamps(t *testing.T) {
	candles, err := ParseCSV(strings.NewReader(
		"2024-01-01T09:30:00Z,100,101,99,100,1000\n"), "TEST")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if candles[0].Time.Hour() != 9 {
		t.Errorf("hour = %d, want 9", candles[0].Time.Hour())
	}
}

func TestParseCSV_BadRow(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("2024-01-01,abc,1,1,1,1\n"), "TEST"); err == nil {
		t.Error("expected error for non-numeric price")
	}
	if _, err := ParseCSV(strings.NewReader("2024-01-01,1,1,1\n"), "TEST"); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := ParseCSV(strings.NewReader("notadate,1,1,1,1,1\n"), "TEST"); err == nil {
		t.Error("expected error for bad timestamp")
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewLoader(dir).Load("AAPL")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Symbol != "AAPL" || ds.Len() != 3 {
		t.Errorf("dataset = %s/%d, want AAPL/3", ds.Symbol, ds.Len())
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(t.TempDir()).Load("MSFT")
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestLoader_InvalidSymbol(t *testing.T) {
	_, err := NewLoader(t.TempDir()).Load("../etc/passwd")
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "600519.SH", "0700.HK"}
	for _, s := range valid {
		if err := ValidateSymbol(s); err != nil {
			t.Errorf("ValidateSymbol(%q) = %v", s, err)
		}
	}
	invalid := []string{"", "../x", "with space", strings.Repeat("A", 25)}
	for _, s := range invalid {
		if err := ValidateSymbol(s); err == nil {
			t.Errorf("ValidateSymbol(%q) should fail", s)
		}
	}
}
