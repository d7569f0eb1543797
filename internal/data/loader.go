package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// validSymbol matches stock symbols like AAPL, MSFT, 600519.SH, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// ValidateSymbol checks if a symbol has valid format
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Loader reads candle files from a directory, one CSV per symbol.
// Expected columns: time,open,high,low,close,volume with an RFC 3339
// or YYYY-MM-DD timestamp.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads the candles for one symbol, sorted by time ascending.
func (l *Loader) Load(symbol string) (core.Dataset, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return core.Dataset{}, core.WrapError(core.ErrConfigInvalid, err)
	}

	f, err := os.Open(filepath.Join(l.dir, symbol+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Dataset{}, core.WrapError(core.ErrNoData,
				fmt.Errorf("no candle file for %s", symbol))
		}
		return core.Dataset{}, err
	}
	defer f.Close()

	candles, err := ParseCSV(f, symbol)
	if err != nil {
		return core.Dataset{}, err
	}
	return core.Dataset{Symbol: symbol, Candles: candles}, nil
}

// ParseCSV decodes candle rows from r. A header row is detected by a
// non-numeric first field and skipped.
func ParseCSV(r io.Reader, symbol string) ([]core.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var candles []core.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++

		if len(record) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", line, len(record))
		}
		if line == 1 && strings.EqualFold(record[0], "time") {
			continue
		}

		ts, err := parseTime(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var fields [4]float64
		for i := 0; i < 4; i++ {
			fields[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing %q: %w", line, record[i+1], err)
			}
		}
		volume, err := strconv.ParseInt(record[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing volume %q: %w", line, record[5], err)
		}

		candles = append(candles, core.Candle{
			Symbol: symbol,
			Time:   ts,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: volume,
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	return candles, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
