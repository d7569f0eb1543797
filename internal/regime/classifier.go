package regime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/prism/internal/core"
)

// IndicatorValues maps indicator id -> field name -> value, as produced
// by the indicator engine. Read-only input to the classifier.
type IndicatorValues map[string]map[string]float64

// TypeIndex maps a declared indicator type ("adx", "rsi", "atr", ...)
// to the id of the first configured indicator of that type. It backs
// the type-based fallback when a rule name matches no field directly.
type TypeIndex map[string]string

// ActiveRegime identifies the winning regime for one classification
// call. It is recomputed on every call and never persisted.
type ActiveRegime struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Classify evaluates regime definitions against an indicator snapshot
// and returns the highest-priority regime whose threshold rules all
// pass, or nil when no regime matches. A nil result is a valid outcome,
// not an error; callers treat it as a neutral/range state.
//
// Pure function: no shared state, identical inputs produce identical
// output, safe for concurrent use across independent inputs.
func Classify(values IndicatorValues, typeIndex TypeIndex, regimes []Definition, scope string) (*ActiveRegime, error) {
	candidates := make([]Definition, 0, len(regimes))
	for _, r := range regimes {
		if r.Scope == "" || r.Scope == scope {
			candidates = append(candidates, r)
		}
	}

	// Equal-priority regimes keep declaration order: the stable sort is
	// the tie-break, not an accident.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	for _, r := range candidates {
		matched, err := evaluate(r, values, typeIndex)
		if err != nil {
			return nil, err
		}
		if matched {
			return &ActiveRegime{ID: r.ID, Name: r.Name, Priority: r.Priority}, nil
		}
	}
	return nil, nil
}

// evaluate reports whether every threshold rule of the regime passes.
func evaluate(r Definition, values IndicatorValues, typeIndex TypeIndex) (bool, error) {
	for _, rule := range r.Thresholds {
		resolved, ok := resolveValue(rule.Name, values, typeIndex)
		if !ok {
			return false, core.WrapError(core.ErrMissingIndicator,
				fmt.Errorf("rule %q in regime %q", rule.Name, r.ID))
		}
		cmp, known := resolveComparator(rule.Name)
		if !known {
			// Unknown rule shapes never pass; silently producing a false
			// positive would be worse than skipping the regime.
			return false, nil
		}
		if !cmp(resolved, rule.Value) {
			return false, nil
		}
	}
	return true, nil
}

// resolveValue finds the indicator value a rule name refers to.
// Resolution order, first match wins:
//  1. exact field match on any indicator
//  2. the name's prefix up to the first underscore as a field name
//  3. type-based fallback via the type index
//
// Indicators are scanned in sorted id order so resolution stays
// deterministic when several indicators expose the same field.
func resolveValue(name string, values IndicatorValues, typeIndex TypeIndex) (float64, bool) {
	if v, ok := lookupField(name, values); ok {
		return v, true
	}

	if idx := strings.Index(name, "_"); idx > 0 {
		if v, ok := lookupField(name[:idx], values); ok {
			return v, true
		}
	}

	return lookupByType(name, values, typeIndex)
}

func lookupField(field string, values IndicatorValues) (float64, bool) {
	for _, id := range sortedIDs(values) {
		if v, ok := values[id][field]; ok {
			return v, true
		}
	}
	return 0, false
}

// lookupByType resolves well-known rule vocabularies to the canonical
// field of the first indicator of the matching type. atr_percent rules
// read the percent-of-price field; everything else reads the type's
// primary field.
func lookupByType(name string, values IndicatorValues, typeIndex TypeIndex) (float64, bool) {
	var indicatorType, field string
	switch {
	case strings.Contains(name, "adx"):
		indicatorType, field = "adx", "adx"
	case strings.Contains(name, "di_diff"):
		indicatorType, field = "adx", "di_diff"
	case strings.Contains(name, "rsi"):
		indicatorType, field = "rsi", "rsi"
	case strings.Contains(name, "atr"):
		indicatorType, field = "atr", "atr"
		if strings.Contains(name, "atr_percent") {
			field = "atr_percent"
		}
	default:
		return 0, false
	}

	id, ok := typeIndex[indicatorType]
	if !ok {
		return 0, false
	}
	v, ok := values[id][field]
	return v, ok
}

func sortedIDs(values IndicatorValues) []string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
