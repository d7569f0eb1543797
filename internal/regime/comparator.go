package regime

import "strings"

// Comparator checks a resolved indicator value against a rule threshold.
type Comparator func(resolved, threshold float64) bool

func gte(resolved, threshold float64) bool { return resolved >= threshold }
func lte(resolved, threshold float64) bool { return resolved <= threshold }

// resolveComparator maps a threshold rule name to its comparison
// semantics. The branches are checked in a fixed order and the first
// match wins; a crafted name can match more than one branch, and
// existing configs depend on this exact precedence, so the order must
// not change. Unknown rule shapes fail closed.
func resolveComparator(name string) (Comparator, bool) {
	switch {
	case strings.HasSuffix(name, "_min"):
		return gte, true
	case strings.HasSuffix(name, "_max"):
		return lte, true
	case strings.Contains(name, "confirm_bull") || strings.Contains(name, "exhaustion_min"):
		return gte, true
	case strings.Contains(name, "confirm_bear") || strings.Contains(name, "exhaustion_max"):
		return lte, true
	default:
		return nil, false
	}
}
