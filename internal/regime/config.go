package regime

import (
	"encoding/json"
	"fmt"

	"github.com/newthinker/prism/internal/core"
)

// ThresholdRule is a single named threshold inside a regime definition.
// The name encodes both the target indicator field and the comparison
// semantics (see resolveComparator); it is not meaningful on its own.
type ThresholdRule struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Definition describes one market regime as a priority-ranked set of
// threshold rules. Immutable once loaded.
type Definition struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Priority   int             `json:"priority"`
	Scope      string          `json:"scope"` // Empty scope matches every request
	Thresholds []ThresholdRule `json:"thresholds"`
}

// ParseConfig decodes a JSON array of regime definitions and validates it.
func ParseConfig(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if err := validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func validate(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("regime at index %d has empty id", i))
		}
		if _, dup := seen[d.ID]; dup {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("duplicate regime id %q", d.ID))
		}
		seen[d.ID] = struct{}{}
		for _, rule := range d.Thresholds {
			if rule.Name == "" {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("regime %q has a threshold with empty name", d.ID))
			}
		}
	}
	return nil
}
