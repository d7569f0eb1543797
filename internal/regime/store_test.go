package regime

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/prism/internal/core"
)

const sampleConfig = `[
  {"id": "trend_up", "name": "Trending Up", "priority": 10, "scope": "",
   "thresholds": [{"name": "adx_min", "value": 25}]},
  {"id": "ranging", "name": "Ranging", "priority": 1, "scope": "",
   "thresholds": [{"name": "adx_max", "value": 20}]}
]`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regimes.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigStore_Load(t *testing.T) {
	store := NewConfigStore()
	if err := store.Load(writeConfig(t, sampleConfig)); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	defs := store.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	if defs[0].ID != "trend_up" || defs[1].ID != "ranging" {
		t.Error("declaration order not preserved")
	}
	if store.LoadedAt().IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestConfigStore_Reload(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	store := NewConfigStore()
	if err := store.Load(path); err != nil {
		t.Fatal(err)
	}

	updated := `[{"id": "only", "name": "Only", "priority": 1, "scope": "",
	  "thresholds": [{"name": "rsi_min", "value": 50}]}]`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if defs := store.Definitions(); len(defs) != 1 || defs[0].ID != "only" {
		t.Errorf("reload did not replace definitions: %+v", defs)
	}
}

func TestConfigStore_ReloadBeforeLoad(t *testing.T) {
	if err := NewConfigStore().Reload(); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("reload without load should fail with ErrConfigMissing, got %v", err)
	}
}

func TestConfigStore_MissingFile(t *testing.T) {
	err := NewConfigStore().Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("want ErrConfigMissing, got %v", err)
	}
}

func TestParseConfig_DuplicateID(t *testing.T) {
	dup := `[{"id": "a", "priority": 1, "thresholds": []},
	         {"id": "a", "priority": 2, "thresholds": []}]`
	if _, err := ParseConfig([]byte(dup)); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("duplicate id should be rejected, got %v", err)
	}
}

func TestParseConfig_BadJSON(t *testing.T) {
	if _, err := ParseConfig([]byte("{not json")); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("want ErrConfigInvalid, got %v", err)
	}
}

func TestConfigStore_DefinitionsReturnsCopy(t *testing.T) {
	store := NewConfigStore()
	if err := store.Load(writeConfig(t, sampleConfig)); err != nil {
		t.Fatal(err)
	}

	defs := store.Definitions()
	defs[0].ID = "mutated"
	if store.Definitions()[0].ID != "trend_up" {
		t.Error("Definitions must return a copy")
	}
}
