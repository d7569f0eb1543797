package regime

import (
	"os"
	"sync"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// ConfigStore holds the currently loaded regime definitions. Reads are
// cheap and safe to run concurrently; Reload is the single write path
// and callers reloading the same store from multiple goroutines must
// serialize those calls themselves.
type ConfigStore struct {
	mu       sync.RWMutex
	path     string
	regimes  []Definition
	loadedAt time.Time
}

// NewConfigStore creates an empty store. Call Load before classifying.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

// Load reads regime definitions from the given JSON file and replaces
// the store contents.
func (s *ConfigStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.WrapError(core.ErrConfigMissing, err)
	}
	defs, err := ParseConfig(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.regimes = defs
	s.loadedAt = time.Now()
	return nil
}

// Reload re-reads the file the store was last loaded from.
func (s *ConfigStore) Reload() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()

	if path == "" {
		return core.ErrConfigMissing
	}
	return s.Load(path)
}

// Definitions returns a copy of the loaded regime definitions in
// declaration order.
func (s *ConfigStore) Definitions() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Definition, len(s.regimes))
	copy(out, s.regimes)
	return out
}

// LoadedAt returns when the current config was loaded.
func (s *ConfigStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
