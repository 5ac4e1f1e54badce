package settings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"

	"go.uber.org/zap"
)

// Store persists settings snapshots. Load returns fs.ErrNotExist when no
// snapshot has ever been saved.
type Store interface {
	Load() ([]byte, error)
	Save(s Settings) error
}

// Manager owns the live settings snapshot. All mutation goes through
// Merge; readers get value copies and never observe a partial update.
type Manager struct {
	store Store
	log   *zap.Logger

	mu      sync.RWMutex
	current Settings
}

// NewManager creates a Manager seeded from the store, falling back to the
// compiled-in defaults when nothing is persisted or the persisted document
// is unreadable. A persisted document is applied through the same tolerant
// merge as client updates, so a stale or hand-edited file cannot narrow
// the key set.
func NewManager(store Store, log *zap.Logger) *Manager {
	m := &Manager{
		store:   store,
		log:     log,
		current: Defaults(),
	}

	raw, err := store.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("no persisted settings, using defaults")
	case err != nil:
		log.Warn("loading persisted settings failed, using defaults", zap.Error(err))
	default:
		var p Partial
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn("persisted settings unparsable, using defaults", zap.Error(err))
			break
		}
		m.current = Merge(m.current, p)
		log.Info("loaded persisted settings")
	}

	return m
}

// Get returns the current snapshot. Safe for concurrent use.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// AutomationEnabled reports whether automation is on for the given device
// key in the current snapshot.
func (m *Manager) AutomationEnabled(device string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Automations[device]
}

// Merge applies a partial update and persists the result. The new snapshot
// is computed and swapped in before the save is attempted; a save failure
// is logged and the in-memory snapshot stays authoritative, so the caller
// always gets the merged value back.
func (m *Manager) Merge(p Partial) Settings {
	m.mu.Lock()
	m.current = Merge(m.current, p)
	merged := m.current.Clone()
	m.mu.Unlock()

	if err := m.store.Save(merged); err != nil {
		m.log.Error("persisting settings failed, in-memory snapshot remains authoritative", zap.Error(err))
	}
	return merged
}
