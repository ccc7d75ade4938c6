package dashboard

import (
	"context"
	"sync"

	"water_tank/internal/models"
)

// State holds the current snapshot and settings shared by message handling and the refresher.
// The snapshot is nil until the first data arrives; settings are loaded exactly once.
type State struct {
	mu       sync.RWMutex
	snapshot models.Snapshot
	settings *models.Settings

	readyOnce sync.Once
	ready     chan struct{}
}

// NewState returns an empty state with the settings gate closed.
func NewState() *State {
	return &State{ready: make(chan struct{})}
}

// ReplaceSnapshot swaps in s as the whole snapshot.
func (st *State) ReplaceSnapshot(s models.Snapshot) {
	st.mu.Lock()
	st.snapshot = s
	st.mu.Unlock()
}

// LoadSettings stores the settings and opens the ready gate.
// Only the first call has an effect; it reports whether it was that call.
func (st *State) LoadSettings(s models.Settings) bool {
	loaded := false
	st.readyOnce.Do(func() {
		st.mu.Lock()
		cp := s
		st.settings = &cp
		st.mu.Unlock()
		close(st.ready)
		loaded = true
	})
	return loaded
}

// SettingsReady is closed once settings have been loaded.
func (st *State) SettingsReady() <-chan struct{} {
	return st.ready
}

// WaitSettings blocks until settings are loaded or ctx is done.
func (st *State) WaitSettings(ctx context.Context) (models.Settings, error) {
	select {
	case <-st.ready:
		st.mu.RLock()
		defer st.mu.RUnlock()
		return *st.settings, nil
	case <-ctx.Done():
		return models.Settings{}, ctx.Err()
	}
}

// View returns the current snapshot and a copy of the settings.
// Either may be nil when not loaded yet. The snapshot must be treated as read-only.
func (st *State) View() (models.Snapshot, *models.Settings) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.settings == nil {
		return st.snapshot, nil
	}
	cp := *st.settings
	return st.snapshot, &cp
}
