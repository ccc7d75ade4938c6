package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
)

// DefaultRefreshInterval is how often staleness is re-evaluated.
const DefaultRefreshInterval = time.Second

// Dashboard keeps a Display in sync with the tank snapshot.
// Handlers run one at a time; data arrival and the refresher may interleave only between calls.
type Dashboard struct {
	state   *State
	display Display
	log     *logger.Logger
	now     func() time.Time

	mu sync.Mutex
}

// New builds a dashboard rendering into display.
func New(state *State, display Display, log *logger.Logger) *Dashboard {
	return &Dashboard{state: state, display: display, log: log, now: time.Now}
}

// State exposes the underlying state container.
func (d *Dashboard) State() *State {
	return d.state
}

// Load installs the initial snapshot. Rows are rendered right away when settings are
// available, otherwise on the first pass of Run after the settings gate opens.
func (d *Dashboard) Load(s models.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ReplaceSnapshot(s)
	d.renderAllLocked(d.now())
}

// HandleMessage parses a whole-snapshot payload, replaces the snapshot and patches rows.
// A malformed payload leaves the snapshot and the display untouched.
func (d *Dashboard) HandleMessage(payload []byte) error {
	var s models.Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		metrics.ObserveSnapshotMessage(false)
		if d.log != nil {
			d.log.Errorw("snapshot_parse_failed", "err", err, "bytes", len(payload))
		}
		return fmt.Errorf("parse snapshot: %w", err)
	}
	metrics.ObserveSnapshotMessage(true)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ReplaceSnapshot(s)
	d.renderAllLocked(d.now())
	return nil
}

// Refresh re-renders every known tank at now. It does nothing until both the
// snapshot and the settings are loaded.
func (d *Dashboard) Refresh(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot, settings := d.state.View()
	if snapshot == nil || settings == nil {
		return
	}
	for _, t := range snapshot.Ordered() {
		if !t.Enabled {
			continue
		}
		Apply(d.display.Mount(t.ID), RenderTank(t, settings, now))
	}
}

// Run waits for settings, renders the current snapshot and then refreshes every interval
// until ctx is done.
func (d *Dashboard) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if _, err := d.state.WaitSettings(ctx); err != nil {
		return
	}
	d.mu.Lock()
	d.renderAllLocked(d.now())
	d.mu.Unlock()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			d.Refresh(now)
		}
	}
}

// renderAllLocked mounts enabled tanks, removes disabled or vanished ones and
// renders each remaining row once.
func (d *Dashboard) renderAllLocked(now time.Time) {
	snapshot, settings := d.state.View()
	if snapshot == nil || settings == nil {
		return
	}
	for _, id := range d.display.IDs() {
		if t, ok := snapshot[id]; !ok || !t.Enabled {
			d.display.Remove(id)
		}
	}
	for _, t := range snapshot.Ordered() {
		if !t.Enabled {
			continue
		}
		Apply(d.display.Mount(t.ID), RenderTank(t, settings, now))
	}
}
