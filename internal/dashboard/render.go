package dashboard

import (
	"math"
	"strconv"
	"time"

	"water_tank/internal/models"
)

// StaleClass marks the last-updated element of a tank whose sensor went silent.
const StaleClass = "stale"

// Element is one addressable part of a rendered row.
type Element interface {
	SetText(text string)
	SetClass(class string, on bool)
}

// Bar is the percentage bar of a row.
type Bar interface {
	Element
	SetWidth(percent int)
}

// Row groups the element handles of a single tank row.
type Row struct {
	Label       Element
	LastUpdated Element
	Bar         Bar
	Percent     Element
}

// Display is where rows are rendered, keyed by tank id.
type Display interface {
	// Mount returns the row for id, creating it when it does not exist.
	Mount(id string) Row
	// Remove drops the row for id if present.
	Remove(id string)
	// IDs lists the ids of the mounted rows.
	IDs() []string
}

// RowView is everything a row shows at one instant.
type RowView struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Status       Status `json:"status"`
	PercentLabel string `json:"percent_label"`
	BarWidth     int    `json:"bar_width"`
	ElapsedLabel string `json:"elapsed_label"`
	Stale        bool   `json:"stale"`
	Hidden       bool   `json:"hidden"`
}

// RenderTank computes the row for a reading. It is the only place row contents are decided;
// the message path and the refresher both go through it.
func RenderTank(t models.Tank, settings *models.Settings, now time.Time) RowView {
	v := RowView{
		ID:     t.ID,
		Label:  t.Label,
		Status: Classify(t),
		Hidden: !t.Enabled,
	}
	// a tank that never reported has nothing to age
	if !t.LastUpdated.IsZero() {
		v.ElapsedLabel = ElapsedLabel(t.LastUpdated.Time, now)
		v.Stale = IsDead(t.LastUpdated.Time, settings, now)
	}
	if v.Status != StatusSensorError && t.Percentage != nil {
		rounded := roundHalfUp(*t.Percentage)
		v.PercentLabel = strconv.Itoa(rounded) + "%"
		v.BarWidth = rounded
	}
	return v
}

// Apply writes v into the row handles.
func Apply(row Row, v RowView) {
	row.Label.SetText(v.Label)
	row.LastUpdated.SetText(v.ElapsedLabel)
	row.LastUpdated.SetClass(StaleClass, v.Stale)
	row.Bar.SetWidth(v.BarWidth)
	row.Percent.SetText(v.PercentLabel)
	for _, s := range AllStatuses {
		on := s == v.Status
		row.Bar.SetClass(string(s), on)
		row.Percent.SetClass(string(s), on)
	}
}

// roundHalfUp rounds like a browser does for display: halves go toward +Inf.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
