package display

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"water_tank/internal/dashboard"
	"water_tank/internal/logger"
	"water_tank/internal/models"
)

func drain(ch chan Patch) []Patch {
	var out []Patch
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestBoard_MountPublishesOnce(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	b := NewBoard(hub)
	b.Mount("a")
	b.Mount("a")

	got := drain(ch)
	want := []Patch{{TankID: "a", Element: ElementRow, Op: OpMount}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patches = %+v, want %+v", got, want)
	}
	if ids := b.IDs(); !reflect.DeepEqual(ids, []string{"a"}) {
		t.Fatalf("IDs = %v", ids)
	}
}

func TestBoard_OnlyEffectiveChangesArePublished(t *testing.T) {
	hub := NewHub()
	b := NewBoard(hub)
	r := b.Mount("a")

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	r.LastUpdated.SetText("00m 05s ago")
	r.LastUpdated.SetText("00m 05s ago")
	r.LastUpdated.SetClass(dashboard.StaleClass, true)
	r.LastUpdated.SetClass(dashboard.StaleClass, true)
	r.LastUpdated.SetClass("missing", false)
	r.Bar.SetWidth(0)
	r.Bar.SetWidth(42)

	got := drain(ch)
	want := []Patch{
		{TankID: "a", Element: ElementLastUpdated, Op: OpText, Value: "00m 05s ago"},
		{TankID: "a", Element: ElementLastUpdated, Op: OpClassOn, Value: dashboard.StaleClass},
		{TankID: "a", Element: ElementBar, Op: OpWidth, Value: "42"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patches = %+v\nwant %+v", got, want)
	}
}

func TestBoard_RemoveAndStaleHandles(t *testing.T) {
	hub := NewHub()
	b := NewBoard(hub)
	r := b.Mount("a")
	b.Mount("b")

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	b.Remove("a")
	b.Remove("a")
	r.Percent.SetText("10%")

	got := drain(ch)
	want := []Patch{{TankID: "a", Element: ElementRow, Op: OpRemove}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patches = %+v, want %+v", got, want)
	}
	if ids := b.IDs(); !reflect.DeepEqual(ids, []string{"b"}) {
		t.Fatalf("IDs = %v", ids)
	}
}

func TestBoard_RowsReflectDashboardRender(t *testing.T) {
	b := NewBoard(nil)
	st := dashboard.NewState()
	st.LoadSettings(models.Settings{MaxSensorNoSignalTime: 60})
	d := dashboard.New(st, b, logger.NewNop())

	last := time.Now().Add(-2 * time.Minute).Format("2006-01-02 15:04:05")
	payload := []byte(`[
		{"id":"b","label":"Second","percentage":95.6,"enabled":true,"overflow_level":90,"order":2,"last_updated":"` + last + `"},
		{"id":"a","label":"First","percentage":null,"enabled":true,"order":1,"last_updated":"` + last + `"}
	]`)
	if err := d.HandleMessage(payload); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	rows := b.Rows()
	if len(rows) != 2 || rows[0].ID != "a" || rows[1].ID != "b" {
		t.Fatalf("rows out of order: %+v", rows)
	}
	second := rows[1]
	if second.Percent.Text != "96%" || second.Bar.Width != 96 {
		t.Fatalf("second row percent=%q width=%d", second.Percent.Text, second.Bar.Width)
	}
	if !reflect.DeepEqual(second.Bar.Classes, []string{"overflow"}) {
		t.Fatalf("bar classes = %v", second.Bar.Classes)
	}
	if !reflect.DeepEqual(rows[0].LastUpdated.Classes, []string{dashboard.StaleClass}) {
		t.Fatalf("first row should be stale, classes = %v", rows[0].LastUpdated.Classes)
	}
	if rows[0].Percent.Text != "" || !reflect.DeepEqual(rows[0].Bar.Classes, []string{"normal"}) {
		t.Fatalf("unknown percentage row = %+v", rows[0])
	}
}

func TestHub_FullSubscriberIsDroppedAndClosed(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	other := hub.Subscribe()
	defer hub.Unsubscribe(other)

	for i := 0; i < subscriberBuffer; i++ {
		hub.Publish(Patch{TankID: "a", Op: OpText})
		<-other
	}
	// one more than ch can hold
	hub.Publish(Patch{TankID: "a", Op: OpText})

	if n := len(drain(ch)); n != subscriberBuffer {
		t.Fatalf("received %d patches, want %d", n, subscriberBuffer)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("overflowed channel should be closed")
	}
	if hub.Len() != 1 {
		t.Fatalf("subscribers=%d, want only the one keeping up", hub.Len())
	}
	if p, ok := <-other; !ok || p.TankID != "a" {
		t.Fatalf("subscriber keeping up lost the patch: %+v ok=%v", p, ok)
	}

	// releasing an already dropped channel is a no-op
	hub.Unsubscribe(ch)
}

func TestBoard_OverflowedWatcherResyncsFromRows(t *testing.T) {
	b := NewBoard(NewHub())
	row := b.Mount("t1")

	_, ch := b.Watch()
	for i := 0; i < subscriberBuffer; i++ {
		row.Label.SetText(strconv.Itoa(i))
	}
	row.LastUpdated.SetClass(dashboard.StaleClass, true)

	got := drain(ch)
	for _, p := range got {
		if p.Op == OpClassOn {
			t.Fatalf("class patch cannot fit in a full buffer: %+v", p)
		}
	}
	if _, ok := <-ch; ok {
		t.Fatalf("watcher that missed a patch must see its channel closed")
	}

	rows, ch2 := b.Watch()
	defer b.Unwatch(ch2)
	if !reflect.DeepEqual(rows[0].LastUpdated.Classes, []string{dashboard.StaleClass}) {
		t.Fatalf("resynced rows miss the stale class: %+v", rows[0].LastUpdated)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	if hub.Len() != 0 {
		t.Fatalf("hub still has subscribers")
	}
}

func TestBoard_WatchReturnsRowsThenLaterPatches(t *testing.T) {
	hub := NewHub()
	b := NewBoard(hub)
	b.Mount("a").Label.SetText("A")

	rows, ch := b.Watch()
	if len(rows) != 1 || rows[0].ID != "a" || rows[0].Label.Text != "A" {
		t.Fatalf("rows: %+v", rows)
	}
	if got := drain(ch); len(got) != 0 {
		t.Fatalf("patches before Watch leaked: %+v", got)
	}

	b.Mount("a").Percent.SetText("5%")
	got := drain(ch)
	if len(got) != 1 || got[0].Op != OpText || got[0].Element != ElementPercent {
		t.Fatalf("patches after Watch: %+v", got)
	}

	b.Unwatch(ch)
	if hub.Len() != 0 {
		t.Fatalf("subscribers=%d", hub.Len())
	}
}

func TestBoard_WatchWithoutHub(t *testing.T) {
	b := NewBoard(nil)
	b.Mount("a")
	rows, ch := b.Watch()
	if len(rows) != 1 || ch != nil {
		t.Fatalf("rows=%+v ch=%v", rows, ch)
	}
	b.Unwatch(ch)
}
