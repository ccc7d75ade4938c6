package dashboard

import "sort"

type fakeElement struct {
	text    string
	width   int
	classes map[string]bool
	writes  int
}

func newFakeElement() *fakeElement { return &fakeElement{classes: map[string]bool{}} }

func (e *fakeElement) SetText(text string) { e.text = text; e.writes++ }
func (e *fakeElement) SetWidth(w int)      { e.width = w; e.writes++ }
func (e *fakeElement) SetClass(class string, on bool) {
	e.writes++
	if on {
		e.classes[class] = true
		return
	}
	delete(e.classes, class)
}

type fakeRow struct {
	label, lastUpdated, bar, percent *fakeElement
}

type fakeDisplay struct {
	rows    map[string]*fakeRow
	mounts  int
	removed []string
}

func newFakeDisplay() *fakeDisplay { return &fakeDisplay{rows: map[string]*fakeRow{}} }

func (d *fakeDisplay) Mount(id string) Row {
	r, ok := d.rows[id]
	if !ok {
		d.mounts++
		r = &fakeRow{newFakeElement(), newFakeElement(), newFakeElement(), newFakeElement()}
		d.rows[id] = r
	}
	return Row{Label: r.label, LastUpdated: r.lastUpdated, Bar: r.bar, Percent: r.percent}
}

func (d *fakeDisplay) Remove(id string) {
	if _, ok := d.rows[id]; ok {
		delete(d.rows, id)
		d.removed = append(d.removed, id)
	}
}

func (d *fakeDisplay) IDs() []string {
	ids := make([]string, 0, len(d.rows))
	for id := range d.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
