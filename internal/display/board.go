package display

import (
	"sort"
	"strconv"
	"sync"

	"water_tank/internal/dashboard"
)

// ElementName addresses one element inside a row.
type ElementName string

const (
	ElementRow         ElementName = "row"
	ElementLabel       ElementName = "label"
	ElementLastUpdated ElementName = "last_updated"
	ElementBar         ElementName = "bar"
	ElementPercent     ElementName = "percent"
)

// Op is the kind of change carried by a Patch.
type Op string

const (
	OpMount    Op = "mount"
	OpRemove   Op = "remove"
	OpText     Op = "text"
	OpClassOn  Op = "class_on"
	OpClassOff Op = "class_off"
	OpWidth    Op = "width"
)

// Patch is a single change to the board, applied by clients in order.
type Patch struct {
	TankID  string      `json:"tank_id"`
	Element ElementName `json:"element"`
	Op      Op          `json:"op"`
	Value   string      `json:"value,omitempty"`
}

// ElementState is the current content of one element.
type ElementState struct {
	Text    string   `json:"text"`
	Classes []string `json:"classes"`
	Width   int      `json:"width"`
}

// RowState is the current content of one row.
type RowState struct {
	ID          string       `json:"id"`
	Label       ElementState `json:"label"`
	LastUpdated ElementState `json:"last_updated"`
	Bar         ElementState `json:"bar"`
	Percent     ElementState `json:"percent"`
}

type element struct {
	text    string
	width   int
	classes map[string]bool
}

func (e *element) state() ElementState {
	classes := make([]string, 0, len(e.classes))
	for c := range e.classes {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return ElementState{Text: e.text, Classes: classes, Width: e.width}
}

type row struct {
	elements map[ElementName]*element
}

// Board is an in-memory display. Every effective change is published to the hub.
type Board struct {
	mu    sync.Mutex
	order []string
	rows  map[string]*row
	hub   *Hub
}

var _ dashboard.Display = (*Board)(nil)

// NewBoard creates an empty board publishing to hub. hub may be nil.
func NewBoard(hub *Hub) *Board {
	return &Board{rows: make(map[string]*row), hub: hub}
}

// Mount implements dashboard.Display.
func (b *Board) Mount(id string) dashboard.Row {
	b.mu.Lock()
	if _, ok := b.rows[id]; !ok {
		r := &row{elements: make(map[ElementName]*element, 4)}
		for _, name := range []ElementName{ElementLabel, ElementLastUpdated, ElementBar, ElementPercent} {
			r.elements[name] = &element{classes: map[string]bool{}}
		}
		b.rows[id] = r
		b.order = append(b.order, id)
		b.publishLocked(Patch{TankID: id, Element: ElementRow, Op: OpMount})
	}
	b.mu.Unlock()

	return dashboard.Row{
		Label:       &handle{board: b, id: id, name: ElementLabel},
		LastUpdated: &handle{board: b, id: id, name: ElementLastUpdated},
		Bar:         &handle{board: b, id: id, name: ElementBar},
		Percent:     &handle{board: b, id: id, name: ElementPercent},
	}
}

// Remove implements dashboard.Display.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rows[id]; !ok {
		return
	}
	delete(b.rows, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.publishLocked(Patch{TankID: id, Element: ElementRow, Op: OpRemove})
}

// IDs implements dashboard.Display.
func (b *Board) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Rows returns the current rows in mount order.
func (b *Board) Rows() []RowState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rowsLocked()
}

// Watch returns the current rows together with a channel carrying every patch
// made after them. Release the channel with Unwatch. The channel is closed when
// the reader falls too far behind; call Watch again to resync.
func (b *Board) Watch() ([]RowState, chan Patch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rowsLocked(), b.hub.Subscribe()
}

// Unwatch releases a channel obtained from Watch.
func (b *Board) Unwatch(ch chan Patch) {
	b.hub.Unsubscribe(ch)
}

func (b *Board) rowsLocked() []RowState {
	out := make([]RowState, 0, len(b.order))
	for _, id := range b.order {
		r := b.rows[id]
		out = append(out, RowState{
			ID:          id,
			Label:       r.elements[ElementLabel].state(),
			LastUpdated: r.elements[ElementLastUpdated].state(),
			Bar:         r.elements[ElementBar].state(),
			Percent:     r.elements[ElementPercent].state(),
		})
	}
	return out
}

// update runs fn on the addressed element and publishes the patch it returns, if any.
// Handles of removed rows are ignored.
func (b *Board) update(id string, name ElementName, fn func(e *element) (Patch, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return
	}
	p, changed := fn(r.elements[name])
	if !changed {
		return
	}
	p.TankID = id
	p.Element = name
	b.publishLocked(p)
}

func (b *Board) publishLocked(p Patch) {
	if b.hub != nil {
		b.hub.Publish(p)
	}
}

// handle addresses one element of a mounted row.
type handle struct {
	board *Board
	id    string
	name  ElementName
}

func (h *handle) SetText(text string) {
	h.board.update(h.id, h.name, func(e *element) (Patch, bool) {
		if e.text == text {
			return Patch{}, false
		}
		e.text = text
		return Patch{Op: OpText, Value: text}, true
	})
}

func (h *handle) SetClass(class string, on bool) {
	h.board.update(h.id, h.name, func(e *element) (Patch, bool) {
		if e.classes[class] == on {
			return Patch{}, false
		}
		if on {
			e.classes[class] = true
			return Patch{Op: OpClassOn, Value: class}, true
		}
		delete(e.classes, class)
		return Patch{Op: OpClassOff, Value: class}, true
	})
}

func (h *handle) SetWidth(percent int) {
	h.board.update(h.id, h.name, func(e *element) (Patch, bool) {
		if e.width == percent {
			return Patch{}, false
		}
		e.width = percent
		return Patch{Op: OpWidth, Value: strconv.Itoa(percent)}, true
	})
}
