// Package pointer tracks whether the pointer is over the client area and
// derives enter/leave and relative motion from host notifications.
package pointer

import (
	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
)

// Source selects where relative motion comes from. It is fixed for the
// lifetime of a tracker.
type Source int

const (
	// SourceLegacy derives motion from successive absolute positions.
	SourceLegacy Source = iota
	// SourceRaw accumulates device deltas reported separately by the host.
	SourceRaw
)

// String returns the string representation of the source
func (s Source) String() string {
	if s == SourceRaw {
		return "raw"
	}
	return "legacy"
}

// Tracker is the Outside/Inside state machine. The zero value is an
// Outside tracker using legacy motion.
type Tracker struct {
	source Source
	inside bool
	last   geom.Point
	rawDX  int
	rawDY  int
}

// NewTracker creates an Outside tracker.
func NewTracker(source Source) *Tracker {
	return &Tracker{source: source}
}

// Source returns the motion source.
func (t *Tracker) Source() Source {
	return t.source
}

// Inside reports whether the pointer is over the client area.
func (t *Tracker) Inside() bool {
	return t.inside
}

// Position returns the last client-space position while Inside.
func (t *Tracker) Position() (geom.Point, bool) {
	return t.last, t.inside
}

// Move records an absolute client-space position. Entering from Outside
// emits MouseEnter before the MouseMove.
func (t *Tracker) Move(dst []event.Event, p geom.Point) []event.Event {
	var dx, dy int
	if !t.inside {
		t.inside = true
		dst = append(dst, event.MouseEnter{})
	} else if t.source == SourceLegacy {
		dx, dy = p.X-t.last.X, p.Y-t.last.Y
	}
	if t.source == SourceRaw {
		dx, dy = t.rawDX, t.rawDY
		t.rawDX, t.rawDY = 0, 0
	}
	t.last = p
	return append(dst, event.MouseMove{X: p.X, Y: p.Y, DX: dx, DY: dy})
}

// Raw accumulates a device delta. Deltas are dropped while Outside and in
// legacy mode.
func (t *Tracker) Raw(dx, dy int) {
	if t.source != SourceRaw || !t.inside {
		return
	}
	t.rawDX += dx
	t.rawDY += dy
}

// Leave handles the host leave notification. Only an Inside tracker emits
// MouseLeave, so leaves never outnumber enters.
func (t *Tracker) Leave(dst []event.Event) []event.Event {
	if !t.inside {
		return dst
	}
	t.inside = false
	t.last = geom.Point{}
	t.rawDX, t.rawDY = 0, 0
	return append(dst, event.MouseLeave{})
}

// Flush emits raw motion that no absolute move has claimed, as a MouseMove
// at the last known position.
func (t *Tracker) Flush(dst []event.Event) []event.Event {
	if !t.inside || (t.rawDX == 0 && t.rawDY == 0) {
		return dst
	}
	dx, dy := t.rawDX, t.rawDY
	t.rawDX, t.rawDY = 0, 0
	return append(dst, event.MouseMove{X: t.last.X, Y: t.last.Y, DX: dx, DY: dy})
}
