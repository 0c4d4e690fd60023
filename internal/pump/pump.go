// Package pump drains host notifications and translates them into client
// events, one batch per frame.
package pump

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/pointer"
)

// DefaultQueueCapacity bounds the notification queue when Options leaves it unset.
const DefaultQueueCapacity = 256

// ErrWrongThread is returned when polling from a thread other than the one
// that bound the pump.
var ErrWrongThread = errors.New("event pump used from a thread other than the window owner")

// Window is the part of the lifecycle manager the pump drives.
type Window interface {
	Handle() host.Handle
	ClientRect() geom.Rect
	UpdateClientSize(width, height int) bool
	UpdateClientOrigin(x, y int) bool
	SyncState(cmd host.ShowCommand) bool
	CommitWindowed()
}

// Options configures a Pump.
type Options struct {
	QueueCapacity int
	Source        pointer.Source
	Logger        *slog.Logger
}

// Stats counts what the pump has done since creation.
type Stats struct {
	Received   uint64
	Translated uint64
	Dropped    uint64
	Overflowed uint64
}

// Pump owns the bounded notification queue and the translation state.
type Pump struct {
	host    host.Messages
	win     Window
	tracker *pointer.Tracker
	logger  *slog.Logger

	queue    []host.Notification
	spare    []host.Notification
	capacity int
	focused  bool
	owner    int
	stats    Stats
}

// New creates a pump. Attach must be called before the first Poll.
func New(messages host.Messages, opts Options) *Pump {
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pump{
		host:     messages,
		tracker:  pointer.NewTracker(opts.Source),
		logger:   logger,
		queue:    make([]host.Notification, 0, capacity),
		spare:    make([]host.Notification, 0, capacity),
		capacity: capacity,
	}
}

// Proc is the host callback. It only queues.
func (p *Pump) Proc() host.Proc {
	return p.enqueue
}

// Attach binds the pump to its window and to the calling thread.
func (p *Pump) Attach(win Window) {
	p.win = win
	p.owner = currentThread()
}

// UseSource switches the pointer motion source. It has no effect once the
// pump is attached; sources are never mixed within a session.
func (p *Pump) UseSource(s pointer.Source) {
	if p.win != nil {
		return
	}
	p.tracker = pointer.NewTracker(s)
}

// Source reports the pointer motion source chosen at open.
func (p *Pump) Source() pointer.Source {
	return p.tracker.Source()
}

// Stats returns a snapshot of the counters.
func (p *Pump) Stats() Stats {
	return p.stats
}

func (p *Pump) enqueue(n host.Notification) {
	p.stats.Received++
	if len(p.queue) < p.capacity {
		p.queue = append(p.queue, n)
		return
	}

	p.stats.Overflowed++
	if n.Kind == host.NotifyCloseRequest {
		// A close request must reach the client; evict the oldest entry.
		evicted := p.queue[0]
		p.queue = append(p.queue[1:], n)
		p.logger.Warn("notification queue full, evicted oldest for close request",
			"evicted", evicted.Kind.String(), "capacity", p.capacity)
		return
	}
	p.logger.Warn("notification queue full, dropping", "kind", n.Kind.String(), "capacity", p.capacity)
}

func (p *Pump) checkThread() error {
	if p.win == nil {
		return errors.New("event pump not attached to a window")
	}
	if p.owner != 0 && currentThread() != p.owner {
		return ErrWrongThread
	}
	return nil
}

// Poll dispatches everything the host has pending without blocking and
// returns the translated events in arrival order.
func (p *Pump) Poll() ([]event.Event, error) {
	if err := p.checkThread(); err != nil {
		return nil, err
	}
	if err := p.host.Dispatch(); err != nil {
		return nil, fmt.Errorf("failed to dispatch host messages: %w", err)
	}
	return p.drain(), nil
}

// Wait blocks until at least one notification arrives or timeout elapses,
// then behaves like Poll. A timeout returns an empty list, not an error.
func (p *Pump) Wait(timeout time.Duration) ([]event.Event, error) {
	if err := p.checkThread(); err != nil {
		return nil, err
	}
	if len(p.queue) == 0 {
		ready, err := p.host.Wait(timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to wait for host messages: %w", err)
		}
		if !ready {
			return nil, nil
		}
	}
	return p.Poll()
}

// batch tracks coalescing state for a single drain.
type batch struct {
	events    []event.Event
	resizeIdx int
	moveIdx   int
	baseSize  [2]int
	baseOrig  geom.Point
}

func (p *Pump) drain() []event.Event {
	if len(p.queue) == 0 {
		return nil
	}

	client := p.win.ClientRect()
	b := &batch{
		resizeIdx: -1,
		moveIdx:   -1,
		baseSize:  [2]int{client.Width(), client.Height()},
		baseOrig:  client.Origin(),
	}

	// The host may call Proc again while we translate, so the queue is
	// swapped out and drained until nothing new arrives.
	for len(p.queue) > 0 {
		pending := p.queue
		p.queue = p.spare[:0]
		for _, n := range pending {
			if reason := p.translate(b, n); reason != "" {
				p.stats.Dropped++
				p.logger.Warn("dropped malformed notification", "kind", n.Kind.String(), "reason", reason)
			}
		}
		p.spare = pending[:0]
	}
	p.win.CommitWindowed()

	b.events = p.tracker.Flush(b.events)
	if b.resizeIdx >= 0 {
		if r := b.events[b.resizeIdx].(event.Resize); r.Width == b.baseSize[0] && r.Height == b.baseSize[1] {
			b.events[b.resizeIdx] = nil
		}
	}
	if b.moveIdx >= 0 {
		if m := b.events[b.moveIdx].(event.Move); m.X == b.baseOrig.X && m.Y == b.baseOrig.Y {
			b.events[b.moveIdx] = nil
		}
	}

	out := b.events[:0]
	for _, e := range b.events {
		if e != nil {
			out = append(out, e)
		}
	}
	p.stats.Translated += uint64(len(out))
	if len(out) == 0 {
		return nil
	}
	return out
}

// translate appends the events for n to b. A non-empty return is the reason
// n was dropped.
func (p *Pump) translate(b *batch, n host.Notification) string {
	switch n.Kind {
	case host.NotifySize:
		if n.Width < 0 || n.Height < 0 {
			return fmt.Sprintf("negative size %dx%d", n.Width, n.Height)
		}
		if !p.win.UpdateClientSize(n.Width, n.Height) && b.resizeIdx < 0 {
			return ""
		}
		ev := event.Resize{Width: n.Width, Height: n.Height}
		if b.resizeIdx >= 0 {
			b.events[b.resizeIdx] = ev
		} else {
			b.resizeIdx = len(b.events)
			b.events = append(b.events, ev)
		}

	case host.NotifyMove:
		if !p.win.UpdateClientOrigin(n.X, n.Y) && b.moveIdx < 0 {
			return ""
		}
		ev := event.Move{X: n.X, Y: n.Y}
		if b.moveIdx >= 0 {
			b.events[b.moveIdx] = ev
		} else {
			b.moveIdx = len(b.events)
			b.events = append(b.events, ev)
		}

	case host.NotifyFocus:
		if n.Focused == p.focused {
			return ""
		}
		p.focused = n.Focused
		if n.Focused {
			b.events = append(b.events, event.FocusGained{})
		} else {
			b.events = append(b.events, event.FocusLost{})
		}

	case host.NotifyCloseRequest:
		b.events = append(b.events, event.Close{})

	case host.NotifyKeyDown:
		if n.Key == 0 {
			return "key code 0"
		}
		b.events = append(b.events, event.KeyDown{Code: n.Key, Repeat: n.Repeat})

	case host.NotifyKeyUp:
		if n.Key == 0 {
			return "key code 0"
		}
		b.events = append(b.events, event.KeyUp{Code: n.Key})

	case host.NotifyChar:
		if !utf8.ValidRune(n.Rune) {
			return fmt.Sprintf("invalid code point %#x", n.Rune)
		}
		b.events = append(b.events, event.Char{Rune: n.Rune})

	case host.NotifyMouseMove:
		wasInside := p.tracker.Inside()
		local := p.win.ClientRect().ToLocal(n.X, n.Y)
		b.events = p.tracker.Move(b.events, local)
		if !wasInside {
			if err := p.host.TrackPointerLeave(p.win.Handle()); err != nil {
				p.logger.Debug("pointer leave tracking unavailable", "error", err)
			}
		}

	case host.NotifyRawMouse:
		if p.tracker.Source() != pointer.SourceRaw {
			return "raw motion while using legacy motion"
		}
		p.tracker.Raw(n.DX, n.DY)

	case host.NotifyMouseButton:
		button := event.Button(n.Button)
		if !button.Valid() {
			return fmt.Sprintf("unknown mouse button %d", n.Button)
		}
		local := p.win.ClientRect().ToLocal(n.X, n.Y)
		b.events = append(b.events, event.MouseButton{Button: button, Down: n.Down, X: local.X, Y: local.Y})

	case host.NotifyMouseWheel:
		b.events = append(b.events, event.MouseWheel{Delta: n.Delta})

	case host.NotifyMouseLeave:
		b.events = p.tracker.Leave(b.events)

	case host.NotifyShowState:
		p.win.SyncState(n.Show)

	default:
		return fmt.Sprintf("unknown notification kind %d", int(n.Kind))
	}
	return ""
}
