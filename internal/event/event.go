// Package event defines the events delivered to the client once per frame.
package event

import (
	"fmt"

	"github.com/1broseidon/winbridge/internal/host"
)

// Kind identifies an Event variant.
type Kind int

const (
	KindResize Kind = iota + 1
	KindMove
	KindFocusGained
	KindFocusLost
	KindClose
	KindKeyDown
	KindKeyUp
	KindChar
	KindMouseMove
	KindMouseButton
	KindMouseWheel
	KindMouseEnter
	KindMouseLeave
)

var kindNames = map[Kind]string{
	KindResize:      "resize",
	KindMove:        "move",
	KindFocusGained: "focus-gained",
	KindFocusLost:   "focus-lost",
	KindClose:       "close",
	KindKeyDown:     "key-down",
	KindKeyUp:       "key-up",
	KindChar:        "char",
	KindMouseMove:   "mouse-move",
	KindMouseButton: "mouse-button",
	KindMouseWheel:  "mouse-wheel",
	KindMouseEnter:  "mouse-enter",
	KindMouseLeave:  "mouse-leave",
}

// String returns the string representation of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one translated window or input event. The set of
// implementations is closed.
type Event interface {
	Kind() Kind
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	ButtonX1
	ButtonX2
	buttonCount
)

// String returns the string representation of the button
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonX1:
		return "x1"
	case ButtonX2:
		return "x2"
	default:
		return "unknown"
	}
}

// Valid reports whether b names a known button.
func (b Button) Valid() bool {
	return b >= ButtonLeft && b < buttonCount
}

type (
	// Resize reports a new client size.
	Resize struct{ Width, Height int }
	// Move reports a new client origin in screen coordinates.
	Move struct{ X, Y int }
	// FocusGained reports keyboard focus arriving.
	FocusGained struct{}
	// FocusLost reports keyboard focus leaving.
	FocusLost struct{}
	// Close reports a close request. The window stays open until the
	// client closes it.
	Close struct{}
	// KeyDown reports a key press. Repeat is set for auto-repeat.
	KeyDown struct {
		Code   host.Key
		Repeat bool
	}
	// KeyUp reports a key release.
	KeyUp struct{ Code host.Key }
	// Char reports text input.
	Char struct{ Rune rune }
	// MouseMove reports the pointer position in client coordinates and the
	// motion since the previous MouseMove.
	MouseMove struct{ X, Y, DX, DY int }
	// MouseButton reports a button transition at a client position.
	MouseButton struct {
		Button Button
		Down   bool
		X, Y   int
	}
	// MouseWheel reports an unscaled wheel delta.
	MouseWheel struct{ Delta int }
	// MouseEnter reports the pointer entering the client area.
	MouseEnter struct{}
	// MouseLeave reports the pointer leaving the client area.
	MouseLeave struct{}
)

func (Resize) Kind() Kind      { return KindResize }
func (Move) Kind() Kind        { return KindMove }
func (FocusGained) Kind() Kind { return KindFocusGained }
func (FocusLost) Kind() Kind   { return KindFocusLost }
func (Close) Kind() Kind       { return KindClose }
func (KeyDown) Kind() Kind     { return KindKeyDown }
func (KeyUp) Kind() Kind       { return KindKeyUp }
func (Char) Kind() Kind        { return KindChar }
func (MouseMove) Kind() Kind   { return KindMouseMove }
func (MouseButton) Kind() Kind { return KindMouseButton }
func (MouseWheel) Kind() Kind  { return KindMouseWheel }
func (MouseEnter) Kind() Kind  { return KindMouseEnter }
func (MouseLeave) Kind() Kind  { return KindMouseLeave }

// Describe renders an event for logs.
func Describe(e Event) string {
	switch ev := e.(type) {
	case Resize:
		return fmt.Sprintf("resize %dx%d", ev.Width, ev.Height)
	case Move:
		return fmt.Sprintf("move %d,%d", ev.X, ev.Y)
	case KeyDown:
		if ev.Repeat {
			return fmt.Sprintf("key-down 0x%x (repeat)", uint32(ev.Code))
		}
		return fmt.Sprintf("key-down 0x%x", uint32(ev.Code))
	case KeyUp:
		return fmt.Sprintf("key-up 0x%x", uint32(ev.Code))
	case Char:
		return fmt.Sprintf("char %q", ev.Rune)
	case MouseMove:
		return fmt.Sprintf("mouse-move %d,%d (%+d,%+d)", ev.X, ev.Y, ev.DX, ev.DY)
	case MouseButton:
		state := "up"
		if ev.Down {
			state = "down"
		}
		return fmt.Sprintf("mouse-button %s %s at %d,%d", ev.Button, state, ev.X, ev.Y)
	case MouseWheel:
		return fmt.Sprintf("mouse-wheel %+d", ev.Delta)
	case nil:
		return "<nil>"
	default:
		return e.Kind().String()
	}
}
