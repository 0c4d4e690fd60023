package window

import "github.com/1broseidon/winbridge/internal/host"

// State is the presentation state of the window.
type State int

const (
	// StateUninitialized means no native window exists.
	StateUninitialized State = iota
	// StateWindowed is a normal decorated window.
	StateWindowed
	// StateMaximized fills the work area.
	StateMaximized
	// StateMinimized is iconified.
	StateMinimized
	// StateFullscreen owns the display with an overridden display mode.
	StateFullscreen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWindowed:
		return "windowed"
	case StateMaximized:
		return "maximized"
	case StateMinimized:
		return "minimized"
	case StateFullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Live reports whether s is a state of an existing window.
func (s State) Live() bool {
	return s >= StateWindowed && s <= StateFullscreen
}

// ParseState converts a configuration/CLI name into a live State.
func ParseState(name string) (State, bool) {
	for s := StateWindowed; s <= StateFullscreen; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StateUninitialized, false
}

func showCommand(s State) host.ShowCommand {
	switch s {
	case StateMaximized:
		return host.ShowMaximized
	case StateMinimized:
		return host.ShowMinimized
	case StateFullscreen:
		return host.ShowFullscreen
	default:
		return host.ShowNormal
	}
}

func stateFromShow(cmd host.ShowCommand) State {
	switch cmd {
	case host.ShowMaximized:
		return StateMaximized
	case host.ShowMinimized:
		return StateMinimized
	case host.ShowFullscreen:
		return StateFullscreen
	default:
		return StateWindowed
	}
}
