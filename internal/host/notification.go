package host

// Key is a host-independent key code. Bindings map native codes into this
// space; on X11 it is the keysym.
type Key uint32

// NotificationKind tags a Notification.
type NotificationKind int

const (
	NotifyUnknown NotificationKind = iota
	NotifySize
	NotifyMove
	NotifyFocus
	NotifyCloseRequest
	NotifyKeyDown
	NotifyKeyUp
	NotifyChar
	NotifyMouseMove
	NotifyRawMouse
	NotifyMouseButton
	NotifyMouseWheel
	NotifyMouseLeave
	NotifyShowState
)

var notificationNames = map[NotificationKind]string{
	NotifyUnknown:      "unknown",
	NotifySize:         "size",
	NotifyMove:         "move",
	NotifyFocus:        "focus",
	NotifyCloseRequest: "close-request",
	NotifyKeyDown:      "key-down",
	NotifyKeyUp:        "key-up",
	NotifyChar:         "char",
	NotifyMouseMove:    "mouse-move",
	NotifyRawMouse:     "raw-mouse",
	NotifyMouseButton:  "mouse-button",
	NotifyMouseWheel:   "mouse-wheel",
	NotifyMouseLeave:   "mouse-leave",
	NotifyShowState:    "show-state",
}

// String returns the string representation of the notification kind
func (k NotificationKind) String() string {
	if name, ok := notificationNames[k]; ok {
		return name
	}
	return "unknown"
}

// Notification is one raw message from the host window system.
//
// Field usage per kind:
//   - NotifySize: Width, Height (client area)
//   - NotifyMove: X, Y (client origin, screen space)
//   - NotifyFocus: Focused
//   - NotifyKeyDown/NotifyKeyUp: Key, Repeat
//   - NotifyChar: Rune
//   - NotifyMouseMove: X, Y (screen space)
//   - NotifyRawMouse: DX, DY
//   - NotifyMouseButton: Button (0-based), Down, X, Y (screen space)
//   - NotifyMouseWheel: Delta
//   - NotifyShowState: Show
type Notification struct {
	Kind    NotificationKind
	Width   int
	Height  int
	X       int
	Y       int
	DX      int
	DY      int
	Focused bool
	Key     Key
	Repeat  bool
	Rune    rune
	Button  int
	Down    bool
	Delta   int
	Show    ShowCommand
}
