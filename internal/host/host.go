// Package host defines the contract between the window bridge and a concrete
// window system binding. Everything below this line is plain values: the
// marshaling of native structures stays inside each binding.
package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/winbridge/internal/geom"
)

// Handle identifies a native window. Zero is never a valid window.
type Handle uint32

// ContextHandle identifies a rendering context bound to a window surface.
type ContextHandle uint32

var (
	// ErrBadHandle is returned for operations on a window the host does not know.
	ErrBadHandle = errors.New("host: unknown window handle")
	// ErrClassInUse is returned when unregistering a class that still has windows.
	ErrClassInUse = errors.New("host: window class still in use")
	// ErrModeChangeFailed is returned when the display refused a mode.
	ErrModeChangeFailed = errors.New("host: display mode change failed")
	// ErrModeChangeRestart is returned when a mode is accepted but only takes
	// effect after a restart of the display subsystem.
	ErrModeChangeRestart = errors.New("host: display mode change requires restart")
	// ErrUnsupported is returned for capabilities the binding lacks.
	ErrUnsupported = errors.New("host: unsupported")
)

// ShowCommand asks the host to present a window in a given way.
type ShowCommand int

const (
	ShowNormal ShowCommand = iota
	ShowMaximized
	ShowMinimized
	ShowFullscreen
)

// String returns the string representation of the show command
func (c ShowCommand) String() string {
	switch c {
	case ShowNormal:
		return "normal"
	case ShowMaximized:
		return "maximized"
	case ShowMinimized:
		return "minimized"
	case ShowFullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// PixelFormat is a concrete framebuffer configuration offered by the host.
type PixelFormat struct {
	ID             int
	ColorBits      int
	AlphaBits      int
	DepthBits      int
	StencilBits    int
	SampleCount    int
	DoubleBuffered bool
	Accelerated    bool
}

func (pf PixelFormat) String() string {
	return fmt.Sprintf("#%d color=%d alpha=%d depth=%d stencil=%d samples=%d double=%t accel=%t",
		pf.ID, pf.ColorBits, pf.AlphaBits, pf.DepthBits, pf.StencilBits, pf.SampleCount,
		pf.DoubleBuffered, pf.Accelerated)
}

// DisplayMode is a resolution/depth/refresh combination of the primary display.
type DisplayMode struct {
	Width        int
	Height       int
	BitsPerPixel int
	RefreshHz    int
}

func (m DisplayMode) String() string {
	return fmt.Sprintf("%dx%d@%dHz %dbpp", m.Width, m.Height, m.RefreshHz, m.BitsPerPixel)
}

// Area returns Width*Height.
func (m DisplayMode) Area() int {
	return m.Width * m.Height
}

// Proc receives notifications for one window. Hosts call it synchronously
// from Dispatch, possibly reentrantly while another host call is in flight.
type Proc func(Notification)

// CreateParams describes a window creation request.
type CreateParams struct {
	ClassName string
	Title     string
	Outer     geom.Rect
	Style     StyleSet
	Proc      Proc
}

// Windows covers native window lifecycle and geometry.
type Windows interface {
	RegisterClass(name string) error
	UnregisterClass(name string) error
	// FrameInsets returns border and caption metrics for the given style.
	FrameInsets(style StyleSet) geom.Insets
	CreateWindow(p CreateParams) (Handle, error)
	DestroyWindow(h Handle) error
	SetTitle(h Handle, title string) error
	SetStyle(h Handle, style StyleSet) error
	// SetWindowRect places the outer (frame-inclusive) rect of the window.
	SetWindowRect(h Handle, outer geom.Rect) error
	// ClientRect returns the client area in screen coordinates.
	ClientRect(h Handle) (geom.Rect, error)
	Show(h Handle, cmd ShowCommand) error
}

// Surfaces covers pixel formats and rendering contexts.
type Surfaces interface {
	PixelFormats(h Handle) ([]PixelFormat, error)
	SetPixelFormat(h Handle, pf PixelFormat) error
	CreateContext(h Handle, pf PixelFormat) (ContextHandle, error)
	DestroyContext(c ContextHandle) error
	// SwapBuffers may block until vertical sync.
	SwapBuffers(h Handle) error
}

// Displays covers display mode enumeration and switching.
type Displays interface {
	DisplayModes() ([]DisplayMode, error)
	CurrentDisplayMode() (DisplayMode, error)
	SetDisplayMode(m DisplayMode) error
	// DisplayBounds returns the screen rect of the display whose mode is
	// controlled, so fullscreen windows land on it.
	DisplayBounds() (geom.Rect, error)
}

// Messages covers the notification queue of the host.
type Messages interface {
	RawInputSupported() bool
	EnableRawInput(h Handle) error
	// TrackPointerLeave arms a one-shot leave notification for h.
	TrackPointerLeave(h Handle) error
	// Dispatch delivers every pending notification to its window Proc
	// without blocking.
	Dispatch() error
	// Wait blocks until a notification is pending or timeout elapses and
	// reports whether one is pending. A negative timeout waits forever.
	Wait(timeout time.Duration) (bool, error)
}

// Cursor covers the system pointer position in screen coordinates.
type Cursor interface {
	CursorPos() (geom.Point, error)
	// SetCursorPos warps the pointer. Hosts may report the warp as motion.
	SetCursorPos(x, y int) error
}

// Host is a complete window system binding.
type Host interface {
	Windows
	Surfaces
	Displays
	Messages
	Cursor
}
