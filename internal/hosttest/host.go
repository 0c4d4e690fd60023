// Package hosttest provides an in-memory window system for tests.
package hosttest

import (
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

// DecoratedInsets are the frame metrics reported for decorated styles.
var DecoratedInsets = geom.Insets{Left: 8, Top: 31, Right: 8, Bottom: 8}

type window struct {
	class  string
	title  string
	outer  geom.Rect
	style  host.StyleSet
	show   host.ShowCommand
	proc   host.Proc
	format *host.PixelFormat
}

type pending struct {
	h host.Handle
	n host.Notification
}

// Host is a scriptable host.Host. Exported fields configure behaviour and
// may be changed between calls; counters record what the bridge did.
type Host struct {
	mu sync.Mutex

	// MinClientWidth and MinClientHeight emulate host-imposed minimums.
	MinClientWidth  int
	MinClientHeight int
	// FailCreate makes CreateWindow refuse.
	FailCreate bool
	// FailShow makes Show return an error.
	FailShow error
	// Formats is the pixel format list returned for every window.
	Formats []host.PixelFormat
	// Modes is the display mode list; Current is the active mode.
	Modes   []host.DisplayMode
	Current host.DisplayMode
	// ModeError, when set, is returned by SetDisplayMode for any mode other
	// than the one captured as Original.
	ModeError error
	// Raw reports raw input support.
	Raw bool
	// EchoGeometry posts size/move notifications when SetWindowRect runs.
	EchoGeometry bool
	// DisplayOrigin is the top-left corner of the controlled display.
	DisplayOrigin geom.Point
	// Pointer is the cursor position in screen coordinates.
	Pointer geom.Point
	// FailCursor makes CursorPos and SetCursorPos return an error.
	FailCursor error

	// Original is the mode active before the first SetDisplayMode.
	Original host.DisplayMode

	ModeChanges     []host.DisplayMode
	Registered      map[string]bool
	RegisterCalls   int
	UnregisterCalls int
	DestroyCalls    int
	CreateCalls     int
	SwapCalls       int
	TrackCalls      int
	RawEnabled      bool
	ContextsLive    int
	WaitCalls       int
	WarpCalls       int

	windows map[host.Handle]*window
	next    host.Handle
	queue   []pending
	signal  chan struct{}
}

var _ host.Host = (*Host)(nil)

// New returns a host with one 1920x1080 display and a small format list.
func New() *Host {
	current := host.DisplayMode{Width: 1920, Height: 1080, BitsPerPixel: 32, RefreshHz: 60}
	return &Host{
		Modes: []host.DisplayMode{
			current,
			{Width: 1920, Height: 1080, BitsPerPixel: 32, RefreshHz: 144},
			{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 60},
			{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60},
			{Width: 800, Height: 600, BitsPerPixel: 16, RefreshHz: 60},
			{Width: 640, Height: 480, BitsPerPixel: 32, RefreshHz: 75},
		},
		Current:  current,
		Original: current,
		Formats: []host.PixelFormat{
			{ID: 1, ColorBits: 16, DepthBits: 16, DoubleBuffered: true, Accelerated: true},
			{ID: 2, ColorBits: 32, AlphaBits: 8, DepthBits: 24, StencilBits: 8, DoubleBuffered: true, Accelerated: true},
			{ID: 3, ColorBits: 32, AlphaBits: 8, DepthBits: 24, StencilBits: 8, SampleCount: 4, DoubleBuffered: true, Accelerated: true},
			{ID: 4, ColorBits: 24, DepthBits: 32, DoubleBuffered: false, Accelerated: false},
		},
		Registered: map[string]bool{},
		windows:    map[host.Handle]*window{},
		signal:     make(chan struct{}, 1),
	}
}

func (h *Host) RegisterClass(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.RegisterCalls++
	if h.Registered[name] {
		return fmt.Errorf("class %q already registered", name)
	}
	h.Registered[name] = true
	return nil
}

func (h *Host) UnregisterClass(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.UnregisterCalls++
	for _, w := range h.windows {
		if w.class == name {
			return host.ErrClassInUse
		}
	}
	delete(h.Registered, name)
	return nil
}

func (h *Host) FrameInsets(style host.StyleSet) geom.Insets {
	if style.Decorated() {
		return DecoratedInsets
	}
	return geom.Insets{}
}

func (h *Host) CreateWindow(p host.CreateParams) (host.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CreateCalls++
	if h.FailCreate {
		return 0, fmt.Errorf("create refused")
	}
	if !h.Registered[p.ClassName] {
		return 0, fmt.Errorf("class %q not registered", p.ClassName)
	}
	h.next++
	h.windows[h.next] = &window{
		class: p.ClassName,
		title: p.Title,
		outer: p.Outer,
		style: p.Style,
		proc:  p.Proc,
	}
	return h.next, nil
}

func (h *Host) DestroyWindow(hw host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[hw]; !ok {
		return host.ErrBadHandle
	}
	h.DestroyCalls++
	delete(h.windows, hw)
	return nil
}

func (h *Host) SetTitle(hw host.Handle, title string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return host.ErrBadHandle
	}
	w.title = title
	return nil
}

func (h *Host) SetStyle(hw host.Handle, style host.StyleSet) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return host.ErrBadHandle
	}
	w.style = style
	return nil
}

func (h *Host) SetWindowRect(hw host.Handle, outer geom.Rect) error {
	h.mu.Lock()
	w, ok := h.windows[hw]
	if !ok {
		h.mu.Unlock()
		return host.ErrBadHandle
	}
	w.outer = outer
	client := h.clientRectLocked(w)
	echo := h.EchoGeometry
	h.mu.Unlock()

	if echo {
		h.Post(hw, host.Notification{Kind: host.NotifyMove, X: client.Left, Y: client.Top})
		h.Post(hw, host.Notification{Kind: host.NotifySize, Width: client.Width(), Height: client.Height()})
	}
	return nil
}

func (h *Host) ClientRect(hw host.Handle) (geom.Rect, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return geom.Rect{}, host.ErrBadHandle
	}
	return h.clientRectLocked(w), nil
}

func (h *Host) clientRectLocked(w *window) geom.Rect {
	client := w.outer.Shrink(h.FrameInsets(w.style))
	width := max(client.Width(), h.MinClientWidth)
	height := max(client.Height(), h.MinClientHeight)
	return client.Resize(width, height)
}

func (h *Host) Show(hw host.Handle, cmd host.ShowCommand) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return host.ErrBadHandle
	}
	if h.FailShow != nil {
		return h.FailShow
	}
	w.show = cmd
	return nil
}

func (h *Host) PixelFormats(hw host.Handle) ([]host.PixelFormat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[hw]; !ok {
		return nil, host.ErrBadHandle
	}
	return append([]host.PixelFormat(nil), h.Formats...), nil
}

func (h *Host) SetPixelFormat(hw host.Handle, pf host.PixelFormat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return host.ErrBadHandle
	}
	if w.format != nil {
		return fmt.Errorf("pixel format already set")
	}
	w.format = &pf
	return nil
}

func (h *Host) CreateContext(hw host.Handle, pf host.PixelFormat) (host.ContextHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[hw]
	if !ok {
		return 0, host.ErrBadHandle
	}
	if w.format == nil || w.format.ID != pf.ID {
		return 0, fmt.Errorf("context format does not match surface")
	}
	h.ContextsLive++
	return host.ContextHandle(hw), nil
}

func (h *Host) DestroyContext(c host.ContextHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ContextsLive == 0 {
		return fmt.Errorf("no live context")
	}
	h.ContextsLive--
	return nil
}

func (h *Host) SwapBuffers(hw host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[hw]; !ok {
		return host.ErrBadHandle
	}
	h.SwapCalls++
	return nil
}

func (h *Host) DisplayModes() ([]host.DisplayMode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]host.DisplayMode(nil), h.Modes...), nil
}

func (h *Host) CurrentDisplayMode() (host.DisplayMode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Current, nil
}

func (h *Host) SetDisplayMode(m host.DisplayMode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ModeError != nil && m != h.Original {
		return h.ModeError
	}
	found := false
	for _, candidate := range h.Modes {
		if candidate == m {
			found = true
			break
		}
	}
	if !found {
		return host.ErrModeChangeFailed
	}
	h.Current = m
	h.ModeChanges = append(h.ModeChanges, m)
	return nil
}

func (h *Host) DisplayBounds() (geom.Rect, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return geom.FromSize(h.DisplayOrigin.X, h.DisplayOrigin.Y, h.Current.Width, h.Current.Height), nil
}

func (h *Host) CursorPos() (geom.Point, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailCursor != nil {
		return geom.Point{}, h.FailCursor
	}
	return h.Pointer, nil
}

func (h *Host) SetCursorPos(x, y int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailCursor != nil {
		return h.FailCursor
	}
	h.WarpCalls++
	h.Pointer = geom.Point{X: x, Y: y}
	return nil
}

func (h *Host) RawInputSupported() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Raw
}

func (h *Host) EnableRawInput(hw host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.Raw {
		return host.ErrUnsupported
	}
	h.RawEnabled = true
	return nil
}

func (h *Host) TrackPointerLeave(hw host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.TrackCalls++
	return nil
}

// Post queues a notification for window hw. Safe for concurrent use.
func (h *Host) Post(hw host.Handle, n host.Notification) {
	h.mu.Lock()
	h.queue = append(h.queue, pending{h: hw, n: n})
	h.mu.Unlock()

	select {
	case h.signal <- struct{}{}:
	default:
	}
}

// Dispatch delivers queued notifications, including any posted by a Proc
// while dispatching.
func (h *Host) Dispatch() error {
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return nil
		}
		p := h.queue[0]
		h.queue = h.queue[1:]
		w := h.windows[p.h]
		h.mu.Unlock()

		if w != nil && w.proc != nil {
			w.proc(p.n)
		}
	}
}

func (h *Host) Wait(timeout time.Duration) (bool, error) {
	h.mu.Lock()
	h.WaitCalls++
	ready := len(h.queue) > 0
	h.mu.Unlock()
	if ready {
		return true, nil
	}

	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-h.signal:
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.queue) > 0, nil
	case <-expired:
		return false, nil
	}
}

// Windows reports the number of live windows.
func (h *Host) Windows() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.windows)
}

// Title returns the title of hw.
func (h *Host) Title(hw host.Handle) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[hw]; ok {
		return w.title
	}
	return ""
}

// ShowState returns the last show command applied to hw.
func (h *Host) ShowState(hw host.Handle) host.ShowCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[hw]; ok {
		return w.show
	}
	return host.ShowNormal
}

// Style returns the style of hw.
func (h *Host) Style(hw host.Handle) host.StyleSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[hw]; ok {
		return w.style
	}
	return host.StyleSet{}
}

// Outer returns the outer rect of hw.
func (h *Host) Outer(hw host.Handle) geom.Rect {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[hw]; ok {
		return w.outer
	}
	return geom.Rect{}
}
