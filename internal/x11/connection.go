// Package x11 binds the window bridge to an X server through xgb and xgbutil.
package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

// ErrDisconnected is returned once the X connection has gone away.
var ErrDisconnected = errors.New("x11: connection closed")

// Host implements host.Host on an X server. Every method except Close must
// be called from the thread that owns the window; a background goroutine
// only moves events from the socket into xgbutil's queue.
type Host struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	wake chan struct{}
	done chan struct{}

	classes map[string]int
	windows map[host.Handle]*window
	byXID   map[xproto.Window]host.Handle
	next    host.Handle
	insets  geom.Insets

	atomProtocols    xproto.Atom
	atomDeleteWindow xproto.Atom
	atomWmState      xproto.Atom
	atomFrameExtents xproto.Atom

	glxReady bool
	contexts map[host.ContextHandle]*glContext

	randrReady bool
	bpp        int
	pinned     randr.Crtc
}

var _ host.Host = (*Host)(nil)

// Connect opens the display named by $DISPLAY.
func Connect(logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	keybind.Initialize(xu)

	h := &Host{
		xu:       xu,
		root:     xu.RootWin(),
		logger:   logger.With("component", "x11"),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		classes:  make(map[string]int),
		windows:  make(map[host.Handle]*window),
		byXID:    make(map[xproto.Window]host.Handle),
		contexts: make(map[host.ContextHandle]*glContext),
		bpp:      pixmapBitsPerPixel(xu),
	}

	for name, dst := range map[string]*xproto.Atom{
		"WM_PROTOCOLS":       &h.atomProtocols,
		"WM_DELETE_WINDOW":   &h.atomDeleteWindow,
		"_NET_WM_STATE":      &h.atomWmState,
		"_NET_FRAME_EXTENTS": &h.atomFrameExtents,
	} {
		atom, err := xprop.Atm(xu, name)
		if err != nil {
			xu.Conn().Close()
			return nil, fmt.Errorf("failed to intern %s: %w", name, err)
		}
		*dst = atom
	}

	if err := randr.Init(xu.Conn()); err != nil {
		h.logger.Warn("randr unavailable, display modes are fixed", "error", err)
	} else {
		h.randrReady = true
	}

	go h.readEvents()
	return h, nil
}

// Close disconnects from the X server. Windows still open are destroyed by
// the server.
func (h *Host) Close() {
	h.xu.Conn().Close()
}

func (h *Host) readEvents() {
	defer close(h.done)
	for {
		ev, xerr := h.xu.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		xevent.Enqueue(h.xu, ev, xerr)
		select {
		case h.wake <- struct{}{}:
		default:
		}
	}
}

// Dispatch delivers every queued X event to its window.
func (h *Host) Dispatch() error {
	for !xevent.Empty(h.xu) {
		ev, xerr := xevent.Dequeue(h.xu)
		if xerr != nil {
			h.logger.Debug("x protocol error", "error", xerr)
			continue
		}
		if ev != nil {
			h.handle(ev)
		}
	}
	select {
	case <-h.done:
		return ErrDisconnected
	default:
	}
	return nil
}

// Wait blocks until an event is queued, the timeout elapses or the
// connection drops. A negative timeout waits forever.
func (h *Host) Wait(timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		if !xevent.Empty(h.xu) {
			return true, nil
		}
		select {
		case <-h.wake:
		case <-h.done:
			return false, ErrDisconnected
		case <-expired:
			return false, nil
		}
	}
}

// RawInputSupported is false: xgb carries no XInput2 raw motion.
func (h *Host) RawInputSupported() bool {
	return false
}

func (h *Host) EnableRawInput(host.Handle) error {
	return host.ErrUnsupported
}

// TrackPointerLeave is a no-op; LeaveNotify is always selected.
func (h *Host) TrackPointerLeave(hw host.Handle) error {
	if _, ok := h.windows[hw]; !ok {
		return host.ErrBadHandle
	}
	return nil
}

func pixmapBitsPerPixel(xu *xgbutil.XUtil) int {
	depth := xu.Screen().RootDepth
	for _, f := range xproto.Setup(xu.Conn()).PixmapFormats {
		if f.Depth == depth {
			return int(f.BitsPerPixel)
		}
	}
	return int(depth)
}
