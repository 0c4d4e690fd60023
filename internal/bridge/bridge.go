// Package bridge is the client-facing entry point. It composes the window
// manager, pixel format negotiation, display mode control and the event pump
// behind one object that is opened once and polled every frame.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/displaymode"
	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/pixelformat"
	"github.com/1broseidon/winbridge/internal/pointer"
	"github.com/1broseidon/winbridge/internal/pump"
	"github.com/1broseidon/winbridge/internal/session"
	"github.com/1broseidon/winbridge/internal/window"
)

// ErrContextCreateFailed is fatal: the surface exists but no rendering
// context could be created for it.
var ErrContextCreateFailed = errors.New("rendering context creation failed")

// Surface is what a renderer needs to draw into the window.
type Surface struct {
	Handle  host.Handle
	Context host.ContextHandle
	Format  host.PixelFormat
}

// Bridge is one open window plus its event stream. All methods must be
// called from the goroutine that called Open; Open locks it to its thread.
type Bridge struct {
	ctx    *session.Context
	host   host.Host
	logger *slog.Logger

	win    *window.Manager
	pump   *pump.Pump
	format host.PixelFormat
	gl     host.ContextHandle
	open   bool
}

// Open creates the window described by cfg, negotiates its pixel format,
// creates a rendering context and, if requested, enters fullscreen. A nil
// cfg uses config.Default().
func Open(ctx *session.Context, cfg *config.Config) (*Bridge, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runtime.LockOSThread()
	b, err := open(ctx, cfg)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return b, nil
}

func open(ctx *session.Context, cfg *config.Config) (*Bridge, error) {
	h := ctx.Host()
	logger := ctx.Logger().With("component", "bridge")

	b := &Bridge{
		ctx:    ctx,
		host:   h,
		logger: logger,
		win:    window.NewManager(ctx),
		pump: pump.New(h, pump.Options{
			QueueCapacity: cfg.QueueCapacity,
			Source:        pointer.SourceLegacy,
			Logger:        ctx.Logger().With("component", "pump"),
		}),
	}

	// Place the frame at the screen origin.
	insets := h.FrameInsets(host.DecoratedStyle())
	handle, err := b.win.Open(window.Options{
		ClassName:  cfg.ClassName,
		Title:      cfg.Title,
		Client:     geom.FromSize(insets.Left, insets.Top, cfg.Width, cfg.Height),
		Fullscreen: cfg.FullscreenTemplate(),
	}, b.pump.Proc())
	if err != nil {
		return nil, err
	}

	if err := b.createSurface(handle, cfg.PixelRequest()); err != nil {
		if closeErr := b.win.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	if cfg.PreferRawInput {
		b.enableRawInput(handle)
	}
	b.pump.Attach(b.win)
	b.open = true

	if cfg.Fullscreen {
		if err := b.win.SetState(window.StateFullscreen); err != nil {
			logger.Warn("fullscreen unavailable, staying windowed", "error", err)
		}
	}

	logger.Info("bridge opened",
		"format", b.format.String(),
		"pointer", b.pump.Source().String(),
		"state", b.win.State().String())
	return b, nil
}

func (b *Bridge) createSurface(handle host.Handle, req pixelformat.Request) error {
	formats, err := b.host.PixelFormats(handle)
	if err != nil {
		return fmt.Errorf("failed to enumerate pixel formats: %w", err)
	}
	format, err := pixelformat.NewNegotiator(b.ctx.Logger()).Negotiate(formats, req)
	if err != nil {
		return err
	}
	if err := b.host.SetPixelFormat(handle, format); err != nil {
		return fmt.Errorf("%w: failed to set pixel format %d: %v", pixelformat.ErrNoCompatibleFormat, format.ID, err)
	}
	gl, err := b.host.CreateContext(handle, format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContextCreateFailed, err)
	}
	b.format = format
	b.gl = gl
	return nil
}

func (b *Bridge) enableRawInput(handle host.Handle) {
	if !b.host.RawInputSupported() {
		b.logger.Debug("raw input unsupported, using absolute motion")
		return
	}
	if err := b.host.EnableRawInput(handle); err != nil {
		b.logger.Warn("raw input registration failed, using absolute motion", "error", err)
		return
	}
	b.pump.UseSource(pointer.SourceRaw)
}

// Close destroys the rendering context and the window, restoring the
// display mode if fullscreen was active. Calling it again is a no-op.
func (b *Bridge) Close() error {
	if !b.open {
		return nil
	}
	b.open = false

	var errs []error
	if err := b.host.DestroyContext(b.gl); err != nil {
		errs = append(errs, fmt.Errorf("failed to destroy context: %w", err))
	}
	if err := b.win.Close(); err != nil {
		errs = append(errs, err)
	}
	runtime.UnlockOSThread()

	stats := b.pump.Stats()
	b.logger.Info("bridge closed",
		"received", stats.Received,
		"translated", stats.Translated,
		"dropped", stats.Dropped,
		"overflowed", stats.Overflowed)
	return errors.Join(errs...)
}

// PollEvents returns every event that arrived since the previous call
// without blocking.
func (b *Bridge) PollEvents() ([]event.Event, error) {
	if !b.open {
		return nil, window.ErrNotOpen
	}
	return b.pump.Poll()
}

// WaitEvents blocks until an event arrives or timeout elapses.
func (b *Bridge) WaitEvents(timeout time.Duration) ([]event.Event, error) {
	if !b.open {
		return nil, window.ErrNotOpen
	}
	return b.pump.Wait(timeout)
}

// SetState moves the window to target. A refused fullscreen switch leaves
// the previous state in effect and satisfies IsRecoverable.
func (b *Bridge) SetState(target window.State) error {
	if !b.open {
		return window.ErrNotOpen
	}
	return b.win.SetState(target)
}

// State returns the current window state.
func (b *Bridge) State() window.State {
	return b.win.State()
}

// Resize sets the client area size. Ignored unless windowed.
func (b *Bridge) Resize(width, height int) error {
	if !b.open {
		return window.ErrNotOpen
	}
	return b.win.Resize(width, height)
}

// Move positions the client area's top-left corner. Ignored unless windowed.
func (b *Bridge) Move(x, y int) error {
	if !b.open {
		return window.ErrNotOpen
	}
	return b.win.Move(x, y)
}

// ClientSize returns the cached client area size.
func (b *Bridge) ClientSize() (int, int) {
	return b.win.ClientRect().Size()
}

// SetTitle changes the caption text.
func (b *Bridge) SetTitle(title string) error {
	if !b.open {
		return window.ErrNotOpen
	}
	return b.win.SetTitle(title)
}

// NegotiatedFormat returns the pixel format chosen at Open.
func (b *Bridge) NegotiatedFormat() host.PixelFormat {
	return b.format
}

// Surface returns the handles a renderer binds to.
func (b *Bridge) Surface() Surface {
	return Surface{Handle: b.win.Handle(), Context: b.gl, Format: b.format}
}

// Present swaps the back buffer to the screen. It may block on vsync.
func (b *Bridge) Present() error {
	if !b.open {
		return window.ErrNotOpen
	}
	if err := b.host.SwapBuffers(b.win.Handle()); err != nil {
		return fmt.Errorf("failed to present: %w", err)
	}
	return nil
}

// Modes lists the display modes the host supports, freshly enumerated.
func (b *Bridge) Modes() ([]host.DisplayMode, error) {
	return b.ctx.Displays().Enumerate()
}

// PointerSource reports whether motion comes from raw or legacy input.
func (b *Bridge) PointerSource() pointer.Source {
	return b.pump.Source()
}

// Stats returns the event pump counters.
func (b *Bridge) Stats() pump.Stats {
	return b.pump.Stats()
}

// CursorPos returns the pointer position relative to the client area's
// top-left corner. It may lie outside the client area.
func (b *Bridge) CursorPos() (int, int, error) {
	if !b.open {
		return 0, 0, window.ErrNotOpen
	}
	pos, err := b.host.CursorPos()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query cursor: %w", err)
	}
	local := b.win.ClientRect().ToLocal(pos.X, pos.Y)
	return local.X, local.Y, nil
}

// SetCursorPos warps the pointer to (x, y) in client coordinates, typically
// to recenter it for mouse look.
func (b *Bridge) SetCursorPos(x, y int) error {
	if !b.open {
		return window.ErrNotOpen
	}
	screen := b.win.ClientRect().ToScreen(x, y)
	if err := b.host.SetCursorPos(screen.X, screen.Y); err != nil {
		return fmt.Errorf("failed to move cursor: %w", err)
	}
	return nil
}

// IsFatal reports errors after which the bridge cannot be used.
func IsFatal(err error) bool {
	return errors.Is(err, window.ErrWindowCreateFailed) ||
		errors.Is(err, ErrContextCreateFailed)
}

// IsRecoverable reports errors where the operation was refused and the
// previous state is still in effect.
func IsRecoverable(err error) bool {
	return errors.Is(err, displaymode.ErrModeRejected) ||
		errors.Is(err, displaymode.ErrModePending) ||
		errors.Is(err, pixelformat.ErrNoCompatibleFormat)
}
