// Package window owns the single native window: creation, state
// transitions, geometry and destruction.
package window

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/session"
)

var (
	// ErrWindowCreateFailed is fatal: the host refused to create the window.
	ErrWindowCreateFailed = errors.New("window creation failed")
	// ErrNotOpen is returned for operations that need a live window.
	ErrNotOpen = errors.New("window not open")
	// ErrInvalidState is returned for transitions to a non-live state.
	ErrInvalidState = errors.New("invalid window state")
)

// DefaultClassName is used when Options.ClassName is empty.
const DefaultClassName = "winbridge.surface"

// Options configures Open.
type Options struct {
	ClassName string
	Title     string
	// Client is the requested client area in screen coordinates.
	Client geom.Rect
	// Style defaults to host.DecoratedStyle when empty.
	Style host.StyleSet
	// Fullscreen supplies bits per pixel and refresh rate for fullscreen
	// entry. Zero fields take the value of the current display mode; zero
	// width/height take the client size.
	Fullscreen host.DisplayMode
}

// Manager drives the lifecycle of one native window.
// It must be used from the thread that opened the window.
type Manager struct {
	ctx    *session.Context
	host   host.Host
	logger *slog.Logger

	className  string
	handle     host.Handle
	state      State
	style      host.StyleSet
	client     geom.Rect
	windowed   geom.Rect
	fullscreen host.DisplayMode
}

// NewManager creates a manager bound to the process context.
func NewManager(ctx *session.Context) *Manager {
	return &Manager{
		ctx:    ctx,
		host:   ctx.Host(),
		logger: ctx.Logger().With("component", "window"),
	}
}

// Handle returns the live window handle, or zero.
func (m *Manager) Handle() host.Handle {
	return m.handle
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

// ClientRect returns the cached client area in screen coordinates.
func (m *Manager) ClientRect() geom.Rect {
	return m.client
}

// Open creates the window. Notifications for it are delivered to proc.
func (m *Manager) Open(opts Options, proc host.Proc) (host.Handle, error) {
	if err := m.ctx.Acquire(); err != nil {
		if errors.Is(err, session.ErrTornDown) {
			return 0, fmt.Errorf("%w: %w", ErrWindowCreateFailed, err)
		}
		return 0, err
	}

	className := opts.ClassName
	if className == "" {
		className = DefaultClassName
	}
	style := opts.Style
	if len(style.Flags()) == 0 {
		style = host.DecoratedStyle()
	}

	if err := m.ctx.RetainClass(className); err != nil {
		m.ctx.Release()
		return 0, fmt.Errorf("%w: %v", ErrWindowCreateFailed, err)
	}

	outer := opts.Client.Expand(m.host.FrameInsets(style))
	handle, err := m.host.CreateWindow(host.CreateParams{
		ClassName: className,
		Title:     opts.Title,
		Outer:     outer,
		Style:     style,
		Proc:      proc,
	})
	if err == nil && handle == 0 {
		err = host.ErrBadHandle
	}
	if err != nil {
		if relErr := m.ctx.ReleaseClass(className); relErr != nil {
			m.logger.Warn("class release after failed create", "error", relErr)
		}
		m.ctx.Release()
		return 0, fmt.Errorf("%w: %v", ErrWindowCreateFailed, err)
	}

	m.className = className
	m.handle = handle
	m.style = style
	m.state = StateWindowed
	m.fullscreen = opts.Fullscreen
	m.client = opts.Client
	m.refreshClient()
	m.windowed = m.client

	if err := m.host.Show(handle, host.ShowNormal); err != nil {
		m.logger.Warn("initial show failed", "error", err)
	}

	m.logger.Info("window opened",
		"handle", handle,
		"class", className,
		"client", fmt.Sprintf("%dx%d", m.client.Width(), m.client.Height()))
	return handle, nil
}

// SetTitle changes the caption text.
func (m *Manager) SetTitle(title string) error {
	if !m.state.Live() {
		return ErrNotOpen
	}
	if err := m.host.SetTitle(m.handle, title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	return nil
}

// SetState transitions to target. Any live state may move to any other.
// Entering fullscreen switches the display mode first; if that fails the
// state is unchanged and the error is returned. Leaving fullscreen restores
// the display mode first and stays fullscreen if the host refuses it.
func (m *Manager) SetState(target State) error {
	if !m.state.Live() {
		return ErrNotOpen
	}
	if !target.Live() {
		return fmt.Errorf("%w: %s", ErrInvalidState, target)
	}
	if target == m.state {
		return nil
	}

	from := m.state
	var err error
	switch {
	case target == StateFullscreen:
		err = m.enterFullscreen(from)
	case from == StateFullscreen:
		err = m.leaveFullscreen(target)
	default:
		if err = m.host.Show(m.handle, showCommand(target)); err != nil {
			err = fmt.Errorf("failed to show window %s: %w", target, err)
		} else {
			m.state = target
			m.refreshClient()
		}
	}

	if err != nil {
		m.logger.Warn("state transition failed", "from", from.String(), "to", target.String(), "error", err)
		return err
	}
	m.logger.Debug("state changed", "from", from.String(), "to", m.state.String())
	return nil
}

func (m *Manager) enterFullscreen(from State) error {
	applied, err := m.ctx.Displays().Apply(m.fullscreenTarget())
	if err != nil {
		return fmt.Errorf("failed to enter fullscreen: %w", err)
	}

	if err := m.placeFullscreen(applied); err != nil {
		m.placeWindowed(from)
		if restoreErr := m.ctx.Displays().Restore(); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return fmt.Errorf("failed to enter fullscreen: %w", err)
	}

	m.state = StateFullscreen
	m.refreshClient()
	return nil
}

func (m *Manager) placeFullscreen(mode host.DisplayMode) error {
	if err := m.host.SetStyle(m.handle, host.FullscreenStyle()); err != nil {
		return err
	}
	var origin geom.Point
	if bounds, err := m.host.DisplayBounds(); err == nil {
		origin = bounds.Origin()
	} else {
		m.logger.Debug("display bounds unavailable", "error", err)
	}
	if err := m.host.SetWindowRect(m.handle, geom.FromSize(origin.X, origin.Y, mode.Width, mode.Height)); err != nil {
		return err
	}
	return m.host.Show(m.handle, host.ShowFullscreen)
}

// placeWindowed reinstates decoration and the last windowed rect. Errors are
// logged: it runs on paths that are already reporting a failure.
func (m *Manager) placeWindowed(target State) error {
	var errs []error
	if err := m.host.SetStyle(m.handle, m.style); err != nil {
		errs = append(errs, err)
	}
	if err := m.host.SetWindowRect(m.handle, m.windowed.Expand(m.host.FrameInsets(m.style))); err != nil {
		errs = append(errs, err)
	}
	if err := m.host.Show(m.handle, showCommand(target)); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		m.logger.Warn("windowed placement incomplete", "target", target.String(), "error", err)
	}
	return err
}

// leaveFullscreen restores the display mode before touching the window. A
// refused restore leaves the window fullscreen with the mode still captured.
func (m *Manager) leaveFullscreen(target State) error {
	if err := m.ctx.Displays().Restore(); err != nil {
		return fmt.Errorf("failed to leave fullscreen: %w", err)
	}
	placeErr := m.placeWindowed(target)

	m.state = target
	m.refreshClient()
	if placeErr != nil {
		return fmt.Errorf("failed to leave fullscreen cleanly: %w", placeErr)
	}
	return nil
}

func (m *Manager) fullscreenTarget() host.DisplayMode {
	want := m.fullscreen
	if want.Width <= 0 || want.Height <= 0 {
		want.Width, want.Height = m.windowed.Size()
	}
	if want.BitsPerPixel <= 0 || want.RefreshHz <= 0 {
		if current, err := m.ctx.Displays().Current(); err == nil {
			if want.BitsPerPixel <= 0 {
				want.BitsPerPixel = current.BitsPerPixel
			}
			if want.RefreshHz <= 0 {
				want.RefreshHz = current.RefreshHz
			}
		}
	}
	return want
}

// Resize sets the client size. It only applies in the windowed state.
func (m *Manager) Resize(width, height int) error {
	if m.state != StateWindowed {
		return nil
	}
	return m.place(m.client.Resize(width, height))
}

// Move places the client origin at (x, y). It only applies in the windowed state.
func (m *Manager) Move(x, y int) error {
	if m.state != StateWindowed {
		return nil
	}
	return m.place(m.client.MoveTo(x, y))
}

func (m *Manager) place(client geom.Rect) error {
	outer := client.Expand(m.host.FrameInsets(m.style))
	if err := m.host.SetWindowRect(m.handle, outer); err != nil {
		return fmt.Errorf("failed to place window: %w", err)
	}
	m.client = client
	m.refreshClient()
	m.windowed = m.client
	return nil
}

// refreshClient reloads the client rect from the host, which may have
// clamped the requested geometry.
func (m *Manager) refreshClient() {
	rect, err := m.host.ClientRect(m.handle)
	if err != nil {
		m.logger.Debug("client rect query failed", "error", err)
		return
	}
	m.client = rect
}

// UpdateClientSize records a host-reported client size and returns whether
// it differs from the cached one.
func (m *Manager) UpdateClientSize(width, height int) bool {
	if m.client.Width() == width && m.client.Height() == height {
		return false
	}
	m.client = m.client.Resize(width, height)
	return true
}

// UpdateClientOrigin records a host-reported client origin and returns
// whether it differs from the cached one.
func (m *Manager) UpdateClientOrigin(x, y int) bool {
	if m.client.Left == x && m.client.Top == y {
		return false
	}
	m.client = m.client.MoveTo(x, y)
	return true
}

// CommitWindowed keeps the cached client rect as the rect restored when
// leaving maximized, minimized or fullscreen. It only takes effect while
// windowed and runs after a whole batch of host reports, because a window
// manager reports the maximized geometry before the state change.
func (m *Manager) CommitWindowed() {
	if m.state == StateWindowed {
		m.windowed = m.client
	}
}

// SyncState records a state change the user made through the host
// (minimize button, double click on the caption). Fullscreen is only
// entered and left through SetState, so host reports never touch it.
func (m *Manager) SyncState(cmd host.ShowCommand) bool {
	if !m.state.Live() || m.state == StateFullscreen {
		return false
	}
	next := stateFromShow(cmd)
	if next == StateFullscreen || next == m.state {
		return false
	}
	m.logger.Debug("host state change", "from", m.state.String(), "to", next.String())
	m.state = next
	return true
}

// Close restores any fullscreen display mode, destroys the window and
// releases the class. Calling it again is a no-op.
func (m *Manager) Close() error {
	if !m.state.Live() {
		return nil
	}

	var errs []error
	if m.state == StateFullscreen {
		if err := m.ctx.Displays().Restore(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.host.DestroyWindow(m.handle); err != nil {
		errs = append(errs, fmt.Errorf("failed to destroy window: %w", err))
	}
	if err := m.ctx.ReleaseClass(m.className); err != nil {
		errs = append(errs, err)
	}
	m.ctx.Release()

	m.logger.Info("window closed", "handle", m.handle)
	m.handle = 0
	m.state = StateUninitialized
	m.client = geom.Rect{}
	m.windowed = geom.Rect{}
	return errors.Join(errs...)
}
