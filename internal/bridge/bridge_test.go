package bridge

import (
	"errors"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/displaymode"
	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/hosttest"
	"github.com/1broseidon/winbridge/internal/pixelformat"
	"github.com/1broseidon/winbridge/internal/pointer"
	"github.com/1broseidon/winbridge/internal/session"
	"github.com/1broseidon/winbridge/internal/window"
)

func openBridge(t *testing.T, h *hosttest.Host, mutate func(*config.Config)) (*Bridge, *session.Context) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	ctx := session.New(h, nil)
	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Close()
		_ = ctx.Teardown()
	})
	return b, ctx
}

func TestOpen_WindowedDefaults(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, _ := openBridge(t, h, nil)

	if w, hgt := b.ClientSize(); w != 800 || hgt != 600 {
		t.Fatalf("expected client 800x600, got %dx%d", w, hgt)
	}
	if b.State() != window.StateWindowed {
		t.Fatalf("expected windowed, got %s", b.State())
	}
	events, err := b.PollEvents()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events after open, got %d", len(events))
	}
	if got := b.NegotiatedFormat().ID; got != 2 {
		t.Fatalf("expected pixel format 2, got %d", got)
	}
	s := b.Surface()
	if s.Handle == 0 || s.Format.ID != 2 || h.ContextsLive != 1 {
		t.Fatalf("unexpected surface %+v (live contexts %d)", s, h.ContextsLive)
	}
}

func TestOpen_SecondOpenRejected(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	_, ctx := openBridge(t, h, nil)

	_, err := Open(ctx, config.Default())
	if !errors.Is(err, session.ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
	if h.Windows() != 1 {
		t.Fatalf("expected one window, got %d", h.Windows())
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 0
	_, err := Open(session.New(hosttest.New(), nil), cfg)
	var verr *config.ValidationError
	if !errors.As(err, &verr) || verr.Path != "width" {
		t.Fatalf("expected width validation error, got %v", err)
	}
}

func TestOpen_CreateFailureIsFatal(t *testing.T) {
	h := hosttest.New()
	h.FailCreate = true

	_, err := Open(session.New(h, nil), nil)
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if IsRecoverable(err) {
		t.Fatalf("create failure must not be recoverable")
	}
}

func TestOpen_NoCompatibleFormatReleasesWindow(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	h.Formats = []host.PixelFormat{{ID: 9, ColorBits: 24, DepthBits: 24}}
	ctx := session.New(h, nil)

	_, err := Open(ctx, nil)
	if !errors.Is(err, pixelformat.ErrNoCompatibleFormat) || !IsRecoverable(err) {
		t.Fatalf("expected recoverable ErrNoCompatibleFormat, got %v", err)
	}
	if h.Windows() != 0 {
		t.Fatalf("expected window to be destroyed, %d remain", h.Windows())
	}

	h.Formats = hosttest.New().Formats
	b, err := Open(ctx, nil)
	if err != nil {
		t.Fatalf("expected reopen to succeed, got %v", err)
	}
	_ = b.Close()
}

func TestOpen_PointerSource(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tests := []struct {
		name   string
		raw    bool
		prefer bool
		want   pointer.Source
	}{
		{"raw available and preferred", true, true, pointer.SourceRaw},
		{"raw available not preferred", true, false, pointer.SourceLegacy},
		{"raw unavailable", false, true, pointer.SourceLegacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hosttest.New()
			h.Raw = tt.raw
			b, _ := openBridge(t, h, func(c *config.Config) { c.PreferRawInput = tt.prefer })
			if b.PointerSource() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, b.PointerSource())
			}
			if h.RawEnabled != (tt.want == pointer.SourceRaw) {
				t.Fatalf("raw registration mismatch: enabled=%v", h.RawEnabled)
			}
		})
	}
}

func TestFullscreen_RoundTripRestoresMode(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	original := h.Current
	b, ctx := openBridge(t, h, nil)

	if err := b.SetState(window.StateFullscreen); err != nil {
		t.Fatalf("enter fullscreen: %v", err)
	}
	want := host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60}
	if h.Current != want {
		t.Fatalf("expected mode %s, got %s", want, h.Current)
	}
	if err := b.SetState(window.StateWindowed); err != nil {
		t.Fatalf("leave fullscreen: %v", err)
	}
	if h.Current != original {
		t.Fatalf("expected mode %s restored, got %s", original, h.Current)
	}
	if n := ctx.Displays().Restores(); n != 1 {
		t.Fatalf("expected exactly one restore, got %d", n)
	}
}

func TestOpen_FullscreenFromConfig(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	original := h.Current
	ctx := session.New(h, nil)
	cfg := config.Default()
	cfg.Fullscreen = true
	cfg.FullscreenMode.RefreshHz = 75
	cfg.Width, cfg.Height = 640, 480

	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.State() != window.StateFullscreen {
		t.Fatalf("expected fullscreen, got %s", b.State())
	}
	if h.Current.RefreshHz != 75 || h.Current.Width != 640 {
		t.Fatalf("expected 640x480@75, got %s", h.Current)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if h.Current != original {
		t.Fatalf("expected close to restore %s, got %s", original, h.Current)
	}
}

func TestOpen_FullscreenRefusedStaysWindowed(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	h.ModeError = fmt.Errorf("driver says no")
	b, _ := openBridge(t, h, func(c *config.Config) { c.Fullscreen = true })

	if b.State() != window.StateWindowed {
		t.Fatalf("expected windowed fallback, got %s", b.State())
	}
	err := b.SetState(window.StateFullscreen)
	if !errors.Is(err, displaymode.ErrModeRejected) || !IsRecoverable(err) {
		t.Fatalf("expected recoverable ErrModeRejected, got %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, err := Open(session.New(h, nil), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if h.Windows() != 0 || h.ContextsLive != 0 || h.DestroyCalls != 1 {
		t.Fatalf("expected one destroy and no leaks, got windows=%d contexts=%d destroys=%d",
			h.Windows(), h.ContextsLive, h.DestroyCalls)
	}
	if _, err := b.PollEvents(); !errors.Is(err, window.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after close, got %v", err)
	}
	if err := b.Present(); !errors.Is(err, window.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen from Present, got %v", err)
	}
}

func TestPollEvents_TranslatesInput(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, _ := openBridge(t, h, func(c *config.Config) { c.PreferRawInput = false })
	hw := b.Surface().Handle

	h.Post(hw, host.Notification{Kind: host.NotifyKeyDown, Key: 0x41})
	h.Post(hw, host.Notification{Kind: host.NotifyChar, Rune: 'a'})
	h.Post(hw, host.Notification{Kind: host.NotifyCloseRequest})

	events, err := b.PollEvents()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if kd, ok := events[0].(event.KeyDown); !ok || kd.Code != 0x41 {
		t.Fatalf("expected key-down 0x41, got %s", event.Describe(events[0]))
	}
	if events[2].Kind() != event.KindClose {
		t.Fatalf("expected close last, got %s", events[2].Kind())
	}
	if b.State() != window.StateWindowed {
		t.Fatalf("close request must not close the window")
	}
}

func TestWaitEvents_TimeoutAndWake(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, _ := openBridge(t, h, nil)

	events, err := b.WaitEvents(10 * time.Millisecond)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty timeout, got %d events err=%v", len(events), err)
	}

	hw := b.Surface().Handle
	go func() {
		time.Sleep(5 * time.Millisecond)
		h.Post(hw, host.Notification{Kind: host.NotifyFocus, Focused: true})
	}()
	events, err = b.WaitEvents(2 * time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(events) != 1 || events[0].Kind() != event.KindFocusGained {
		t.Fatalf("expected focus-gained, got %v", events)
	}
}

func TestResizeAndPresent(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, _ := openBridge(t, h, nil)

	if err := b.Resize(1024, 768); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if w, hgt := b.ClientSize(); w != 1024 || hgt != 768 {
		t.Fatalf("expected 1024x768, got %dx%d", w, hgt)
	}
	if err := b.Present(); err != nil {
		t.Fatalf("present: %v", err)
	}
	if h.SwapCalls != 1 {
		t.Fatalf("expected one swap, got %d", h.SwapCalls)
	}
	modes, err := b.Modes()
	if err != nil || len(modes) != len(h.Modes) {
		t.Fatalf("expected %d modes, got %d err=%v", len(h.Modes), len(modes), err)
	}
}

func TestCursor_ClientCoordinates(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, _ := openBridge(t, h, nil)
	client := b.win.ClientRect()

	h.Pointer = geom.Point{X: client.Left + 30, Y: client.Top + 40}
	x, y, err := b.CursorPos()
	if err != nil || x != 30 || y != 40 {
		t.Fatalf("expected (30,40), got (%d,%d) err=%v", x, y, err)
	}

	w, hgt := b.ClientSize()
	if err := b.SetCursorPos(w/2, hgt/2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (geom.Point{X: client.Left + w/2, Y: client.Top + hgt/2}); h.Pointer != want || h.WarpCalls != 1 {
		t.Fatalf("expected pointer at %+v after one warp, got %+v (%d warps)", want, h.Pointer, h.WarpCalls)
	}

	h.FailCursor = errors.New("no pointer")
	if _, _, err := b.CursorPos(); err == nil {
		t.Fatalf("expected cursor query error")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.SetCursorPos(0, 0); !errors.Is(err, window.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after close, got %v", err)
	}
}

func TestFullscreen_RestoreRefusedIsRecoverable(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := hosttest.New()
	b, ctx := openBridge(t, h, nil)
	original := h.Current
	if err := b.SetState(window.StateFullscreen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	modes := h.Modes
	h.Modes = modes[1:]
	err := b.SetState(window.StateWindowed)
	if !IsRecoverable(err) {
		t.Fatalf("expected recoverable error, got %v", err)
	}
	if b.State() != window.StateFullscreen {
		t.Fatalf("expected fullscreen kept, got %s", b.State())
	}

	h.Modes = modes
	if err := b.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := ctx.Teardown(); err != nil {
		t.Fatalf("unexpected teardown error: %v", err)
	}
	if h.Current != original {
		t.Fatalf("expected %s restored, got %s", original, h.Current)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err         error
		fatal       bool
		recoverable bool
	}{
		{fmt.Errorf("open: %w", window.ErrWindowCreateFailed), true, false},
		{fmt.Errorf("open: %w", ErrContextCreateFailed), true, false},
		{fmt.Errorf("fs: %w", displaymode.ErrModeRejected), false, true},
		{fmt.Errorf("fs: %w", displaymode.ErrModePending), false, true},
		{pixelformat.ErrNoCompatibleFormat, false, true},
		{session.ErrAlreadyOpen, false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		if IsFatal(tt.err) != tt.fatal || IsRecoverable(tt.err) != tt.recoverable {
			t.Fatalf("classification mismatch for %v: fatal=%v recoverable=%v",
				tt.err, IsFatal(tt.err), IsRecoverable(tt.err))
		}
	}
}
