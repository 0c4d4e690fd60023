package displaymode

import (
	"errors"
	"testing"

	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/hosttest"
)

func TestClosest(t *testing.T) {
	modes := []host.DisplayMode{
		{Width: 1920, Height: 1080, BitsPerPixel: 32, RefreshHz: 60},
		{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 60},
		{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 120},
		{Width: 1024, Height: 768, BitsPerPixel: 16, RefreshHz: 60},
	}

	tests := []struct {
		name string
		want host.DisplayMode
		got  host.DisplayMode
	}{
		{
			name: "exact",
			want: host.DisplayMode{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 120},
			got:  host.DisplayMode{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 120},
		},
		{
			name: "bpp beats area",
			want: host.DisplayMode{Width: 1024, Height: 768, BitsPerPixel: 32, RefreshHz: 60},
			got:  host.DisplayMode{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 60},
		},
		{
			name: "refresh breaks area tie",
			want: host.DisplayMode{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 100},
			got:  host.DisplayMode{Width: 1280, Height: 720, BitsPerPixel: 32, RefreshHz: 120},
		},
		{
			name: "no bpp match falls back to area",
			want: host.DisplayMode{Width: 1900, Height: 1000, BitsPerPixel: 8, RefreshHz: 60},
			got:  host.DisplayMode{Width: 1920, Height: 1080, BitsPerPixel: 32, RefreshHz: 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(modes, tt.want)
			if !ok {
				t.Fatalf("expected a mode")
			}
			if got != tt.got {
				t.Fatalf("expected %s, got %s", tt.got, got)
			}
		})
	}

	if _, ok := Closest(nil, modes[0]); ok {
		t.Fatalf("expected no mode from empty list")
	}
}

func TestApply_CapturesOriginalOnce(t *testing.T) {
	h := hosttest.New()
	c := NewController(h, nil)
	original := h.Current

	if _, err := c.Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Apply(host.DisplayMode{Width: 640, Height: 480, BitsPerPixel: 32, RefreshHz: 75}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := c.Original()
	if !ok || got != original {
		t.Fatalf("expected original %s, got %s (captured=%t)", original, got, ok)
	}

	if err := c.Restore(); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	if h.Current != original {
		t.Fatalf("expected current %s after restore, got %s", original, h.Current)
	}
	if _, ok := c.Original(); ok {
		t.Fatalf("expected capture cleared after restore")
	}
}

func TestRestore_RefusedKeepsCapture(t *testing.T) {
	h := hosttest.New()
	c := NewController(h, nil)
	original := h.Current

	if _, err := c.Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	modes := h.Modes
	h.Modes = modes[1:]

	if err := c.Restore(); !errors.Is(err, ErrModeRejected) {
		t.Fatalf("expected ErrModeRejected, got %v", err)
	}
	if got, ok := c.Original(); !ok || got != original {
		t.Fatalf("expected %s still captured, got %s (captured=%t)", original, got, ok)
	}
	if c.Restores() != 0 {
		t.Fatalf("expected 0 restores, got %d", c.Restores())
	}

	h.Modes = modes
	if err := c.Restore(); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if h.Current != original || c.Restores() != 1 {
		t.Fatalf("expected %s after one restore, got %s (restores=%d)", original, h.Current, c.Restores())
	}
}

func TestRestore_NoopWithoutCapture(t *testing.T) {
	h := hosttest.New()
	c := NewController(h, nil)

	if err := c.Restore(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.ModeChanges) != 0 {
		t.Fatalf("expected no mode changes, got %v", h.ModeChanges)
	}
	if c.Restores() != 0 {
		t.Fatalf("expected 0 restores, got %d", c.Restores())
	}
}

func TestApply_Errors(t *testing.T) {
	h := hosttest.New()
	h.ModeError = host.ErrModeChangeRestart
	c := NewController(h, nil)

	_, err := c.Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60})
	if !errors.Is(err, ErrModePending) {
		t.Fatalf("expected ErrModePending, got %v", err)
	}
	if _, ok := c.Original(); ok {
		t.Fatalf("failed apply must not capture")
	}

	h.ModeError = host.ErrModeChangeFailed
	_, err = c.Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60})
	if !errors.Is(err, ErrModeRejected) {
		t.Fatalf("expected ErrModeRejected, got %v", err)
	}

	h.ModeError = nil
	h.Modes = nil
	_, err = c.Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60})
	if !errors.Is(err, ErrModeRejected) {
		t.Fatalf("expected ErrModeRejected for empty mode list, got %v", err)
	}
}

func TestEnumerate_QueriesFreshEachCall(t *testing.T) {
	h := hosttest.New()
	c := NewController(h, nil)

	first, err := c.Enumerate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Modes = h.Modes[:1]
	second, err := c.Enumerate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) == len(second) {
		t.Fatalf("expected enumeration to reflect host changes, got %d and %d", len(first), len(second))
	}
}
