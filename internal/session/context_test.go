package session

import (
	"errors"
	"testing"

	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/hosttest"
)

func TestAcquire_SingleWindow(t *testing.T) {
	ctx := New(hosttest.New(), nil)

	if err := ctx.Acquire(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctx.Acquire(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
	ctx.Release()
	if err := ctx.Acquire(); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

func TestClassRegistry_RegistersOnce(t *testing.T) {
	h := hosttest.New()
	ctx := New(h, nil)

	for i := 0; i < 3; i++ {
		if err := ctx.RetainClass("surface"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if h.RegisterCalls != 1 {
		t.Fatalf("expected 1 register call, got %d", h.RegisterCalls)
	}
	if ctx.ClassRefs("surface") != 3 {
		t.Fatalf("expected 3 refs, got %d", ctx.ClassRefs("surface"))
	}

	for i := 0; i < 2; i++ {
		if err := ctx.ReleaseClass("surface"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if h.UnregisterCalls != 0 {
		t.Fatalf("expected class kept while referenced, got %d unregister calls", h.UnregisterCalls)
	}
	if err := ctx.ReleaseClass("surface"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.UnregisterCalls != 1 || h.Registered["surface"] {
		t.Fatalf("expected class unregistered once, calls=%d", h.UnregisterCalls)
	}

	// Releasing an unknown class is a no-op.
	if err := ctx.ReleaseClass("surface"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.UnregisterCalls != 1 {
		t.Fatalf("expected no extra unregister, got %d", h.UnregisterCalls)
	}
}

func TestTeardown_RestoresDisplayMode(t *testing.T) {
	h := hosttest.New()
	ctx := New(h, nil)
	original := h.Current

	if _, err := ctx.Displays().Apply(host.DisplayMode{Width: 800, Height: 600, BitsPerPixel: 32, RefreshHz: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctx.RetainClass("surface"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ctx.Teardown(); err != nil {
		t.Fatalf("unexpected teardown error: %v", err)
	}
	if h.Current != original {
		t.Fatalf("expected %s restored, got %s", original, h.Current)
	}
	if h.Registered["surface"] {
		t.Fatalf("expected class unregistered on teardown")
	}
	if err := ctx.Teardown(); err != nil {
		t.Fatalf("second teardown should be a no-op, got %v", err)
	}
	if err := ctx.Acquire(); !errors.Is(err, ErrTornDown) {
		t.Fatalf("expected ErrTornDown, got %v", err)
	}
}
