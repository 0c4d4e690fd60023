package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/motif"

	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

func visualConfig(id, class, rgba, alpha, dbl, buffer, depth, stencil, level uint32, extra ...uint32) []uint32 {
	p := make([]uint32, coreProps)
	p[propVisualID] = id
	p[propClass] = class
	p[propRGBA] = rgba
	p[propRedSize], p[propGreenSize], p[propBlueSize] = 8, 8, 8
	p[propAlphaSize] = alpha
	p[propDoubleBuffer] = dbl
	p[propBufferSize] = buffer
	p[propDepthSize] = depth
	p[propStencilSize] = stencil
	p[propLevel] = level
	return append(p, extra...)
}

func TestParseVisualConfigs(t *testing.T) {
	const numProps = coreProps + 4
	var props []uint32
	props = append(props, visualConfig(0x21, xproto.VisualClassTrueColor, 1, 8, 1, 32, 24, 8, 0,
		glxSamples, 4, glxVisualCaveat, 0)...)
	props = append(props, visualConfig(0x22, xproto.VisualClassTrueColor, 1, 0, 0, 24, 16, 0, 0,
		glxVisualCaveat, glxSlowVisual, 0, 0)...)
	// Colour-index and overlay visuals are skipped.
	props = append(props, visualConfig(0x23, xproto.VisualClassTrueColor, 0, 0, 1, 8, 0, 0, 0, 0, 0, 0, 0)...)
	props = append(props, visualConfig(0x24, xproto.VisualClassTrueColor, 1, 0, 1, 24, 0, 0, 1, 0, 0, 0, 0)...)
	props = append(props, visualConfig(0x25, xproto.VisualClassPseudoColor, 1, 0, 1, 24, 0, 0, 0, 0, 0, 0, 0)...)

	got := parseVisualConfigs(5, numProps, props)
	if len(got) != 2 {
		t.Fatalf("expected 2 formats, got %d: %+v", len(got), got)
	}

	want := host.PixelFormat{ID: 0x21, ColorBits: 32, AlphaBits: 8, DepthBits: 24, StencilBits: 8,
		SampleCount: 4, DoubleBuffered: true, Accelerated: true}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
	if got[1].ID != 0x22 || got[1].Accelerated || got[1].DoubleBuffered {
		t.Fatalf("expected slow single-buffered 0x22, got %+v", got[1])
	}
}

func TestParseVisualConfigs_Truncated(t *testing.T) {
	props := visualConfig(0x21, xproto.VisualClassTrueColor, 1, 8, 1, 32, 24, 8, 0)
	if got := parseVisualConfigs(3, coreProps, props); len(got) != 1 {
		t.Fatalf("expected truncated list to yield 1 format, got %d", len(got))
	}
	if got := parseVisualConfigs(1, coreProps-1, props); got != nil {
		t.Fatalf("expected nil for short property count, got %+v", got)
	}
}

func TestRefreshRate(t *testing.T) {
	tests := []struct {
		name     string
		clock    uint32
		htotal   uint16
		vtotal   uint16
		flags    uint32
		expected int
	}{
		{"1080p60", 148500000, 2200, 1125, 0, 60},
		{"1080p144", 325080000, 2080, 1111, 0, 141},
		{"interlaced", 74250000, 2200, 1125, modeFlagInterlace, 60},
		{"double scan", 25175000, 800, 525, modeFlagDoubleScan, 30},
		{"zero totals", 148500000, 0, 1125, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refreshRate(tt.clock, tt.htotal, tt.vtotal, tt.flags); got != tt.expected {
				t.Fatalf("expected %d Hz, got %d", tt.expected, got)
			}
		})
	}
}

func TestKeysymRune(t *testing.T) {
	tests := []struct {
		sym      xproto.Keysym
		expected rune
	}{
		{'a', 'a'},
		{' ', ' '},
		{0xe9, 'é'},
		{0x010020ac, '€'},
		{0xff0d, '\r'},
		{0xff08, '\b'},
		{0xffe1, 0}, // Shift_L
		{0xffbe, 0}, // F1
	}
	for _, tt := range tests {
		if got := keysymRune(tt.sym); got != tt.expected {
			t.Fatalf("keysym 0x%x: expected %q, got %q", tt.sym, tt.expected, got)
		}
	}
}

func TestToggleCase(t *testing.T) {
	if toggleCase('q') != 'Q' || toggleCase('Q') != 'q' || toggleCase('1') != '1' {
		t.Fatalf("unexpected case toggling")
	}
}

func TestTranslateButton(t *testing.T) {
	tests := []struct {
		detail xproto.Button
		button event.Button
		wheel  int
		ok     bool
	}{
		{1, event.ButtonLeft, 0, true},
		{2, event.ButtonMiddle, 0, true},
		{3, event.ButtonRight, 0, true},
		{4, 0, 1, true},
		{5, 0, -1, true},
		{6, 0, 0, false},
		{8, event.ButtonX1, 0, true},
		{9, event.ButtonX2, 0, true},
	}
	for _, tt := range tests {
		b, wheel, ok := translateButton(tt.detail)
		if b != tt.button || wheel != tt.wheel || ok != tt.ok {
			t.Fatalf("button %d: expected (%s,%d,%v), got (%s,%d,%v)",
				tt.detail, tt.button, tt.wheel, tt.ok, b, wheel, ok)
		}
	}
}

func TestShowFromStates(t *testing.T) {
	tests := []struct {
		states   []string
		expected host.ShowCommand
	}{
		{nil, host.ShowNormal},
		{[]string{stateMaxVert}, host.ShowNormal},
		{[]string{stateMaxVert, stateMaxHorz}, host.ShowMaximized},
		{[]string{stateMaxVert, stateMaxHorz, stateHidden}, host.ShowMinimized},
		{[]string{"_NET_WM_STATE_ABOVE", stateFullscreen}, host.ShowFullscreen},
	}
	for _, tt := range tests {
		if got := showFromStates(tt.states); got != tt.expected {
			t.Fatalf("%v: expected %s, got %s", tt.states, tt.expected, got)
		}
	}
}

func TestInitialStatesRoundTrip(t *testing.T) {
	for _, cmd := range []host.ShowCommand{host.ShowNormal, host.ShowMaximized, host.ShowMinimized, host.ShowFullscreen} {
		if got := showFromStates(initialStates(cmd)); got != cmd {
			t.Fatalf("expected %s, got %s", cmd, got)
		}
	}
}

func TestMotifDecorations(t *testing.T) {
	if got := motifDecorations(host.FullscreenStyle()); got != motif.DecorationNone {
		t.Fatalf("expected no decorations for popup, got %d", got)
	}
	got := motifDecorations(host.DecoratedStyle())
	if got&motif.DecorationTitle == 0 || got&motif.DecorationBorder == 0 {
		t.Fatalf("expected title and border for decorated style, got %b", got)
	}
	fixed := host.DecoratedStyle().Without(host.StyleResizable)
	if motifDecorations(fixed)&motif.DecorationResizeH != 0 {
		t.Fatalf("expected no resize handles without resizable")
	}
}

func TestFocusRelevant(t *testing.T) {
	if !focusRelevant(xproto.NotifyModeNormal, xproto.NotifyDetailNonlinear) {
		t.Fatalf("expected normal focus change to count")
	}
	if focusRelevant(xproto.NotifyModeGrab, xproto.NotifyDetailNonlinear) {
		t.Fatalf("expected grab focus change to be ignored")
	}
	if focusRelevant(xproto.NotifyModeNormal, xproto.NotifyDetailPointer) {
		t.Fatalf("expected pointer focus detail to be ignored")
	}
}

func TestMonitorAt_WindowCenter(t *testing.T) {
	left := &monitor{Name: "DP-1", bounds: geom.FromSize(0, 0, 1920, 1080)}
	right := &monitor{Name: "HDMI-1", bounds: geom.FromSize(1920, 0, 2560, 1440)}
	monitors := []*monitor{left, right}

	h := &Host{windows: map[host.Handle]*window{
		1: {client: geom.FromSize(2200, 300, 800, 600)},
	}}
	center, ok := h.windowCenter()
	if !ok || center != (geom.Point{X: 2600, Y: 600}) {
		t.Fatalf("expected center (2600,600), got %+v (ok=%t)", center, ok)
	}
	if got := monitorAt(monitors, center); got != right {
		t.Fatalf("expected HDMI-1, got %v", got)
	}
	if got := monitorAt(monitors, geom.Point{X: -10, Y: 5}); got != nil {
		t.Fatalf("expected no monitor off screen, got %s", got.Name)
	}

	empty := &Host{windows: map[host.Handle]*window{}}
	if _, ok := empty.windowCenter(); ok {
		t.Fatalf("expected no center without a window")
	}
}

func TestCheckRect(t *testing.T) {
	tests := []struct {
		rect geom.Rect
		ok   bool
	}{
		{geom.FromSize(100, 100, 800, 600), true},
		{geom.FromSize(-32768, 0, 32767, 10), true},
		{geom.FromSize(40000, 0, 800, 600), false},
		{geom.FromSize(0, -40000, 800, 600), false},
		{geom.FromSize(0, 0, 32768, 600), false},
		{geom.FromSize(0, 0, 800, 70000), false},
	}
	for _, tt := range tests {
		if err := checkRect(tt.rect); (err == nil) != tt.ok {
			t.Fatalf("checkRect(%+v): expected ok=%t, got %v", tt.rect, tt.ok, err)
		}
	}
}
