package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

// Mode flags from the RandR protocol that change the effective refresh.
const (
	modeFlagInterlace  = 1 << 4
	modeFlagDoubleScan = 1 << 5
)

// monitor is an output with an active CRTC.
type monitor struct {
	Name      string
	output    randr.Output
	crtc      randr.Crtc
	info      *randr.GetCrtcInfoReply
	bounds    geom.Rect
	modes     []randr.Mode
	resources *randr.GetScreenResourcesReply
}

// activeMonitors lists outputs with an active CRTC, primary first.
func (h *Host) activeMonitors() ([]*monitor, error) {
	if !h.randrReady {
		return nil, fmt.Errorf("%w: randr", host.ErrUnsupported)
	}
	conn := h.xu.Conn()
	resources, err := randr.GetScreenResources(conn, h.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var candidates []randr.Output
	if primary, err := randr.GetOutputPrimary(conn, h.root).Reply(); err == nil && primary.Output != 0 {
		candidates = append(candidates, primary.Output)
	}
	candidates = append(candidates, resources.Outputs...)

	seen := make(map[randr.Crtc]bool)
	var monitors []*monitor
	for _, output := range candidates {
		outputInfo, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil || outputInfo.Crtc == 0 || seen[outputInfo.Crtc] {
			continue
		}
		crtcInfo, err := randr.GetCrtcInfo(conn, outputInfo.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil || crtcInfo.Width == 0 || crtcInfo.Height == 0 {
			continue
		}
		seen[outputInfo.Crtc] = true
		monitors = append(monitors, &monitor{
			Name:      string(outputInfo.Name),
			output:    output,
			crtc:      outputInfo.Crtc,
			info:      crtcInfo,
			bounds:    geom.FromSize(int(crtcInfo.X), int(crtcInfo.Y), int(crtcInfo.Width), int(crtcInfo.Height)),
			modes:     outputInfo.Modes,
			resources: resources,
		})
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors found")
	}
	return monitors, nil
}

// controlledMonitor picks the output whose mode the bridge changes. Once a
// mode has been set the same CRTC stays controlled, so the restore lands on
// it even after the window moved. Otherwise the monitor under the window's
// center wins, then the primary output.
func (h *Host) controlledMonitor() (*monitor, error) {
	monitors, err := h.activeMonitors()
	if err != nil {
		return nil, err
	}
	if h.pinned != 0 {
		for _, m := range monitors {
			if m.crtc == h.pinned {
				return m, nil
			}
		}
		h.logger.Warn("controlled crtc disappeared", "crtc", h.pinned)
	}
	if center, ok := h.windowCenter(); ok {
		if m := monitorAt(monitors, center); m != nil {
			return m, nil
		}
	}
	return monitors[0], nil
}

// windowCenter returns the center of the cached client rect of the live
// window.
func (h *Host) windowCenter() (geom.Point, bool) {
	for _, w := range h.windows {
		if w.client.Empty() {
			continue
		}
		return geom.Point{
			X: w.client.Left + w.client.Width()/2,
			Y: w.client.Top + w.client.Height()/2,
		}, true
	}
	return geom.Point{}, false
}

func monitorAt(monitors []*monitor, p geom.Point) *monitor {
	for _, m := range monitors {
		if m.bounds.Contains(p.X, p.Y) {
			return m
		}
	}
	return nil
}

func (m *monitor) modeInfo(id randr.Mode) (randr.ModeInfo, bool) {
	for _, mi := range m.resources.Modes {
		if randr.Mode(mi.Id) == id {
			return mi, true
		}
	}
	return randr.ModeInfo{}, false
}

func (h *Host) toDisplayMode(mi randr.ModeInfo) host.DisplayMode {
	return host.DisplayMode{
		Width:        int(mi.Width),
		Height:       int(mi.Height),
		BitsPerPixel: h.bpp,
		RefreshHz:    refreshRate(mi.DotClock, mi.Htotal, mi.Vtotal, mi.ModeFlags),
	}
}

// refreshRate derives the vertical refresh in whole hertz from the mode
// timings.
func refreshRate(dotClock uint32, htotal, vtotal uint16, flags uint32) int {
	v := float64(vtotal)
	if flags&modeFlagDoubleScan != 0 {
		v *= 2
	}
	if flags&modeFlagInterlace != 0 {
		v /= 2
	}
	if htotal == 0 || v == 0 {
		return 0
	}
	return int(math.Round(float64(dotClock) / (float64(htotal) * v)))
}

// DisplayModes lists the modes of the controlled output, without
// duplicates. X cannot change color depth at runtime, so every mode
// carries the screen's bits per pixel.
func (h *Host) DisplayModes() ([]host.DisplayMode, error) {
	m, err := h.controlledMonitor()
	if err != nil {
		return nil, err
	}
	seen := make(map[host.DisplayMode]bool)
	var out []host.DisplayMode
	for _, id := range m.modes {
		mi, ok := m.modeInfo(id)
		if !ok {
			continue
		}
		mode := h.toDisplayMode(mi)
		if seen[mode] {
			continue
		}
		seen[mode] = true
		out = append(out, mode)
	}
	return out, nil
}

func (h *Host) CurrentDisplayMode() (host.DisplayMode, error) {
	m, err := h.controlledMonitor()
	if err != nil {
		return host.DisplayMode{}, err
	}
	mi, ok := m.modeInfo(m.info.Mode)
	if !ok {
		return host.DisplayMode{}, fmt.Errorf("crtc mode %d not in screen resources", m.info.Mode)
	}
	return h.toDisplayMode(mi), nil
}

// SetDisplayMode reprograms the controlled CRTC, keeping its position,
// rotation and outputs.
func (h *Host) SetDisplayMode(want host.DisplayMode) error {
	m, err := h.controlledMonitor()
	if err != nil {
		return err
	}
	if want.BitsPerPixel != h.bpp {
		return fmt.Errorf("%w: depth %d unavailable (screen is %d bpp)", host.ErrModeChangeFailed, want.BitsPerPixel, h.bpp)
	}

	var target randr.Mode
	for _, id := range m.modes {
		if mi, ok := m.modeInfo(id); ok && h.toDisplayMode(mi) == want {
			target = id
			break
		}
	}
	if target == 0 {
		return fmt.Errorf("%w: %s not offered by %s", host.ErrModeChangeFailed, want, m.Name)
	}
	if target == m.info.Mode {
		h.pinned = m.crtc
		return nil
	}

	reply, err := randr.SetCrtcConfig(h.xu.Conn(), m.crtc, xproto.TimeCurrentTime,
		m.resources.ConfigTimestamp, m.info.X, m.info.Y, target, m.info.Rotation, m.info.Outputs).Reply()
	if err != nil {
		return fmt.Errorf("%w: %v", host.ErrModeChangeFailed, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("%w: %s rejected with status %d", host.ErrModeChangeFailed, want, reply.Status)
	}
	h.pinned = m.crtc
	h.logger.Debug("crtc reconfigured", "output", m.Name, "mode", want.String())
	return nil
}

// DisplayBounds returns the screen rect of the controlled output.
func (h *Host) DisplayBounds() (geom.Rect, error) {
	m, err := h.controlledMonitor()
	if err != nil {
		return geom.Rect{}, err
	}
	return m.bounds, nil
}
