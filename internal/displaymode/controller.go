// Package displaymode enumerates, switches and restores the resolution of
// the primary display for fullscreen sessions.
package displaymode

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/winbridge/internal/host"
)

var (
	// ErrModeRejected is returned when no mode could be applied.
	ErrModeRejected = errors.New("display mode rejected")
	// ErrModePending is returned when the host accepted a mode that only
	// takes effect after a restart. The display is left unchanged.
	ErrModePending = errors.New("display mode change pending restart")
)

// Controller applies display modes and remembers the mode to restore.
// It is owned by the process-wide session and is not safe for concurrent use.
type Controller struct {
	displays host.Displays
	logger   *slog.Logger

	original host.DisplayMode
	captured bool
	restores int
}

// NewController creates a controller over a host display binding.
func NewController(displays host.Displays, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{displays: displays, logger: logger}
}

// Enumerate queries the host for its current mode list. The list is not
// cached: drivers may add or remove modes between calls.
func (c *Controller) Enumerate() ([]host.DisplayMode, error) {
	modes, err := c.displays.DisplayModes()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate display modes: %w", err)
	}
	return modes, nil
}

// Current returns the active display mode.
func (c *Controller) Current() (host.DisplayMode, error) {
	mode, err := c.displays.CurrentDisplayMode()
	if err != nil {
		return host.DisplayMode{}, fmt.Errorf("failed to query display mode: %w", err)
	}
	return mode, nil
}

// Original returns the captured mode, if any.
func (c *Controller) Original() (host.DisplayMode, bool) {
	return c.original, c.captured
}

// Restores reports how many times a captured mode has been reapplied.
func (c *Controller) Restores() int {
	return c.restores
}

// Apply switches to want, or to the closest available mode when want is
// not offered. The mode active before the first successful switch is
// captured for Restore. Returns the mode actually applied.
func (c *Controller) Apply(want host.DisplayMode) (host.DisplayMode, error) {
	modes, err := c.Enumerate()
	if err != nil {
		return host.DisplayMode{}, fmt.Errorf("%w: %v", ErrModeRejected, err)
	}
	target, ok := Closest(modes, want)
	if !ok {
		return host.DisplayMode{}, fmt.Errorf("%w: host offers no display modes", ErrModeRejected)
	}

	before, err := c.Current()
	if err != nil {
		return host.DisplayMode{}, fmt.Errorf("%w: %v", ErrModeRejected, err)
	}

	if err := c.displays.SetDisplayMode(target); err != nil {
		if errors.Is(err, host.ErrModeChangeRestart) {
			return host.DisplayMode{}, fmt.Errorf("%w: %s", ErrModePending, target)
		}
		return host.DisplayMode{}, fmt.Errorf("%w: %s: %v", ErrModeRejected, target, err)
	}

	if !c.captured {
		c.original = before
		c.captured = true
	}
	if target != want {
		c.logger.Info("display mode substituted", "requested", want.String(), "applied", target.String())
	} else {
		c.logger.Debug("display mode applied", "mode", target.String())
	}
	return target, nil
}

// Restore reapplies the captured mode and forgets it. Without a capture it
// does nothing. When the host refuses, the capture is kept so a later exit
// path retries, and the error wraps ErrModeRejected.
func (c *Controller) Restore() error {
	if !c.captured {
		return nil
	}
	original := c.original
	if err := c.displays.SetDisplayMode(original); err != nil {
		return fmt.Errorf("%w: failed to restore %s: %v", ErrModeRejected, original, err)
	}
	c.captured = false
	c.original = host.DisplayMode{}
	c.restores++
	c.logger.Debug("display mode restored", "mode", original.String())
	return nil
}

// Closest returns want when modes contains it exactly. Otherwise modes are
// ranked by matching bits per pixel, then the smallest difference in area,
// then the smallest difference in refresh rate.
func Closest(modes []host.DisplayMode, want host.DisplayMode) (host.DisplayMode, bool) {
	if len(modes) == 0 {
		return host.DisplayMode{}, false
	}
	for _, m := range modes {
		if m == want {
			return m, true
		}
	}

	ranked := append([]host.DisplayMode(nil), modes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		aSame, bSame := a.BitsPerPixel == want.BitsPerPixel, b.BitsPerPixel == want.BitsPerPixel
		if aSame != bSame {
			return aSame
		}
		if da, db := abs(a.Area()-want.Area()), abs(b.Area()-want.Area()); da != db {
			return da < db
		}
		return abs(a.RefreshHz-want.RefreshHz) < abs(b.RefreshHz-want.RefreshHz)
	})
	return ranked[0], true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
