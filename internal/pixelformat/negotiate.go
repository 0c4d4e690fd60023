// Package pixelformat chooses a framebuffer configuration for a rendering
// surface from the formats a host offers.
package pixelformat

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/1broseidon/winbridge/internal/host"
)

// ErrNoCompatibleFormat is returned when no candidate satisfies the hard
// requirements, even after relaxing hardware acceleration.
var ErrNoCompatibleFormat = errors.New("no compatible pixel format")

// Request lists the attributes a client asks for.
type Request struct {
	ColorBits      int
	DepthBits      int
	StencilBits    int
	SampleCount    int
	DoubleBuffered bool
	Accelerated    bool
}

// Negotiator ranks host pixel formats against a Request.
type Negotiator struct {
	logger *slog.Logger
}

// NewNegotiator creates a negotiator. A nil logger discards diagnostics.
func NewNegotiator(logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Negotiator{logger: logger}
}

// Negotiate returns the best candidate for req. When no accelerated format
// passes the filter, the acceleration requirement is dropped once.
func (n *Negotiator) Negotiate(candidates []host.PixelFormat, req Request) (host.PixelFormat, error) {
	matching := filter(candidates, req)
	if len(matching) == 0 && req.Accelerated {
		n.logger.Warn("no accelerated pixel format, relaxing acceleration",
			"candidates", len(candidates))
		relaxed := req
		relaxed.Accelerated = false
		matching = filter(candidates, relaxed)
	}
	if len(matching) == 0 {
		return host.PixelFormat{}, ErrNoCompatibleFormat
	}

	Rank(matching, req)
	best := matching[0]
	n.logger.Debug("pixel format negotiated", "format", best.String())
	return best, nil
}

func filter(candidates []host.PixelFormat, req Request) []host.PixelFormat {
	out := make([]host.PixelFormat, 0, len(candidates))
	for _, pf := range candidates {
		if req.DoubleBuffered && !pf.DoubleBuffered {
			continue
		}
		if req.Accelerated && !pf.Accelerated {
			continue
		}
		out = append(out, pf)
	}
	return out
}

// Rank sorts formats best-first for req: depth at or above the request
// (exact preferred), then color at or above the request, then the closest
// sample count, then stencil at or above the request. Remaining ties keep
// the lower format ID first.
func Rank(formats []host.PixelFormat, req Request) {
	sort.SliceStable(formats, func(i, j int) bool {
		return better(formats[i], formats[j], req)
	})
}

func better(a, b host.PixelFormat, req Request) bool {
	if c := compareAtLeast(a.DepthBits, b.DepthBits, req.DepthBits); c != 0 {
		return c < 0
	}
	if c := compareAtLeast(a.ColorBits, b.ColorBits, req.ColorBits); c != 0 {
		return c < 0
	}
	if da, db := abs(a.SampleCount-req.SampleCount), abs(b.SampleCount-req.SampleCount); da != db {
		return da < db
	}
	if c := compareAtLeast(a.StencilBits, b.StencilBits, req.StencilBits); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// compareAtLeast orders two attribute values against a minimum. Values that
// meet the minimum come first, the smallest surplus winning. Among values
// below the minimum, the closest one wins. Returns -1 when a is better.
func compareAtLeast(a, b, want int) int {
	aOK, bOK := a >= want, b >= want
	switch {
	case aOK && !bOK:
		return -1
	case !aOK && bOK:
		return 1
	}
	da, db := abs(a-want), abs(b-want)
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
