package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winbridge/internal/geom"
)

// CursorPos queries the pointer position relative to the root window.
func (h *Host) CursorPos() (geom.Point, error) {
	reply, err := xproto.QueryPointer(h.xu.Conn(), h.root).Reply()
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to query pointer: %w", err)
	}
	return geom.Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

// SetCursorPos warps the pointer to root coordinates (x, y). The server
// reports the warp as ordinary motion.
func (h *Host) SetCursorPos(x, y int) error {
	if !fitsCoord(x) || !fitsCoord(y) {
		return fmt.Errorf("cursor position (%d,%d) outside the X coordinate range", x, y)
	}
	err := xproto.WarpPointerChecked(h.xu.Conn(), xproto.WindowNone, h.root,
		0, 0, 0, 0, int16(x), int16(y)).Check()
	if err != nil {
		return fmt.Errorf("failed to warp pointer: %w", err)
	}
	return nil
}

func fitsCoord(v int) bool {
	return v >= math.MinInt16 && v <= math.MaxInt16
}
