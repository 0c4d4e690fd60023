package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

const eventMask = xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion | xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow | xproto.EventMaskFocusChange |
	xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange

// window is the X side of one host handle. The X window may be replaced
// when a pixel format needs a different visual; the handle stays.
type window struct {
	xwin     *xwindow.Window
	class    string
	title    string
	style    host.StyleSet
	proc     host.Proc
	client   geom.Rect
	visual   xproto.Visualid
	colormap xproto.Colormap
	format   *host.PixelFormat
	context  *glContext
	mapped   bool
	show     host.ShowCommand
	pressed  map[xproto.Keycode]bool
}

// RegisterClass records a class name. X has no window classes; the name
// becomes WM_CLASS on windows created with it.
func (h *Host) RegisterClass(name string) error {
	if _, ok := h.classes[name]; ok {
		return fmt.Errorf("class %q already registered", name)
	}
	h.classes[name] = 0
	return nil
}

func (h *Host) UnregisterClass(name string) error {
	live, ok := h.classes[name]
	if !ok {
		return fmt.Errorf("class %q not registered", name)
	}
	if live > 0 {
		return host.ErrClassInUse
	}
	delete(h.classes, name)
	return nil
}

// FrameInsets reports the last _NET_FRAME_EXTENTS seen for a decorated
// window. Before the window manager has framed anything they are zero.
func (h *Host) FrameInsets(style host.StyleSet) geom.Insets {
	if !style.Decorated() {
		return geom.Insets{}
	}
	return h.insets
}

func (h *Host) CreateWindow(p host.CreateParams) (host.Handle, error) {
	if _, ok := h.classes[p.ClassName]; !ok {
		return 0, fmt.Errorf("class %q not registered", p.ClassName)
	}

	client := p.Outer.Shrink(h.FrameInsets(p.Style))
	if err := checkRect(client); err != nil {
		return 0, err
	}

	screen := h.xu.Screen()
	w := &window{
		class:   p.ClassName,
		title:   p.Title,
		style:   p.Style,
		proc:    p.Proc,
		client:  client,
		visual:  screen.RootVisual,
		pressed: make(map[xproto.Keycode]bool),
	}
	if err := h.createX(w, screen.RootDepth); err != nil {
		return 0, err
	}

	h.next++
	h.windows[h.next] = w
	h.byXID[w.xwin.Id] = h.next
	h.classes[p.ClassName]++
	return h.next, nil
}

// createX creates the X window for w using w.visual and w.colormap and
// applies every property the handle carries.
func (h *Host) createX(w *window, depth byte) error {
	xwin, err := xwindow.Generate(h.xu)
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}

	width, height := w.client.Size()
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwEventMask)
	values := []uint32{h.xu.Screen().BlackPixel, 0, eventMask}
	if w.colormap != 0 {
		mask |= xproto.CwColormap
		values = append(values, uint32(w.colormap))
	}
	err = xproto.CreateWindowChecked(h.xu.Conn(), depth, xwin.Id, h.root,
		int16(w.client.Left), int16(w.client.Top),
		uint16(max(width, 1)), uint16(max(height, 1)),
		0, xproto.WindowClassInputOutput, w.visual, mask, values).Check()
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.xwin = xwin

	if err := icccm.WmClassSet(h.xu, xwin.Id, &icccm.WmClass{Instance: w.class, Class: w.class}); err != nil {
		h.logger.Debug("WM_CLASS not set", "error", err)
	}
	if err := icccm.WmProtocolsSet(h.xu, xwin.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		xwin.Destroy()
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}
	if err := ewmh.WmWindowTypeSet(h.xu, xwin.Id, []string{"_NET_WM_WINDOW_TYPE_NORMAL"}); err != nil {
		h.logger.Debug("window type not set", "error", err)
	}
	if err := h.setTitle(w, w.title); err != nil {
		h.logger.Debug("title not set", "error", err)
	}
	h.applyStyle(w)
	return nil
}

// checkRect rejects geometry the 16-bit X protocol fields cannot carry.
func checkRect(r geom.Rect) error {
	width, height := r.Size()
	if !fitsCoord(r.Left) || !fitsCoord(r.Top) || width > math.MaxInt16 || height > math.MaxInt16 {
		return fmt.Errorf("window geometry %dx%d at (%d,%d) outside the X coordinate range",
			width, height, r.Left, r.Top)
	}
	return nil
}

func (h *Host) lookup(hw host.Handle) (*window, error) {
	w, ok := h.windows[hw]
	if !ok {
		return nil, host.ErrBadHandle
	}
	return w, nil
}

func (h *Host) DestroyWindow(hw host.Handle) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	delete(h.windows, hw)
	delete(h.byXID, w.xwin.Id)
	h.classes[w.class]--

	w.xwin.Destroy()
	if w.colormap != 0 {
		xproto.FreeColormap(h.xu.Conn(), w.colormap)
	}
	return nil
}

func (h *Host) SetTitle(hw host.Handle, title string) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	w.title = title
	return h.setTitle(w, title)
}

func (h *Host) setTitle(w *window, title string) error {
	if err := ewmh.WmNameSet(h.xu, w.xwin.Id, title); err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	// Window managers without EWMH read WM_NAME.
	if err := icccm.WmNameSet(h.xu, w.xwin.Id, title); err != nil {
		return fmt.Errorf("failed to set WM_NAME: %w", err)
	}
	return nil
}

func (h *Host) SetStyle(hw host.Handle, style host.StyleSet) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	w.style = style
	h.applyStyle(w)
	return nil
}

// applyStyle maps the style onto Motif decoration hints and, for fixed-size
// windows, equal minimum and maximum size hints.
func (h *Host) applyStyle(w *window) {
	hints := &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motifDecorations(w.style),
	}
	if err := motif.WmHintsSet(h.xu, w.xwin.Id, hints); err != nil {
		h.logger.Debug("motif hints not set", "error", err)
	}
	h.applySizeHints(w)
}

func (h *Host) applySizeHints(w *window) {
	normal := &icccm.NormalHints{}
	if !w.style.Has(host.StyleResizable) && !w.style.Has(host.StylePopup) {
		width, height := w.client.Size()
		normal.Flags = icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
		normal.MinWidth, normal.MaxWidth = uint(width), uint(width)
		normal.MinHeight, normal.MaxHeight = uint(height), uint(height)
	}
	if err := icccm.WmNormalHintsSet(h.xu, w.xwin.Id, normal); err != nil {
		h.logger.Debug("size hints not set", "error", err)
	}
}

func motifDecorations(style host.StyleSet) uint {
	if style.Has(host.StylePopup) {
		return motif.DecorationNone
	}
	var deco uint
	if style.Has(host.StyleBorder) {
		deco |= motif.DecorationBorder
	}
	if style.Has(host.StyleCaption) {
		deco |= motif.DecorationTitle
	}
	if style.Has(host.StyleResizable) {
		deco |= motif.DecorationResizeH
	}
	if style.Has(host.StyleSysMenu) {
		deco |= motif.DecorationMenu
	}
	if style.Has(host.StyleMinimizeBox) {
		deco |= motif.DecorationMinimize
	}
	if style.Has(host.StyleMaximizeBox) {
		deco |= motif.DecorationMaximize
	}
	return deco
}

// SetWindowRect places the frame at outer. The X window is the client area,
// so the request carries the frame origin with the client size and lets the
// window manager's gravity do the rest.
func (h *Host) SetWindowRect(hw host.Handle, outer geom.Rect) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	client := outer.Shrink(h.FrameInsets(w.style))
	if err := checkRect(client); err != nil {
		return err
	}
	width, height := client.Size()
	w.client = client
	h.applySizeHints(w)

	if w.mapped && w.style.Decorated() {
		if err := ewmh.MoveresizeWindow(h.xu, w.xwin.Id, outer.Left, outer.Top, width, height); err == nil {
			return nil
		}
	}
	w.xwin.MoveResize(client.Left, client.Top, max(width, 1), max(height, 1))
	return nil
}

// ClientRect queries the server for the window's size and root position.
func (h *Host) ClientRect(hw host.Handle) (geom.Rect, error) {
	w, err := h.lookup(hw)
	if err != nil {
		return geom.Rect{}, err
	}
	conn := h.xu.Conn()
	g, err := xproto.GetGeometry(conn, xproto.Drawable(w.xwin.Id)).Reply()
	if err != nil {
		return geom.Rect{}, fmt.Errorf("failed to get geometry: %w", err)
	}
	origin, err := xproto.TranslateCoordinates(conn, w.xwin.Id, h.root, 0, 0).Reply()
	if err != nil {
		return geom.Rect{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	w.client = geom.FromSize(int(origin.DstX), int(origin.DstY), int(g.Width), int(g.Height))
	return w.client, nil
}

func (h *Host) Show(hw host.Handle, cmd host.ShowCommand) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	w.show = cmd

	if !w.mapped {
		// Before mapping, the window manager reads _NET_WM_STATE directly.
		if err := ewmh.WmStateSet(h.xu, w.xwin.Id, initialStates(cmd)); err != nil {
			h.logger.Debug("initial _NET_WM_STATE not set", "error", err)
		}
		w.xwin.Map()
		w.mapped = true
		if cmd == host.ShowMinimized {
			return h.iconify(w)
		}
		return nil
	}

	switch cmd {
	case host.ShowNormal:
		h.requestStates(w, stateRemove, stateFullscreen, stateMaxVert, stateMaxHorz)
		w.xwin.Map()
	case host.ShowMaximized:
		h.requestStates(w, stateRemove, stateFullscreen)
		h.requestStates(w, stateAdd, stateMaxVert, stateMaxHorz)
		w.xwin.Map()
	case host.ShowMinimized:
		return h.iconify(w)
	case host.ShowFullscreen:
		h.requestStates(w, stateAdd, stateFullscreen)
		return h.activate(w)
	default:
		return fmt.Errorf("unknown show command %d", cmd)
	}
	return nil
}

func initialStates(cmd host.ShowCommand) []string {
	switch cmd {
	case host.ShowMaximized:
		return []string{stateMaxVert, stateMaxHorz}
	case host.ShowFullscreen:
		return []string{stateFullscreen}
	case host.ShowMinimized:
		return []string{stateHidden}
	default:
		return []string{}
	}
}

func (h *Host) requestStates(w *window, action int, states ...string) {
	for _, state := range states {
		if err := ewmh.WmStateReq(h.xu, w.xwin.Id, action, state); err != nil {
			h.logger.Debug("_NET_WM_STATE request failed", "state", state, "error", err)
		}
	}
}
