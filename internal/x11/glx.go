package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/glx"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winbridge/internal/host"
)

// Each GLX visual config starts with these core properties in order,
// followed by (attribute, value) pairs.
const (
	propVisualID = iota
	propClass
	propRGBA
	propRedSize
	propGreenSize
	propBlueSize
	propAlphaSize
	propAccumRed
	propAccumGreen
	propAccumBlue
	propAccumAlpha
	propDoubleBuffer
	propStereo
	propBufferSize
	propDepthSize
	propStencilSize
	propAuxBuffers
	propLevel
	coreProps
)

const (
	glxVisualCaveat = 0x20
	glxSlowVisual   = 0x8001
	glxSamples      = 100001
)

type glContext struct {
	id     glx.Context
	tag    glx.ContextTag
	window *window
}

func (h *Host) initGLX() error {
	if h.glxReady {
		return nil
	}
	if err := glx.Init(h.xu.Conn()); err != nil {
		return fmt.Errorf("%w: glx: %v", host.ErrUnsupported, err)
	}
	h.glxReady = true
	return nil
}

// PixelFormats lists the screen's GLX visuals usable for windowed RGBA
// rendering. A format's ID is its X visual ID.
func (h *Host) PixelFormats(hw host.Handle) ([]host.PixelFormat, error) {
	if _, err := h.lookup(hw); err != nil {
		return nil, err
	}
	if err := h.initGLX(); err != nil {
		return nil, err
	}
	reply, err := glx.GetVisualConfigs(h.xu.Conn(), uint32(h.xu.Conn().DefaultScreen)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query visual configs: %w", err)
	}
	return parseVisualConfigs(int(reply.NumVisuals), int(reply.NumProperties), reply.PropertyList), nil
}

func parseVisualConfigs(numVisuals, numProps int, props []uint32) []host.PixelFormat {
	if numProps < coreProps {
		return nil
	}
	var out []host.PixelFormat
	for i := 0; i < numVisuals && (i+1)*numProps <= len(props); i++ {
		p := props[i*numProps : (i+1)*numProps]
		class := p[propClass]
		if p[propRGBA] == 0 || p[propLevel] != 0 ||
			(class != xproto.VisualClassTrueColor && class != xproto.VisualClassDirectColor) {
			continue
		}

		pf := host.PixelFormat{
			ID:             int(p[propVisualID]),
			ColorBits:      int(p[propBufferSize]),
			AlphaBits:      int(p[propAlphaSize]),
			DepthBits:      int(p[propDepthSize]),
			StencilBits:    int(p[propStencilSize]),
			DoubleBuffered: p[propDoubleBuffer] != 0,
			Accelerated:    true,
		}
		for j := coreProps; j+1 < numProps; j += 2 {
			switch p[j] {
			case glxVisualCaveat:
				pf.Accelerated = p[j+1] != glxSlowVisual
			case glxSamples:
				pf.SampleCount = int(p[j+1])
			}
		}
		out = append(out, pf)
	}
	return out
}

// SetPixelFormat binds pf to the window. X fixes a window's visual at
// creation, so a different visual recreates the X window under the same
// handle.
func (h *Host) SetPixelFormat(hw host.Handle, pf host.PixelFormat) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	if w.format != nil {
		return fmt.Errorf("pixel format already set to %d", w.format.ID)
	}

	visual := xproto.Visualid(pf.ID)
	if visual != w.visual {
		if err := h.recreate(hw, w, visual); err != nil {
			return err
		}
	}
	w.format = &pf
	return nil
}

func (h *Host) recreate(hw host.Handle, w *window, visual xproto.Visualid) error {
	depth, ok := h.visualDepth(visual)
	if !ok {
		return fmt.Errorf("visual 0x%x not on screen", visual)
	}
	conn := h.xu.Conn()
	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate colormap id: %w", err)
	}
	if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, h.root, visual).Check(); err != nil {
		return fmt.Errorf("failed to create colormap: %w", err)
	}

	old, oldCmap, oldVisual := w.xwin, w.colormap, w.visual
	w.visual, w.colormap = visual, cmap
	if err := h.createX(w, depth); err != nil {
		w.visual, w.colormap = oldVisual, oldCmap
		xproto.FreeColormap(conn, cmap)
		return err
	}

	delete(h.byXID, old.Id)
	h.byXID[w.xwin.Id] = hw
	old.Destroy()
	if oldCmap != 0 {
		xproto.FreeColormap(conn, oldCmap)
	}
	if w.mapped {
		w.mapped = false
		return h.Show(hw, w.show)
	}
	return nil
}

func (h *Host) visualDepth(visual xproto.Visualid) (byte, bool) {
	for _, d := range h.xu.Screen().AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == visual {
				return d.Depth, true
			}
		}
	}
	return 0, false
}

// CreateContext creates an indirect GLX context for the window's visual
// and makes it current on the window.
func (h *Host) CreateContext(hw host.Handle, pf host.PixelFormat) (host.ContextHandle, error) {
	w, err := h.lookup(hw)
	if err != nil {
		return 0, err
	}
	if w.format == nil || w.format.ID != pf.ID {
		return 0, fmt.Errorf("context format %d does not match surface", pf.ID)
	}
	conn := h.xu.Conn()
	id, err := glx.NewContextId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate context id: %w", err)
	}
	err = glx.CreateContextChecked(conn, id, w.visual, uint32(conn.DefaultScreen), 0, false).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create glx context: %w", err)
	}
	current, err := glx.MakeCurrent(conn, glx.Drawable(w.xwin.Id), id, 0).Reply()
	if err != nil {
		glx.DestroyContext(conn, id)
		return 0, fmt.Errorf("failed to make context current: %w", err)
	}

	c := &glContext{id: id, tag: current.ContextTag, window: w}
	w.context = c
	h.contexts[host.ContextHandle(id)] = c
	return host.ContextHandle(id), nil
}

func (h *Host) DestroyContext(ch host.ContextHandle) error {
	c, ok := h.contexts[ch]
	if !ok {
		return fmt.Errorf("unknown context %d", ch)
	}
	delete(h.contexts, ch)
	if c.window.context == c {
		c.window.context = nil
	}
	if err := glx.DestroyContextChecked(h.xu.Conn(), c.id).Check(); err != nil {
		return fmt.Errorf("failed to destroy glx context: %w", err)
	}
	return nil
}

func (h *Host) SwapBuffers(hw host.Handle) error {
	w, err := h.lookup(hw)
	if err != nil {
		return err
	}
	if w.context == nil {
		return fmt.Errorf("window %d has no current context", hw)
	}
	if err := glx.SwapBuffersChecked(h.xu.Conn(), w.context.tag, glx.Drawable(w.xwin.Id)).Check(); err != nil {
		return fmt.Errorf("failed to swap buffers: %w", err)
	}
	return nil
}
