package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
)

func (h *Host) windowFor(id xproto.Window) *window {
	hw, ok := h.byXID[id]
	if !ok {
		return nil
	}
	return h.windows[hw]
}

func (h *Host) notify(w *window, n host.Notification) {
	if w.proc != nil {
		w.proc(n)
	}
}

// handle translates one X event into notifications for its window.
func (h *Host) handle(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		if w := h.windowFor(e.Window); w != nil {
			h.configure(w, e)
		}

	case xproto.FocusInEvent:
		if w := h.windowFor(e.Event); w != nil && focusRelevant(e.Mode, e.Detail) {
			h.notify(w, host.Notification{Kind: host.NotifyFocus, Focused: true})
		}
	case xproto.FocusOutEvent:
		if w := h.windowFor(e.Event); w != nil && focusRelevant(e.Mode, e.Detail) {
			h.notify(w, host.Notification{Kind: host.NotifyFocus, Focused: false})
		}

	case xproto.KeyPressEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.keyPress(w, e, w.pressed[e.Detail])
		}
	case xproto.KeyReleaseEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.keyRelease(w, e)
		}

	case xproto.ButtonPressEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.button(w, e.Detail, true, e.RootX, e.RootY)
		}
	case xproto.ButtonReleaseEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.button(w, e.Detail, false, e.RootX, e.RootY)
		}

	case xproto.MotionNotifyEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.notify(w, host.Notification{Kind: host.NotifyMouseMove, X: int(e.RootX), Y: int(e.RootY)})
		}
	case xproto.EnterNotifyEvent:
		if w := h.windowFor(e.Event); w != nil {
			h.notify(w, host.Notification{Kind: host.NotifyMouseMove, X: int(e.RootX), Y: int(e.RootY)})
		}
	case xproto.LeaveNotifyEvent:
		if w := h.windowFor(e.Event); w != nil && e.Mode == xproto.NotifyModeNormal {
			h.notify(w, host.Notification{Kind: host.NotifyMouseLeave})
		}

	case xproto.ClientMessageEvent:
		w := h.windowFor(e.Window)
		if w == nil || e.Type != h.atomProtocols || e.Format != 32 {
			return
		}
		if xproto.Atom(e.Data.Data32[0]) == h.atomDeleteWindow {
			h.notify(w, host.Notification{Kind: host.NotifyCloseRequest})
		}

	case xproto.PropertyNotifyEvent:
		w := h.windowFor(e.Window)
		if w == nil {
			return
		}
		switch e.Atom {
		case h.atomWmState:
			h.refreshShowState(w)
		case h.atomFrameExtents:
			h.refreshFrameExtents(w)
		}

	case xproto.MapNotifyEvent:
		if w := h.windowFor(e.Window); w != nil {
			h.refreshShowState(w)
		}
	case xproto.UnmapNotifyEvent:
		if w := h.windowFor(e.Window); w != nil && w.show != host.ShowMinimized {
			w.show = host.ShowMinimized
			h.notify(w, host.Notification{Kind: host.NotifyShowState, Show: host.ShowMinimized})
		}
	}
}

// configure reports the window's new client rect. Reparenting window
// managers send coordinates relative to the frame, so the origin is
// always re-resolved against the root.
func (h *Host) configure(w *window, e xproto.ConfigureNotifyEvent) {
	x, y := int(e.X), int(e.Y)
	if origin, err := xproto.TranslateCoordinates(h.xu.Conn(), w.xwin.Id, h.root, 0, 0).Reply(); err == nil {
		x, y = int(origin.DstX), int(origin.DstY)
	}
	w.client = geom.FromSize(x, y, int(e.Width), int(e.Height))
	h.notify(w, host.Notification{Kind: host.NotifySize, Width: int(e.Width), Height: int(e.Height)})
	h.notify(w, host.Notification{Kind: host.NotifyMove, X: x, Y: y})
}

// focusRelevant filters out focus changes caused by grabs and pointer
// focus, which do not move keyboard focus between top-level windows.
func focusRelevant(mode, detail byte) bool {
	if mode == xproto.NotifyModeGrab || mode == xproto.NotifyModeUngrab {
		return false
	}
	return detail != xproto.NotifyDetailPointer
}

func (h *Host) keyPress(w *window, e xproto.KeyPressEvent, repeat bool) {
	w.pressed[e.Detail] = true
	sym := keybind.KeysymGet(h.xu, e.Detail, 0)
	if sym == 0 {
		return
	}
	h.notify(w, host.Notification{Kind: host.NotifyKeyDown, Key: host.Key(sym), Repeat: repeat})

	if e.State&(xproto.ModMaskControl|xproto.ModMask1) != 0 {
		return
	}
	if r := keysymRune(h.textKeysym(e.Detail, e.State)); r != 0 {
		h.notify(w, host.Notification{Kind: host.NotifyChar, Rune: r})
	}
}

// keyRelease folds the release/press pair X sends for auto-repeat into a
// single repeated KeyDown when the press is already queued.
func (h *Host) keyRelease(w *window, e xproto.KeyReleaseEvent) {
	if !xevent.Empty(h.xu) {
		next, xerr := xevent.Dequeue(h.xu)
		if press, ok := next.(xproto.KeyPressEvent); ok && xerr == nil &&
			press.Detail == e.Detail && press.Time == e.Time && press.Event == e.Event {
			h.keyPress(w, press, true)
			return
		}
		defer func() {
			if xerr != nil {
				h.logger.Debug("x protocol error", "error", xerr)
			} else if next != nil {
				h.handle(next)
			}
		}()
	}

	delete(w.pressed, e.Detail)
	sym := keybind.KeysymGet(h.xu, e.Detail, 0)
	if sym == 0 {
		return
	}
	h.notify(w, host.Notification{Kind: host.NotifyKeyUp, Key: host.Key(sym)})
}

// textKeysym picks the keysym that produces text for the modifier state.
func (h *Host) textKeysym(code xproto.Keycode, state uint16) xproto.Keysym {
	shift := state&xproto.ModMaskShift != 0
	column := byte(0)
	if shift {
		column = 1
	}
	sym := keybind.KeysymGet(h.xu, code, column)
	if sym == 0 {
		sym = keybind.KeysymGet(h.xu, code, 0)
	}
	if state&xproto.ModMaskLock != 0 {
		sym = toggleCase(sym)
	}
	return sym
}

func toggleCase(sym xproto.Keysym) xproto.Keysym {
	switch {
	case sym >= 'a' && sym <= 'z':
		return sym - 'a' + 'A'
	case sym >= 'A' && sym <= 'Z':
		return sym - 'A' + 'a'
	}
	return sym
}

// keysymRune converts a keysym to the character it types, or 0.
func keysymRune(sym xproto.Keysym) rune {
	switch {
	case sym >= 0x20 && sym <= 0x7e, sym >= 0xa0 && sym <= 0xff:
		// Latin-1 keysyms equal their code points.
		return rune(sym)
	case sym&0xff000000 == 0x01000000:
		return rune(sym & 0x00ffffff)
	case sym == 0xff08:
		return '\b'
	case sym == 0xff09:
		return '\t'
	case sym == 0xff0d, sym == 0xff8d:
		return '\r'
	}
	return 0
}

func (h *Host) button(w *window, detail xproto.Button, down bool, x, y int16) {
	b, wheel, ok := translateButton(detail)
	if !ok {
		return
	}
	if wheel != 0 {
		if down {
			h.notify(w, host.Notification{Kind: host.NotifyMouseWheel, Delta: wheel})
		}
		return
	}
	h.notify(w, host.Notification{Kind: host.NotifyMouseButton, Button: int(b), Down: down, X: int(x), Y: int(y)})
}

// translateButton maps core protocol buttons. 4 and 5 are the vertical
// wheel, one unit per notch; horizontal scrolling is not reported.
func translateButton(detail xproto.Button) (event.Button, int, bool) {
	switch detail {
	case 1:
		return event.ButtonLeft, 0, true
	case 2:
		return event.ButtonMiddle, 0, true
	case 3:
		return event.ButtonRight, 0, true
	case 4:
		return 0, 1, true
	case 5:
		return 0, -1, true
	case 8:
		return event.ButtonX1, 0, true
	case 9:
		return event.ButtonX2, 0, true
	}
	return 0, 0, false
}
