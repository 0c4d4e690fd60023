package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/winbridge/internal/host"
)

// _NET_WM_STATE actions.
const (
	stateRemove = 0
	stateAdd    = 1
)

const (
	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	stateMaxVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateHidden     = "_NET_WM_STATE_HIDDEN"
)

// iconicState is the ICCCM WM_STATE value for a minimized window.
const iconicState = 3

// iconify asks the window manager to minimize w with WM_CHANGE_STATE.
func (h *Host) iconify(w *window) error {
	return h.sendRootMessage(w.xwin.Id, "WM_CHANGE_STATE", iconicState)
}

// activate raises and focuses w with _NET_ACTIVE_WINDOW.
func (h *Host) activate(w *window) error {
	const sourceIndication = 1 // application
	return h.sendRootMessage(w.xwin.Id, "_NET_ACTIVE_WINDOW", sourceIndication)
}

// sendRootMessage sends a 32-bit client message about win to the root
// window, where the window manager listens for requests.
func (h *Host) sendRootMessage(win xproto.Window, atomName string, data ...uint32) error {
	atomReply, err := xproto.InternAtom(h.xu.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	return xproto.SendEventChecked(
		h.xu.Conn(),
		false,
		h.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// showFromStates maps a _NET_WM_STATE list onto a show command.
func showFromStates(states []string) host.ShowCommand {
	var maxV, maxH bool
	for _, s := range states {
		switch s {
		case stateHidden:
			return host.ShowMinimized
		case stateFullscreen:
			return host.ShowFullscreen
		case stateMaxVert:
			maxV = true
		case stateMaxHorz:
			maxH = true
		}
	}
	if maxV && maxH {
		return host.ShowMaximized
	}
	return host.ShowNormal
}

// refreshShowState reads _NET_WM_STATE and reports a change to w's proc.
func (h *Host) refreshShowState(w *window) {
	states, err := ewmh.WmStateGet(h.xu, w.xwin.Id)
	if err != nil {
		return
	}
	cmd := showFromStates(states)
	if cmd == w.show {
		return
	}
	w.show = cmd
	h.notify(w, host.Notification{Kind: host.NotifyShowState, Show: cmd})
}

// refreshFrameExtents caches the decoration sizes the window manager
// published for w.
func (h *Host) refreshFrameExtents(w *window) {
	extents, err := ewmh.FrameExtentsGet(h.xu, w.xwin.Id)
	if err != nil {
		return
	}
	h.insets.Left = int(extents.Left)
	h.insets.Top = int(extents.Top)
	h.insets.Right = int(extents.Right)
	h.insets.Bottom = int(extents.Bottom)
}
