package host

import "strings"

// Style is a single window decoration or behaviour flag.
type Style uint8

const (
	StyleCaption Style = iota
	StyleBorder
	StyleResizable
	StyleMinimizeBox
	StyleMaximizeBox
	StyleSysMenu
	StylePopup
	styleCount
)

var styleNames = [...]string{
	StyleCaption:     "caption",
	StyleBorder:      "border",
	StyleResizable:   "resizable",
	StyleMinimizeBox: "minimize-box",
	StyleMaximizeBox: "maximize-box",
	StyleSysMenu:     "sys-menu",
	StylePopup:       "popup",
}

// String returns the string representation of the style flag
func (s Style) String() string {
	if s < styleCount {
		return styleNames[s]
	}
	return "unknown"
}

// StyleSet is an immutable set of Style flags.
type StyleSet struct {
	bits uint16
}

// NewStyleSet builds a set from the given flags.
func NewStyleSet(flags ...Style) StyleSet {
	return StyleSet{}.With(flags...)
}

// DecoratedStyle is the regular top-level window look.
func DecoratedStyle() StyleSet {
	return NewStyleSet(StyleCaption, StyleBorder, StyleResizable, StyleMinimizeBox, StyleMaximizeBox, StyleSysMenu)
}

// FullscreenStyle is an undecorated popup covering the display.
func FullscreenStyle() StyleSet {
	return NewStyleSet(StylePopup)
}

// Has reports whether f is a member of the set.
func (s StyleSet) Has(f Style) bool {
	return f < styleCount && s.bits&(1<<f) != 0
}

// With returns a copy of s with flags added.
func (s StyleSet) With(flags ...Style) StyleSet {
	for _, f := range flags {
		if f < styleCount {
			s.bits |= 1 << f
		}
	}
	return s
}

// Without returns a copy of s with flags removed.
func (s StyleSet) Without(flags ...Style) StyleSet {
	for _, f := range flags {
		if f < styleCount {
			s.bits &^= 1 << f
		}
	}
	return s
}

// Flags lists the members in declaration order.
func (s StyleSet) Flags() []Style {
	var out []Style
	for f := Style(0); f < styleCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Decorated reports whether the host draws a frame around the client area.
func (s StyleSet) Decorated() bool {
	return !s.Has(StylePopup) && (s.Has(StyleCaption) || s.Has(StyleBorder))
}

func (s StyleSet) String() string {
	flags := s.Flags()
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, f.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
