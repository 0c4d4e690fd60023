package host

import "testing"

func TestStyleSet_Membership(t *testing.T) {
	s := NewStyleSet(StyleCaption, StyleBorder)
	if !s.Has(StyleCaption) || !s.Has(StyleBorder) {
		t.Fatalf("expected caption and border in %v", s)
	}
	if s.Has(StylePopup) {
		t.Fatalf("did not expect popup in %v", s)
	}

	s2 := s.With(StylePopup).Without(StyleCaption)
	if s2.Has(StyleCaption) || !s2.Has(StylePopup) {
		t.Fatalf("unexpected set %v", s2)
	}
	// With/Without return copies.
	if !s.Has(StyleCaption) || s.Has(StylePopup) {
		t.Fatalf("original set mutated: %v", s)
	}
}

func TestStyleSet_Decorated(t *testing.T) {
	if !DecoratedStyle().Decorated() {
		t.Fatalf("expected decorated style to be decorated")
	}
	if FullscreenStyle().Decorated() {
		t.Fatalf("expected fullscreen style to be undecorated")
	}
	if DecoratedStyle().With(StylePopup).Decorated() {
		t.Fatalf("popup must suppress decoration")
	}
}

func TestStyleSet_String(t *testing.T) {
	got := NewStyleSet(StylePopup, StyleCaption).String()
	if got != "{caption,popup}" {
		t.Fatalf("expected {caption,popup}, got %s", got)
	}
	if Style(99).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range style")
	}
	if NewStyleSet(Style(99)).Has(Style(99)) {
		t.Fatalf("out-of-range style must not be a member")
	}
}
