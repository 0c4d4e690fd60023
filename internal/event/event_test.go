package event

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Resize{Width: 800, Height: 600}, "resize 800x600"},
		{Move{X: -5, Y: 10}, "move -5,10"},
		{FocusGained{}, "focus-gained"},
		{Close{}, "close"},
		{KeyDown{Code: 0xff1b, Repeat: true}, "key-down 0xff1b (repeat)"},
		{Char{Rune: 'é'}, `char 'é'`},
		{MouseMove{X: 1, Y: 2, DX: -3, DY: 0}, "mouse-move 1,2 (-3,+0)"},
		{MouseButton{Button: ButtonRight, Down: true, X: 4, Y: 5}, "mouse-button right down at 4,5"},
		{MouseWheel{Delta: -120}, "mouse-wheel -120"},
		{MouseLeave{}, "mouse-leave"},
	}
	for _, tt := range tests {
		if got := Describe(tt.ev); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestButton_Valid(t *testing.T) {
	if !ButtonX2.Valid() || Button(5).Valid() || Button(-1).Valid() {
		t.Fatalf("unexpected button validity")
	}
}
