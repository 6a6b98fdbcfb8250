package log

import "testing"

func TestPanelHeight(t *testing.T) {
	tests := []struct {
		height int
		want   int
	}{
		{12, 4},  // a third of the screen
		{30, 10}, // a third of the screen
		{60, 15}, // capped
		{100, 15},
	}
	for _, tt := range tests {
		if got := PanelHeight(tt.height); got != tt.want {
			t.Errorf("PanelHeight(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}
