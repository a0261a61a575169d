package button

import (
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	g := gate{holdOff: 2 * time.Second}
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		after time.Duration
		want  bool
	}{
		{0, true},
		{500 * time.Millisecond, false},
		{1999 * time.Millisecond, false},
		{2 * time.Second, true},
		{3 * time.Second, false},
		{5 * time.Second, true},
	}
	for _, tt := range tests {
		if got := g.allow(start.Add(tt.after)); got != tt.want {
			t.Errorf("allow(+%v) = %v, want %v", tt.after, got, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Pin: 17}.withDefaults()
	if c.Chip != "gpiochip0" || c.Debounce != 2*time.Millisecond || c.HoldOff != 2*time.Second {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestNewWithoutPin(t *testing.T) {
	b, err := New(Config{}, func() {})
	if b != nil || err != nil {
		t.Fatalf("New(no pin) = %v, %v", b, err)
	}
}
