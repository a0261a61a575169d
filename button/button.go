// Package button watches a GPIO push button that reprints the last label.
package button

import (
	"sync"
	"time"
)

// Config holds configuration for the reprint button.
type Config struct {
	Chip     string        `yaml:"chip"`
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
	HoldOff  time.Duration `yaml:"hold_off"` // presses closer together than this are dropped
}

func (c Config) withDefaults() Config {
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if c.Debounce == 0 {
		c.Debounce = 2 * time.Millisecond
	}
	if c.HoldOff == 0 {
		c.HoldOff = 2 * time.Second
	}
	return c
}

// gate lets one press through per hold-off period.
type gate struct {
	mu      sync.Mutex
	holdOff time.Duration
	last    time.Time
}

func (g *gate) allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.last.IsZero() && now.Sub(g.last) < g.holdOff {
		return false
	}
	g.last = now
	return true
}
