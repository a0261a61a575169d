//go:build linux

package button

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"
)

// Button calls onPress on each falling edge of an active-low button line.
type Button struct {
	line    *gpiocdev.Line
	gate    gate
	onPress func()
	log     *zap.SugaredLogger
}

// New requests the button line. Returns nil if no pin is configured.
func New(cfg Config, onPress func()) (*Button, error) {
	if cfg.Pin == 0 {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	b := &Button{
		gate:    gate{holdOff: cfg.HoldOff},
		onPress: onPress,
		log:     zap.S().Named("button"),
	}

	var err error
	b.line, err = gpiocdev.RequestLine(cfg.Chip, cfg.Pin,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(cfg.Debounce),
		gpiocdev.WithEventHandler(b.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request button line %s:%d: %w", cfg.Chip, cfg.Pin, err)
	}
	return b, nil
}

func (b *Button) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	if !b.gate.allow(time.Now()) {
		b.log.Debug("Button press ignored (hold-off)")
		return
	}
	b.log.Info("Reprint button pressed")
	if b.onPress != nil {
		// the handler runs on gpiocdev's event goroutine
		go b.onPress()
	}
}

// Release releases GPIO resources.
func (b *Button) Release() error {
	if b.line == nil {
		return nil
	}
	return b.line.Close()
}
