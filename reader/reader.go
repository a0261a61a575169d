package reader

import (
	"context"
	"fmt"
)

// TagReader is the interface for all tag/card reader implementations.
type TagReader interface {
	// Read blocks until a complete tag is scanned or ctx is cancelled.
	Read(ctx context.Context) (string, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type      string `yaml:"type"`       // "keyboard", "serial" or "none"
	Device    string `yaml:"device"`     // e.g. "/dev/input/event0", "/dev/ttyUSB0"
	Baud      int    `yaml:"baud"`       // baud rate for serial devices
	TagDigits int    `yaml:"tag_digits"` // digits in a badge number, default 10
}

// New creates a TagReader based on the provided configuration. It returns
// nil when no reader is configured.
func New(cfg Config) (TagReader, error) {
	if cfg.TagDigits == 0 {
		cfg.TagDigits = DefaultTagDigits
	}
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "keyboard":
		return NewKeyboard(cfg.Device, cfg.TagDigits)
	case "serial":
		return NewSerial(cfg.Device, cfg.Baud, cfg.TagDigits)
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
