package printer

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Printer sends finished label images to a device. Implementations never
// retry; a failed Print is reported as a *TransportError.
type Printer interface {
	// Print sends one image.
	Print(ctx context.Context, img image.Image) error

	// Status checks that the device is reachable. It also keeps
	// printers that sleep when idle awake.
	Status(ctx context.Context) error

	// Close releases any resources held by the printer.
	Close() error
}

// TransportError reports a printer that could not be reached or refused the
// job.
type TransportError struct {
	Backend string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("printer %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config holds configuration for printer backends.
type Config struct {
	Type     string `yaml:"type"`      // "cups", "spool" or "none"
	Queue    string `yaml:"queue"`     // CUPS queue name
	Media    string `yaml:"media"`     // CUPS media option, e.g. "62x100"
	SpoolDir string `yaml:"spool_dir"` // directory for the spool backend

	// Rotate turns the landscape label a quarter turn counter-clockwise
	// for printers that feed labels short edge first.
	Rotate bool `yaml:"rotate"`

	// Monochrome sends a 1-bit image instead of RGB.
	Monochrome bool `yaml:"monochrome"`

	LPCommand     string `yaml:"lp_command"`
	LPStatCommand string `yaml:"lpstat_command"`
}

// New creates a Printer based on the provided configuration.
func New(cfg Config) (Printer, error) {
	var p Printer
	switch cfg.Type {
	case "", "none":
		p = &Noop{}
	case "cups":
		c, err := NewCUPS(cfg.Queue, cfg.Media, cfg.LPCommand, cfg.LPStatCommand)
		if err != nil {
			return nil, err
		}
		p = c
	case "spool":
		s, err := NewSpool(cfg.SpoolDir)
		if err != nil {
			return nil, err
		}
		p = s
	default:
		return nil, fmt.Errorf("unknown printer type %q", cfg.Type)
	}

	if cfg.Rotate {
		p = &rotated{Printer: p}
	}
	return p, nil
}

// rotated turns images before handing them to the wrapped printer.
type rotated struct {
	Printer
}

func (r *rotated) Print(ctx context.Context, img image.Image) error {
	return r.Printer.Print(ctx, imaging.Rotate90(img))
}

// Noop implements Printer but discards every image.
type Noop struct{}

// Print implements Printer.Print.
func (n *Noop) Print(ctx context.Context, img image.Image) error {
	return nil
}

// Status implements Printer.Status.
func (n *Noop) Status(ctx context.Context) error {
	return nil
}

// Close implements Printer.Close.
func (n *Noop) Close() error {
	return nil
}
