package printer

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Spool writes each label as a PNG file into a directory, for print servers
// that watch a folder or for running without a printer attached.
type Spool struct {
	dir string
	now func() time.Time
}

// NewSpool creates the spool directory if needed.
func NewSpool(dir string) (*Spool, error) {
	if dir == "" {
		return nil, fmt.Errorf("spool printer needs spool_dir")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &Spool{dir: dir, now: time.Now}, nil
}

// Print implements Printer.Print.
func (s *Spool) Print(ctx context.Context, img image.Image) error {
	name := fmt.Sprintf("%s-%s.png", s.now().UTC().Format("20060102T150405"), uuid.NewString())
	if err := imaging.Save(img, filepath.Join(s.dir, name)); err != nil {
		return &TransportError{Backend: "spool", Op: "print", Err: err}
	}
	return nil
}

// Status implements Printer.Status.
func (s *Spool) Status(ctx context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return &TransportError{Backend: "spool", Op: "status", Err: err}
	}
	if !fi.IsDir() {
		return &TransportError{Backend: "spool", Op: "status", Err: fmt.Errorf("%s is not a directory", s.dir)}
	}
	return nil
}

// Close implements Printer.Close.
func (s *Spool) Close() error {
	return nil
}
