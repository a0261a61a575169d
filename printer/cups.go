package printer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
)

// CUPS prints through the lp command, which leaves raster conversion to the
// queue's driver.
type CUPS struct {
	queue  string
	media  string
	lp     string
	lpstat string
}

// NewCUPS creates a CUPS printer for queue. Empty commands default to lp and
// lpstat from PATH.
func NewCUPS(queue, media, lp, lpstat string) (*CUPS, error) {
	if queue == "" {
		return nil, fmt.Errorf("cups printer needs a queue name")
	}
	if lp == "" {
		lp = "lp"
	}
	if lpstat == "" {
		lpstat = "lpstat"
	}
	return &CUPS{queue: queue, media: media, lp: lp, lpstat: lpstat}, nil
}

// Print implements Printer.Print.
func (c *CUPS) Print(ctx context.Context, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode label: %w", err)
	}

	args := []string{"-d", c.queue}
	if c.media != "" {
		args = append(args, "-o", "media="+c.media)
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, c.lp, args...)
	cmd.Stdin = &buf
	if out, err := cmd.CombinedOutput(); err != nil {
		return &TransportError{Backend: "cups", Op: "print", Err: commandError(err, out)}
	}
	return nil
}

// Status implements Printer.Status.
func (c *CUPS) Status(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, c.lpstat, "-p", c.queue).CombinedOutput()
	if err != nil {
		return &TransportError{Backend: "cups", Op: "status", Err: commandError(err, out)}
	}
	if strings.Contains(string(out), "disabled") {
		return &TransportError{Backend: "cups", Op: "status", Err: fmt.Errorf("queue %s is disabled", c.queue)}
	}
	return nil
}

// Close implements Printer.Close.
func (c *CUPS) Close() error {
	return nil
}

func commandError(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
