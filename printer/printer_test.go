package printer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 0, color.Black)
	}
	return img
}

type capture struct {
	Noop
	got image.Image
}

func (c *capture) Print(ctx context.Context, img image.Image) error {
	c.got = img
	return nil
}

func TestRotated(t *testing.T) {
	c := &capture{}
	p := &rotated{Printer: c}
	if err := p.Print(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
	b := c.got.Bounds()
	if b.Dx() != 20 || b.Dy() != 40 {
		t.Fatalf("rotated bounds = %v, want 20x40", b)
	}
}

func TestSpool(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	p, err := New(Config{Type: "spool", SpoolDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Status(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := p.Print(context.Background(), testImage()); err != nil {
		t.Fatalf("print: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".png") {
		t.Fatalf("spool contents = %v", entries)
	}
	img, err := imaging.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("open spooled label: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("spooled bounds = %v", img.Bounds())
	}
}

func TestSpoolStatusMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	s, err := NewSpool(dir)
	if err != nil {
		t.Fatal(err)
	}
	os.RemoveAll(dir)

	var te *TransportError
	if err := s.Status(context.Background()); !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmd.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCUPSPrint(t *testing.T) {
	out := filepath.Join(t.TempDir(), "job.png")
	args := filepath.Join(t.TempDir(), "args")
	t.Setenv("JOB_OUT", out)
	t.Setenv("JOB_ARGS", args)
	lp := writeScript(t, `cat > "$JOB_OUT"; echo "$@" > "$JOB_ARGS"`)

	c, err := NewCUPS("QL-800", "62x100", lp, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Print(context.Background(), testImage()); err != nil {
		t.Fatalf("print: %v", err)
	}

	gotArgs, err := os.ReadFile(args)
	if err != nil {
		t.Fatal(err)
	}
	if want := "-d QL-800 -o media=62x100 -"; strings.TrimSpace(string(gotArgs)) != want {
		t.Fatalf("args = %q, want %q", gotArgs, want)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Fatalf("job bounds = %v", img.Bounds())
	}
}

func TestCUPSFailure(t *testing.T) {
	lp := writeScript(t, `echo "lp: The printer or class does not exist." >&2; exit 1`)
	c, err := NewCUPS("missing", "", lp, lp)
	if err != nil {
		t.Fatal(err)
	}

	err = c.Print(context.Background(), testImage())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if te.Backend != "cups" || te.Op != "print" || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Status(context.Background()); !errors.As(err, &te) {
		t.Fatalf("status err = %v", err)
	}
}

func TestCUPSStatusDisabled(t *testing.T) {
	lpstat := writeScript(t, `echo "printer QL-800 disabled since Mon"`)
	c, _ := NewCUPS("QL-800", "", "", lpstat)
	if err := c.Status(context.Background()); err == nil {
		t.Fatal("disabled queue reported healthy")
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(Config{Type: "cups"}); err == nil {
		t.Fatal("cups without queue accepted")
	}
	p, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*Noop); !ok {
		t.Fatalf("default printer = %T", p)
	}
}

type countingStatus struct {
	Noop
	calls chan struct{}
}

func (c *countingStatus) Status(ctx context.Context) error {
	c.calls <- struct{}{}
	return nil
}

func TestKeepAlive(t *testing.T) {
	p := &countingStatus{calls: make(chan struct{}, 10)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		KeepAlive(ctx, p, 5*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-p.calls:
		case <-time.After(time.Second):
			t.Fatal("keepalive did not poll")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepalive did not stop")
	}
}
