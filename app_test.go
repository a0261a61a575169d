package main

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"nametags/eventpipe"
	"nametags/indicator"
	"nametags/journal"
	"nametags/label"
	"nametags/lookup"
	"nametags/mqtt"
	"nametags/printer"
)

const testLogo = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" fill="#fff"/></svg>`

type fakePrinter struct {
	mu     sync.Mutex
	images []image.Image
	err    error
}

func (p *fakePrinter) Print(_ context.Context, img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.images = append(p.images, img)
	return nil
}

func (p *fakePrinter) Status(context.Context) error { return nil }
func (p *fakePrinter) Close() error                 { return nil }

func (p *fakePrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.images)
}

type fakeIndicator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeIndicator) add(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeIndicator) Idle()                           { f.add("idle") }
func (f *fakeIndicator) Busy(job *indicator.JobInfo)     { f.add("busy") }
func (f *fakeIndicator) Printed(job *indicator.JobInfo)  { f.add("printed") }
func (f *fakeIndicator) Failed(job *indicator.JobInfo)   { f.add("failed:" + job.Error) }
func (f *fakeIndicator) NotFound(job *indicator.JobInfo) { f.add("notfound:" + job.Tag) }
func (f *fakeIndicator) ConnectionLost()                 { f.add("lost") }
func (f *fakeIndicator) Shutdown()                       { f.add("shutdown") }
func (f *fakeIndicator) Release() error                  { return nil }

func (f *fakeIndicator) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.calls, " ")
}

type failingDirectory struct{}

func (failingDirectory) Lookup(context.Context, string) (string, bool, error) {
	return "", false, errors.New("membership API down")
}

func newTestApp(t *testing.T, dir lookup.Directory) (*App, *fakePrinter, *fakeIndicator) {
	t.Helper()

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	semibold, err := opentype.Parse(gomedium.TTF)
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := label.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })

	client, err := mqtt.New(mqtt.Config{}, "test", mqtt.Handlers{})
	if err != nil {
		t.Fatal(err)
	}

	p, ind := &fakePrinter{}, &fakeIndicator{}
	app := &App{
		cfg: &Config{
			ClientID:    "test",
			Label:       LabelConfig{Size: "62x100"},
			PrintSecret: testSecret,
			// long enough that no return-to-idle fires during a test
			ResultSecs: 3600,
		},
		log:       zap.S(),
		renderer:  label.NewRenderer(label.NewAssets(regular, semibold, []byte(testLogo)), catalog, label.DefaultLayout()),
		directory: dir,
		printer:   p,
		journal:   j,
		mqtt:      client,
		topics:    mqtt.Topics{ClientID: "test"},
		indicator: ind,
		ctx:       context.Background(),
		now:       time.Now,
	}
	return app, p, ind
}

func recent(t *testing.T, app *App) []journal.Entry {
	t.Helper()
	entries, err := app.History(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestHandleTagPrints(t *testing.T) {
	app, p, ind := newTestApp(t, lookup.Static{"0006765820": "Pat"})

	app.handleTag(context.Background(), "0006765820")

	if p.count() != 1 {
		t.Fatalf("printed %d labels, want 1", p.count())
	}
	if b := p.images[0].Bounds(); b.Dx() != 1109 || b.Dy() != 696 {
		t.Fatalf("label is %v", b)
	}
	if got := ind.String(); got != "busy printed" {
		t.Fatalf("indicator = %q", got)
	}

	entries := recent(t, app)
	if len(entries) != 1 {
		t.Fatalf("journal has %d entries", len(entries))
	}
	e := entries[0]
	if e.Source != journal.SourceRFID || e.Tag != "0006765820" || e.Name != "Pat" ||
		e.Status != journal.StatusPrinted || e.LabelSize != "62x100" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestHandleTagNotFound(t *testing.T) {
	app, p, ind := newTestApp(t, lookup.Static{})

	app.handleTag(context.Background(), "1111111111")

	if p.count() != 0 {
		t.Fatal("unknown badge must not print")
	}
	if got := ind.String(); got != "notfound:1111111111" {
		t.Fatalf("indicator = %q", got)
	}
	if e := recent(t, app); len(e) != 1 || e[0].Status != journal.StatusNotFound {
		t.Fatalf("journal = %+v", e)
	}
}

func TestHandleTagLookupError(t *testing.T) {
	app, p, ind := newTestApp(t, failingDirectory{})

	app.handleTag(context.Background(), "1111111111")

	if p.count() != 0 {
		t.Fatal("lookup failure must not print")
	}
	if got := ind.String(); got != "failed:Member lookup failed" {
		t.Fatalf("indicator = %q", got)
	}
	e := recent(t, app)
	if len(e) != 1 || e[0].Status != journal.StatusFailed || !strings.Contains(e[0].Error, "membership API down") {
		t.Fatalf("journal = %+v", e)
	}
}

func TestPrintFailure(t *testing.T) {
	app, p, ind := newTestApp(t, nil)
	p.err = &printer.TransportError{Backend: "cups", Op: "print", Err: errors.New("queue disabled")}

	err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "Pat"}, "")
	var transport *printer.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want *printer.TransportError", err)
	}
	if got := ind.String(); got != "busy failed:Printer not responding" {
		t.Fatalf("indicator = %q", got)
	}
	if e := recent(t, app); len(e) != 1 || e[0].Status != journal.StatusFailed {
		t.Fatalf("journal = %+v", e)
	}
	if app.last != nil {
		t.Fatal("failed job must not become the reprint target")
	}
}

func TestPrintLabelValidates(t *testing.T) {
	app, p, _ := newTestApp(t, nil)

	if err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "  "}, ""); !errors.Is(err, label.ErrEmptyText) {
		t.Fatalf("empty err = %v", err)
	}
	if err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "Pat"}, "99x99"); !errors.Is(err, label.ErrInvalidLabelSize) {
		t.Fatalf("size err = %v", err)
	}
	long := label.Request{Primary: strings.Repeat("W", label.MaxTextRunes+1)}
	if err := app.PrintLabel(context.Background(), journal.SourceWeb, long, ""); !errors.Is(err, label.ErrTextTooLong) {
		t.Fatalf("long err = %v", err)
	}
	if _, err := app.Preview(long, ""); !errors.Is(err, label.ErrTextTooLong) {
		t.Fatalf("long preview err = %v", err)
	}
	if p.count() != 0 {
		t.Fatal("nothing should print")
	}
	// rejected requests never reach the journal never reaches the journal
	if e := recent(t, app); len(e) != 1 || e[0].LabelSize != "99x99" {
		t.Fatalf("journal = %+v", e)
	}
}

func TestMonochrome(t *testing.T) {
	app, p, _ := newTestApp(t, nil)
	app.cfg.Printer.Monochrome = true

	if err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "Pat"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.images[0].(*image.Paletted); !ok {
		t.Fatalf("printer got %T, want *image.Paletted", p.images[0])
	}
}

func TestReprint(t *testing.T) {
	app, p, _ := newTestApp(t, nil)

	app.reprint()
	if p.count() != 0 {
		t.Fatal("reprint with no history must not print")
	}

	if err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "Pat", Secondary: "Guest"}, "29x90"); err != nil {
		t.Fatal(err)
	}
	app.reprint()

	if p.count() != 2 {
		t.Fatalf("printed %d labels, want 2", p.count())
	}
	e := recent(t, app)
	if e[0].Source != journal.SourceButton || e[0].Name != "Pat" || e[0].SecondLine != "Guest" || e[0].LabelSize != "29x90" {
		t.Fatalf("reprint entry = %+v", e[0])
	}
}

func TestRunKeepsAppContext(t *testing.T) {
	app, p, _ := newTestApp(t, nil)
	base := app.ctx
	if err := app.PrintLabel(context.Background(), journal.SourceWeb, label.Request{Primary: "Pat"}, ""); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	// the button can fire while Run is still starting its listeners
	app.reprint()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if app.ctx != base {
		t.Fatal("Run replaced the app context")
	}
	if p.count() != 2 {
		t.Fatalf("printed %d labels, want 2", p.count())
	}
}

func TestReprintFromJournal(t *testing.T) {
	app, p, _ := newTestApp(t, nil)
	_, err := app.journal.Record(context.Background(), journal.Entry{
		Source: journal.SourceWeb, Name: "Jo", LabelSize: "62x100", Status: journal.StatusPrinted,
	})
	if err != nil {
		t.Fatal(err)
	}

	app.reprint()

	if p.count() != 1 {
		t.Fatalf("printed %d labels, want 1", p.count())
	}
}

func TestRemotePrint(t *testing.T) {
	app, p, _ := newTestApp(t, nil)
	now := time.Unix(1760000000, 0)
	app.now = func() time.Time { return now }

	app.handlePrintRequest(signedPayload(t, "Pat", "Speaker", uint64(now.Unix()), false))
	if p.count() != 1 {
		t.Fatalf("printed %d labels, want 1", p.count())
	}
	if e := recent(t, app); e[0].Source != journal.SourceMQTT || e[0].SecondLine != "Speaker" {
		t.Fatalf("entry = %+v", e[0])
	}

	app.handlePrintRequest(signedPayload(t, "Pat", "Speaker", uint64(now.Unix())-3600, false))
	if p.count() != 1 {
		t.Fatal("stale request printed")
	}

	app.cfg.PrintSecret = ""
	app.handlePrintRequest(signedPayload(t, "Pat", "", uint64(now.Unix()), false))
	if p.count() != 1 {
		t.Fatal("remote print must be off without a secret")
	}
}

func TestPipeEvents(t *testing.T) {
	app, p, _ := newTestApp(t, lookup.Static{"1234567890": "Robin"})

	app.handlePipeEvent(eventpipe.Event{Kind: eventpipe.KindRFID, Tag: "1234567890"})
	app.handlePipeEvent(eventpipe.Event{Kind: eventpipe.KindPrint, Name: "Sam", SecondLine: "Volunteer"})

	if p.count() != 2 {
		t.Fatalf("printed %d labels, want 2", p.count())
	}
	e := recent(t, app)
	if e[0].Source != journal.SourcePipe || e[0].Name != "Sam" || e[1].Name != "Robin" {
		t.Fatalf("journal = %+v", e)
	}
}

func TestShowIdleFollowsConnection(t *testing.T) {
	app, _, ind := newTestApp(t, nil)

	app.showIdle()
	app.onMQTTConnect()
	app.onMQTTDisconnect()

	if got := ind.String(); got != "lost idle lost" {
		t.Fatalf("indicator = %q", got)
	}
}

func TestServiceMethods(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	if app.DefaultSize() != "62x100" {
		t.Fatalf("default = %q", app.DefaultSize())
	}
	if sizes := app.Sizes(); len(sizes) == 0 {
		t.Fatal("no sizes")
	}
	lbl, err := app.Preview(label.Request{Primary: "Pat"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if lbl.Image.Bounds().Dx() != 1109 {
		t.Fatalf("preview = %v", lbl.Image.Bounds())
	}
}
