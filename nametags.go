package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nametags/button"
	"nametags/eventpipe"
	"nametags/indicator"
	"nametags/journal"
	"nametags/label"
	"nametags/lookup"
	"nametags/mqtt"
	"nametags/printer"
	"nametags/reader"
	"nametags/web"
)

var myBuild string

const lookupTimeout = 15 * time.Second

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	log       *zap.SugaredLogger
	renderer  *label.Renderer
	directory lookup.Directory
	printer   printer.Printer
	journal   *journal.Journal
	mqtt      *mqtt.Client
	topics    mqtt.Topics
	reader    reader.TagReader
	indicator indicator.Indicator
	button    *button.Button
	pipe      *eventpipe.EventPipe
	web       *web.Server
	now       func() time.Time

	// ctx is set once in NewApp, before any handler exists, and is used by
	// callbacks that carry no context of their own (button, pipe, MQTT).
	ctx context.Context

	// printMu serializes jobs on the one printer.
	printMu sync.Mutex

	lastMu sync.Mutex
	last   *job

	connected atomic.Bool
	// stateGen invalidates a pending return to idle when a newer state is
	// shown.
	stateGen atomic.Uint64
}

// job is one label to print.
type job struct {
	source string
	tag    string
	req    label.Request
	size   string
}

// NewApp builds every component from cfg. Hardware that is not configured is
// left nil.
func NewApp(ctx context.Context, cfg *Config) (*App, error) {
	app := &App{
		cfg:    cfg,
		log:    zap.S().Named("app"),
		topics: mqtt.Topics{ClientID: cfg.ClientID},
		ctx:    ctx,
		now:    time.Now,
	}

	catalog, err := label.NewCatalog(cfg.Label.Sizes...)
	if err != nil {
		return nil, fmt.Errorf("label sizes: %w", err)
	}
	if _, err := catalog.Lookup(cfg.Label.Size); err != nil {
		return nil, fmt.Errorf("label size: %w (known: %v)", err, catalog.IDs())
	}
	assets, err := label.LoadAssets(cfg.Label.AssetConfig)
	if err != nil {
		return nil, fmt.Errorf("load label assets: %w", err)
	}
	app.renderer = label.NewRenderer(assets, catalog, label.DefaultLayout())

	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		return nil, fmt.Errorf("init indicator: %w", err)
	}
	app.indicator.ConnectionLost()

	app.printer, err = printer.New(cfg.Printer)
	if err != nil {
		return nil, fmt.Errorf("init printer: %w", err)
	}

	if cfg.Journal.Path != "" {
		app.journal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
	}

	app.reader, err = reader.New(cfg.Reader)
	if err != nil {
		return nil, fmt.Errorf("init reader: %w", err)
	}
	if app.reader != nil {
		app.directory, err = lookup.New(ctx, cfg.Lookup)
		if err != nil {
			return nil, fmt.Errorf("init name lookup: %w", err)
		}
	}

	app.button, err = button.New(cfg.Button, app.reprint)
	if err != nil {
		return nil, fmt.Errorf("init button: %w", err)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.handlePipeEvent)
	if err != nil {
		return nil, fmt.Errorf("init event pipe: %w", err)
	}

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnMessage:    app.onMQTTMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("init MQTT: %w", err)
	}

	app.web = web.New(cfg.Web, app)
	return app, nil
}

// Run starts the listeners and blocks until ctx is done or one of them
// fails.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Connect retries until it succeeds or Disconnect is called, so it stays
	// outside the group.
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			app.log.Warnf("MQTT connect: %v", err)
		}
	}()

	if app.reader != nil {
		g.Go(func() error { return app.tagListener(ctx) })
	}
	if app.web != nil {
		g.Go(func() error { return app.web.Run(ctx) })
	}
	if app.pipe != nil {
		g.Go(func() error { return app.pipe.Run(ctx) })
	}
	g.Go(func() error {
		printer.KeepAlive(ctx, app.printer, app.cfg.KeepAlive)
		return nil
	})
	g.Go(func() error {
		app.pingSender(ctx)
		return nil
	})

	return g.Wait()
}

// Close releases every component.
func (app *App) Close() {
	app.mqtt.Disconnect()
	if app.reader != nil {
		app.reader.Close()
	}
	if app.pipe != nil {
		app.pipe.Close()
	}
	if app.button != nil {
		app.button.Release()
	}
	app.indicator.Shutdown()
	app.indicator.Release()
	if err := app.printer.Close(); err != nil {
		app.log.Warnf("Close printer: %v", err)
	}
	if app.journal != nil {
		app.journal.Close()
	}
}

func (app *App) onMQTTConnect() {
	app.connected.Store(true)
	if err := app.mqtt.Subscribe(app.topics.Print()); err != nil {
		app.log.Warnf("Subscribe error: %v", err)
	}
	app.showIdle()
}

func (app *App) onMQTTDisconnect() {
	app.connected.Store(false)
	app.stateGen.Add(1)
	app.indicator.ConnectionLost()
}

func (app *App) onMQTTMessage(topic string, payload []byte) {
	if topic == app.topics.Print() {
		// keep paho's router free while the label prints
		go app.handlePrintRequest(payload)
	}
}

func (app *App) pingSender(ctx context.Context) {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.mqtt.Publish(app.topics.Ping(), `{"status":"ok"}`)
		}
	}
}

func (app *App) tagListener(ctx context.Context) error {
	for {
		tag, err := app.reader.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			app.log.Warnf("Read tag: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if tag == "" {
			continue
		}

		app.log.Infof("Tag read: %s", tag)
		app.handleTag(ctx, tag)
	}
}

func (app *App) handlePipeEvent(evt eventpipe.Event) {
	switch evt.Kind {
	case eventpipe.KindRFID:
		app.handleTag(app.ctx, evt.Tag)
	case eventpipe.KindPrint:
		app.printJob(app.ctx, job{
			source: journal.SourcePipe,
			req:    label.Request{Primary: evt.Name, Secondary: evt.SecondLine},
		})
	}
}

// handleTag resolves a scanned badge and prints its name.
func (app *App) handleTag(ctx context.Context, tag string) {
	if app.directory == nil {
		app.log.Warnf("Tag %s ignored: no name directory configured", tag)
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	name, ok, err := app.directory.Lookup(lookupCtx, tag)
	cancel()

	info := &indicator.JobInfo{Tag: tag}
	entry := journal.Entry{Source: journal.SourceRFID, Tag: tag, LabelSize: app.cfg.Label.Size}
	switch {
	case err != nil:
		app.log.Errorf("Lookup tag %s: %v", tag, err)
		info.Error = "Member lookup failed"
		entry.Status, entry.Error = journal.StatusFailed, err.Error()
		app.showResult(app.indicator.Failed, info)
	case !ok:
		app.log.Infof("Tag %s not found", tag)
		entry.Status = journal.StatusNotFound
		app.showResult(app.indicator.NotFound, info)
	default:
		app.printJob(ctx, job{source: journal.SourceRFID, tag: tag, req: label.Request{Primary: name}})
		return
	}
	app.record(ctx, entry)
}

// PrintLabel implements web.Service.
func (app *App) PrintLabel(ctx context.Context, source string, req label.Request, sizeID string) error {
	return app.printJob(ctx, job{source: source, req: req, size: sizeID})
}

// printJob renders and prints one label, then journals and publishes the
// outcome. Jobs run one at a time.
func (app *App) printJob(ctx context.Context, j job) error {
	if err := j.req.Validate(); err != nil {
		return err
	}
	if j.size == "" {
		j.size = app.cfg.Label.Size
	}
	info := &indicator.JobInfo{Tag: j.tag, Name: j.req.Primary, SecondLine: j.req.Secondary}

	app.printMu.Lock()
	defer app.printMu.Unlock()

	app.stateGen.Add(1)
	app.indicator.Busy(info)

	lbl, err := app.renderer.Render(j.req, j.size)
	if err == nil {
		var img image.Image = lbl.Image
		if app.cfg.Printer.Monochrome {
			img = lbl.Monochrome()
		}
		err = app.printer.Print(ctx, img)
	}

	entry := journal.Entry{
		Source:     j.source,
		Tag:        j.tag,
		Name:       j.req.Primary,
		SecondLine: j.req.Secondary,
		LabelSize:  j.size,
		Status:     journal.StatusPrinted,
	}
	if err != nil {
		app.log.Errorf("Print %q (%s): %v", j.req.Primary, j.source, err)
		entry.Status, entry.Error = journal.StatusFailed, err.Error()
		info.Error = failureReason(err)
		app.showResult(app.indicator.Failed, info)
	} else {
		app.log.Infof("Printed %q on %s (%s)", j.req.Primary, j.size, j.source)
		info.Preview = lbl.Image
		app.showResult(app.indicator.Printed, info)
		app.remember(j)
	}
	app.record(ctx, entry)
	return err
}

// reprint prints the last successful label again.
func (app *App) reprint() {
	app.lastMu.Lock()
	last := app.last
	app.lastMu.Unlock()

	if last == nil && app.journal != nil {
		e, ok, err := app.journal.LastPrinted(app.ctx)
		if err != nil {
			app.log.Warnf("Reprint: %v", err)
		}
		if ok {
			last = &job{tag: e.Tag, req: label.Request{Primary: e.Name, Secondary: e.SecondLine}, size: e.LabelSize}
		}
	}
	if last == nil {
		app.log.Info("Reprint: nothing printed yet")
		return
	}

	j := *last
	j.source = journal.SourceButton
	app.printJob(app.ctx, j)
}

func (app *App) remember(j job) {
	app.lastMu.Lock()
	app.last = &j
	app.lastMu.Unlock()
}

// record journals and publishes a finished job.
func (app *App) record(ctx context.Context, e journal.Entry) {
	if app.journal != nil {
		stored, err := app.journal.Record(context.WithoutCancel(ctx), e)
		if err != nil {
			app.log.Warnf("Journal: %v", err)
		} else {
			e = stored
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = app.now()
	}
	if err := app.mqtt.PublishJSON(app.topics.Printed(), e); err != nil {
		app.log.Warnf("Publish print status: %v", err)
	}
}

// showResult shows a job outcome, then returns to idle after ResultSecs
// unless a newer state has been shown since.
func (app *App) showResult(show func(*indicator.JobInfo), info *indicator.JobInfo) {
	gen := app.stateGen.Add(1)
	show(info)
	time.AfterFunc(time.Duration(app.cfg.ResultSecs)*time.Second, func() {
		if app.stateGen.Load() == gen {
			app.showIdle()
		}
	})
}

func (app *App) showIdle() {
	if app.connected.Load() {
		app.indicator.Idle()
	} else {
		app.indicator.ConnectionLost()
	}
}

// Preview implements web.Service.
func (app *App) Preview(req label.Request, sizeID string) (*label.Label, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if sizeID == "" {
		sizeID = app.cfg.Label.Size
	}
	return app.renderer.Render(req, sizeID)
}

// History implements web.Service.
func (app *App) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if app.journal == nil {
		return nil, nil
	}
	return app.journal.Recent(ctx, limit)
}

// Sizes implements web.Service.
func (app *App) Sizes() []string {
	return app.renderer.Catalog().IDs()
}

// DefaultSize implements web.Service.
func (app *App) DefaultSize() string {
	return app.cfg.Label.Size
}

// failureReason is the short text shown on the station for a failed job.
func failureReason(err error) string {
	var transport *printer.TransportError
	switch {
	case errors.Is(err, label.ErrEmptyText):
		return "No name to print"
	case errors.Is(err, label.ErrTextTooLong):
		return "Name too long"
	case errors.Is(err, label.ErrInvalidLabelSize):
		return "Unknown label size"
	case errors.As(err, &transport):
		return "Printer not responding"
	default:
		return "Print failed"
	}
}
