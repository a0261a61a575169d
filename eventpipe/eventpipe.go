// Package eventpipe accepts scans and print requests on a named pipe so a
// station can be driven without reader hardware.
package eventpipe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"nametags/label"
)

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // Path to named pipe (e.g., "/tmp/nametags-events")
}

// Kind identifies an event.
type Kind int

const (
	// KindRFID is a simulated badge scan.
	KindRFID Kind = iota
	// KindPrint prints a name directly, skipping lookup.
	KindPrint
)

func (k Kind) String() string {
	switch k {
	case KindRFID:
		return "rfid"
	case KindPrint:
		return "print"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one parsed pipe command.
type Event struct {
	Kind       Kind
	Tag        string
	Name       string
	SecondLine string
}

// EventHandler is called when an event is received from the pipe.
type EventHandler func(Event)

// EventPipe listens for events on a named pipe.
type EventPipe struct {
	path    string
	handler EventHandler
	log     *zap.SugaredLogger
}

// New creates the named pipe. Returns nil if path is empty.
func New(cfg Config, handler EventHandler) (*EventPipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	os.Remove(cfg.Path)
	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	return &EventPipe{
		path:    cfg.Path,
		handler: handler,
		log:     zap.S().Named("eventpipe"),
	}, nil
}

// Run reads commands until ctx is done.
func (ep *EventPipe) Run(ctx context.Context) error {
	// read-write keeps the pipe open across writers, so there is no EOF
	// between them and Close unblocks the pending read
	file, err := os.OpenFile(ep.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open named pipe: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		file.Close()
	}()

	ep.log.Infof("Event pipe listening on %s", ep.path)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		event, err := parseLine(line)
		if err != nil {
			ep.log.Warnf("Event pipe parse error: %v", err)
			continue
		}

		if ep.handler != nil {
			ep.handler(event)
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("read named pipe: %w", err)
	}
	return nil
}

// Close removes the pipe.
func (ep *EventPipe) Close() error {
	return os.Remove(ep.path)
}

// parseLine parses a command line into an Event.
// Command format:
//
//	rfid <tag>                      - Simulated badge scan
//	tag <tag>                       - Alias for rfid
//	print <name>[|<second line>]    - Print a name without lookup
func parseLine(line string) (Event, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "rfid", "tag":
		if rest == "" {
			return Event{}, fmt.Errorf("rfid requires tag ID")
		}
		if strings.ContainsFunc(rest, func(r rune) bool { return r < '0' || r > '9' }) {
			return Event{}, fmt.Errorf("invalid tag ID: %s", rest)
		}
		return Event{Kind: KindRFID, Tag: rest}, nil

	case "print":
		name, second, _ := strings.Cut(rest, "|")
		evt := Event{Kind: KindPrint, Name: strings.TrimSpace(name), SecondLine: strings.TrimSpace(second)}
		if err := (label.Request{Primary: evt.Name, Secondary: evt.SecondLine}).Validate(); err != nil {
			return Event{}, fmt.Errorf("print: %w", err)
		}
		return evt, nil

	default:
		return Event{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
