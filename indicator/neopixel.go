package indicator

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoConnectionLost = "@2 !150000 001010"
	neoIdle           = "@3 !150000 400000"
	neoBusy           = "@1 !30000 404000"
	neoPrinted        = "@1 !50000 8000"
	neoFailed         = "@2 !10000 ff"
	neoNotFound       = "@2 !20000 ff0040"
	neoTerminated     = "@0 010101"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	mu   sync.Mutex
	pipe io.WriteCloser
}

// NewNeopixel opens the neopixel tool's command pipe.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return &Neopixel{pipe: f}, nil
}

func (n *Neopixel) Idle()                 { n.write(neoIdle) }
func (n *Neopixel) Busy(job *JobInfo)     { n.write(neoBusy) }
func (n *Neopixel) Printed(job *JobInfo)  { n.write(neoPrinted) }
func (n *Neopixel) Failed(job *JobInfo)   { n.write(neoFailed) }
func (n *Neopixel) NotFound(job *JobInfo) { n.write(neoNotFound) }
func (n *Neopixel) ConnectionLost()       { n.write(neoConnectionLost) }
func (n *Neopixel) Shutdown()             { n.write(neoTerminated) }

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe == nil {
		return nil
	}
	err := n.pipe.Close()
	n.pipe = nil
	return err
}

func (n *Neopixel) write(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe != nil {
		n.pipe.Write([]byte(s + "\n"))
	}
}
