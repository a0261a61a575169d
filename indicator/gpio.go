package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using discrete GPIO LED pins.
//
//	Idle            all off
//	Busy            yellow
//	Printed         green
//	Failed/NotFound red
//	ConnectionLost  yellow and red
type GPIO struct {
	hw        govattu.Vattu
	greenPin  *uint8
	yellowPin *uint8
	redPin    *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(greenPin, yellowPin, redPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{
		hw:        hw,
		greenPin:  greenPin,
		yellowPin: yellowPin,
		redPin:    redPin,
	}

	for _, pin := range g.pins() {
		hw.PinMode(*pin, govattu.ALToutput)
		hw.PinClear(*pin)
	}
	return g, nil
}

func (g *GPIO) pins() []*uint8 {
	var pins []*uint8
	for _, p := range []*uint8{g.greenPin, g.yellowPin, g.redPin} {
		if p != nil {
			pins = append(pins, p)
		}
	}
	return pins
}

// show lights exactly the given pins.
func (g *GPIO) show(on ...*uint8) {
	for _, pin := range g.pins() {
		g.hw.PinClear(*pin)
	}
	for _, pin := range on {
		if pin != nil {
			g.hw.PinSet(*pin)
		}
	}
}

func (g *GPIO) Idle()                 { g.show() }
func (g *GPIO) Busy(job *JobInfo)     { g.show(g.yellowPin) }
func (g *GPIO) Printed(job *JobInfo)  { g.show(g.greenPin) }
func (g *GPIO) Failed(job *JobInfo)   { g.show(g.redPin) }
func (g *GPIO) NotFound(job *JobInfo) { g.show(g.redPin) }
func (g *GPIO) ConnectionLost()       { g.show(g.yellowPin, g.redPin) }
func (g *GPIO) Shutdown()             { g.show() }

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.show()
	return g.hw.Close()
}
