package indicator

import "errors"

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// NewMulti fans every state out to each of indicators.
func NewMulti(indicators ...Indicator) *Multi {
	return &Multi{indicators: indicators}
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() {
	for _, ind := range m.indicators {
		ind.Idle()
	}
}

// Busy implements Indicator.Busy.
func (m *Multi) Busy(job *JobInfo) {
	for _, ind := range m.indicators {
		ind.Busy(job)
	}
}

// Printed implements Indicator.Printed.
func (m *Multi) Printed(job *JobInfo) {
	for _, ind := range m.indicators {
		ind.Printed(job)
	}
}

// Failed implements Indicator.Failed.
func (m *Multi) Failed(job *JobInfo) {
	for _, ind := range m.indicators {
		ind.Failed(job)
	}
}

// NotFound implements Indicator.NotFound.
func (m *Multi) NotFound(job *JobInfo) {
	for _, ind := range m.indicators {
		ind.NotFound(job)
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var errs []error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
