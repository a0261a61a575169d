package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

func (n *Noop) Idle()                 {}
func (n *Noop) Busy(job *JobInfo)     {}
func (n *Noop) Printed(job *JobInfo)  {}
func (n *Noop) Failed(job *JobInfo)   {}
func (n *Noop) NotFound(job *JobInfo) {}
func (n *Noop) ConnectionLost()       {}
func (n *Noop) Shutdown()             {}
func (n *Noop) Release() error        { return nil }
