package indicator

import "nametags/video"

// VideoIndicator drives a framebuffer display.
type VideoIndicator struct {
	d *video.Display
}

// NewVideo opens the display. It fails with video.ErrScreenNotCompiled
// unless built with the screen tag.
func NewVideo(cfg video.Config) (*VideoIndicator, error) {
	d, err := video.New(cfg)
	if err != nil {
		return nil, err
	}
	return &VideoIndicator{d: d}, nil
}

func (vi *VideoIndicator) Idle() { vi.d.Idle() }

func (vi *VideoIndicator) Busy(job *JobInfo) {
	vi.d.Busy(jobName(job))
}

func (vi *VideoIndicator) Printed(job *JobInfo) {
	if job == nil {
		vi.d.Printed("", nil)
		return
	}
	vi.d.Printed(job.Name, job.Preview)
}

func (vi *VideoIndicator) Failed(job *JobInfo) {
	var reason string
	if job != nil {
		reason = job.Error
	}
	vi.d.Failed(jobName(job), reason)
}

func (vi *VideoIndicator) NotFound(job *JobInfo) {
	var tag string
	if job != nil {
		tag = job.Tag
	}
	vi.d.NotFound(tag)
}

func (vi *VideoIndicator) ConnectionLost() { vi.d.ConnectionLost() }
func (vi *VideoIndicator) Shutdown()       { vi.d.Shutdown() }
func (vi *VideoIndicator) Release() error  { return vi.d.Release() }

func jobName(job *JobInfo) string {
	if job == nil {
		return ""
	}
	return job.Name
}
