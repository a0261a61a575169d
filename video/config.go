package video

import "errors"

// ErrScreenNotCompiled is returned when screen support was not compiled in.
var ErrScreenNotCompiled = errors.New("screen support not compiled in (build with -tags=screen)")

// Config holds display settings.
type Config struct {
	Device   string `yaml:"device"`
	FontPath string `yaml:"font_path"`
}

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = "/dev/fb0"
	}
	if c.FontPath == "" {
		c.FontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	}
	return c
}
