//go:build screen

package video

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Display shows station status and label previews on a framebuffer.
type Display struct {
	mu              sync.Mutex
	cfg             Config
	log             *zap.SugaredLogger
	dc              *gg.Context
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	width           int
	height          int
	lineLengthBytes int
	initialized     bool
}

// New opens the framebuffer.
func New(cfg Config) (*Display, error) {
	d := &Display{cfg: cfg.withDefaults(), log: zap.S().Named("video")}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Display) init() error {
	fbLowLevel, err := framebuffer.OpenFrameBuffer(d.cfg.Device, os.O_RDWR)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return fmt.Errorf("get fixed screen info: %w", err)
	}
	if varInfo.BitsPerPixel != 16 {
		return fmt.Errorf("framebuffer is %d bpp, only 16 bpp is supported", varInfo.BitsPerPixel)
	}

	d.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return fmt.Errorf("get pixel data: %w", err)
	}

	d.width = int(varInfo.XRes)
	d.height = int(varInfo.YRes)
	d.lineLengthBytes = int(fixedInfo.LineLength)
	d.backBuffer = make([]byte, d.height*d.lineLengthBytes)

	d.log.Infof("Framebuffer %dx%d, %d bpp, stride %d bytes",
		d.width, d.height, varInfo.BitsPerPixel, d.lineLengthBytes)

	d.rgbaImage = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.dc = gg.NewContextForRGBA(d.rgbaImage)
	d.initialized = true

	d.clear()
	return nil
}

func (d *Display) clear() {
	for i := range d.pixBuffer {
		d.pixBuffer[i] = 0
	}
}

func (d *Display) update() {
	packRGB565(d.backBuffer, d.rgbaImage, d.lineLengthBytes)
	copy(d.pixBuffer, d.backBuffer)
}

func (d *Display) setFontSize(size float64) {
	if err := d.dc.LoadFontFace(d.cfg.FontPath, size); err != nil {
		d.log.Warnf("Failed to load font: %v", err)
	}
}

func (d *Display) background(r, g, b float64) {
	d.dc.SetRGB(r, g, b)
	d.dc.DrawRectangle(0, 0, float64(d.width), float64(d.height))
	d.dc.Fill()
}

func (d *Display) drawCentered(text string, y float64, r, g, b float64) {
	d.dc.SetRGB(r, g, b)
	d.dc.DrawStringAnchored(text, float64(d.width/2), y, 0.5, 0.5)
}

// screen draws a full-screen status with a title and an optional detail
// line.
func (d *Display) screen(title, detail string, bg [3]float64, fg [3]float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}

	d.background(bg[0], bg[1], bg[2])
	y := float64(d.height / 2)
	if detail != "" {
		y -= 35
	}
	d.setFontSize(64)
	d.drawCentered(title, y, fg[0], fg[1], fg[2])
	if detail != "" {
		d.setFontSize(40)
		d.drawCentered(detail, y+70, fg[0], fg[1], fg[2])
	}
	d.update()
}

var (
	white  = [3]float64{1, 1, 1}
	black  = [3]float64{0, 0, 0}
	green  = [3]float64{0, 0.5, 0}
	yellow = [3]float64{0.7, 0.7, 0}
	red    = [3]float64{0.7, 0, 0}
	orange = [3]float64{0.5, 0.3, 0}
)

// Idle shows the ready screen.
func (d *Display) Idle() {
	d.screen("Scan your badge", "", green, white)
}

// Busy shows that a label is being printed.
func (d *Display) Busy(name string) {
	d.screen("Printing...", name, yellow, black)
}

// Printed shows a scaled preview of the printed label below its caption.
func (d *Display) Printed(name string, preview image.Image) {
	if preview == nil {
		d.screen("Printed", name, green, white)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}

	d.background(0.1, 0.1, 0.1)
	d.setFontSize(40)
	d.drawCentered("Printed", 40, 1, 1, 1)
	margin := d.width / 20
	drawPreview(d.rgbaImage, image.Rect(margin, 80, d.width-margin, d.height-margin), preview)
	d.update()
}

// Failed shows a print failure.
func (d *Display) Failed(name, reason string) {
	d.screen("Print failed", reason, red, white)
}

// NotFound shows an unknown badge.
func (d *Display) NotFound(tag string) {
	d.screen("Badge not recognized", tag, red, white)
}

// ConnectionLost shows that the broker is unreachable.
func (d *Display) ConnectionLost() {
	d.screen("Connection Lost", "", orange, white)
}

// Shutdown blanks the screen.
func (d *Display) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	d.clear()
}

// Release blanks the screen and stops drawing.
func (d *Display) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	d.initialized = false
	return nil
}

// Width returns the display width.
func (d *Display) Width() int {
	return d.width
}

// Height returns the display height.
func (d *Display) Height() int {
	return d.height
}
