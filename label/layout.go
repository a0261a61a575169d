package label

import "fmt"

// Layout holds the fixed geometry of a nametag. All values are device pixels
// or font points at 72 dpi, which makes one point one pixel.
type Layout struct {
	TopBanner    int
	BottomBanner int

	LogoSize  int
	LogoInset int

	HelloText     string
	HelloY        int
	HelloSize     float64
	CaptionText   string
	CaptionY      int
	CaptionSize   float64
	PrimaryMax    float64
	SecondaryMax  float64
	MinFontSize   float64
	FontStep      float64
	SideMargin    int // total horizontal margin, split between both sides
	SecondarySpan int // gap between the primary and secondary line boxes
}

// DefaultLayout is the "Hello, my name is" nametag.
func DefaultLayout() Layout {
	return Layout{
		TopBanner:     200,
		BottomBanner:  100,
		LogoSize:      100,
		LogoInset:     50,
		HelloText:     "Hello",
		HelloY:        0,
		HelloSize:     100,
		CaptionText:   "my name is",
		CaptionY:      115,
		CaptionSize:   50,
		PrimaryMax:    170,
		SecondaryMax:  120,
		MinFontSize:   20,
		FontStep:      5,
		SideMargin:    100,
		SecondarySpan: 40,
	}
}

// Spec is a label size resolved against a layout.
type Spec struct {
	Size
	TopBanner    int
	BottomBanner int
}

// NewSpec checks that the banners leave a content band on the label.
func NewSpec(size Size, l Layout) (Spec, error) {
	if l.TopBanner < 0 || l.BottomBanner < 0 {
		return Spec{}, fmt.Errorf("%w: negative banner height", ErrInvalidLabelSize)
	}
	if l.TopBanner+l.BottomBanner >= size.Height {
		return Spec{}, fmt.Errorf("%w: %q is %dpx tall, banners need more than %dpx",
			ErrInvalidLabelSize, size.ID, size.Height, l.TopBanner+l.BottomBanner)
	}
	if l.SideMargin >= size.Width {
		return Spec{}, fmt.Errorf("%w: %q is %dpx wide, margin is %dpx",
			ErrInvalidLabelSize, size.ID, size.Width, l.SideMargin)
	}
	return Spec{Size: size, TopBanner: l.TopBanner, BottomBanner: l.BottomBanner}, nil
}

// BandTop is the first row of the content band.
func (s Spec) BandTop() int {
	return s.TopBanner
}

// BandHeight is the height of the region between the banners.
func (s Spec) BandHeight() int {
	return s.Height - s.TopBanner - s.BottomBanner
}
