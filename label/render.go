package label

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ErrEmptyText is returned when the primary text is empty after trimming.
var ErrEmptyText = errors.New("primary text is empty")

// ErrTextTooLong is returned by Validate for a line over MaxTextRunes.
var ErrTextTooLong = errors.New("text too long")

// MaxTextRunes bounds each line accepted from forms, pipes and remote
// commands. Render itself takes any length and truncates.
const MaxTextRunes = 256

var (
	bannerColor   = color.Black
	contrastColor = color.White
	textColor     = color.Black
)

// Request is the text to put on one label. An empty or whitespace-only
// Secondary means there is no second line.
type Request struct {
	Primary   string
	Secondary string
}

func (r Request) normalize() (Request, error) {
	r.Primary = strings.TrimSpace(r.Primary)
	r.Secondary = strings.TrimSpace(r.Secondary)
	if r.Primary == "" {
		return r, ErrEmptyText
	}
	return r, nil
}

// Validate checks a request arriving from outside the station before it is
// queued for printing.
func (r Request) Validate() error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Primary) > MaxTextRunes || utf8.RuneCountInString(r.Secondary) > MaxTextRunes {
		return fmt.Errorf("%w: lines are limited to %d characters", ErrTextTooLong, MaxTextRunes)
	}
	return nil
}

// Placement describes where a line of text ended up. Top and Bottom are the
// rows of the box the line was stacked with: the line box for a single line,
// the ink box when there are two.
type Placement struct {
	Text      string
	FontSize  float64
	Width     int
	Baseline  int
	Top       int
	Bottom    int
	Truncated bool
}

// Label is a rendered nametag. The image is not touched again by the
// renderer; callers own it.
type Label struct {
	Spec      Spec
	Image     *image.RGBA
	Primary   Placement
	Secondary *Placement
}

// Renderer lays out nametags. It holds no mutable state, so a single
// Renderer may be used from several goroutines.
type Renderer struct {
	assets  *Assets
	catalog *Catalog
	layout  Layout
}

// NewRenderer creates a renderer for the given assets and label catalog.
func NewRenderer(assets *Assets, catalog *Catalog, layout Layout) *Renderer {
	return &Renderer{assets: assets, catalog: catalog, layout: layout}
}

// Catalog returns the label sizes the renderer knows about.
func (r *Renderer) Catalog() *Catalog {
	return r.catalog
}

// Render draws req onto a label of the given size. It either returns a
// complete image of exactly the catalog dimensions or an error.
func (r *Renderer) Render(req Request, sizeID string) (*Label, error) {
	size, err := r.catalog.Lookup(sizeID)
	if err != nil {
		return nil, err
	}
	spec, err := NewSpec(size, r.layout)
	if err != nil {
		return nil, err
	}
	req, err = req.normalize()
	if err != nil {
		return nil, err
	}

	l := r.layout
	maxWidth := spec.Width - l.SideMargin

	primary, err := fitText(r.assets.Regular, req.Primary, l.PrimaryMax, l.FontStep, l.MinFontSize, maxWidth)
	if err != nil {
		return nil, fmt.Errorf("fit primary text: %w", err)
	}
	var secondary *fitted
	defer func() {
		primary.face.Close()
		if secondary != nil {
			secondary.face.Close()
		}
	}()
	if req.Secondary != "" {
		secondary, err = fitText(r.assets.Regular, req.Secondary, l.SecondaryMax, l.FontStep, l.MinFontSize, maxWidth)
		if err != nil {
			return nil, fmt.Errorf("fit secondary text: %w", err)
		}
	}
	primary, secondary, err = r.fitBand(spec, primary, secondary, maxWidth)
	if err != nil {
		return nil, err
	}

	hello, err := newFace(r.assets.Regular, l.HelloSize)
	if err != nil {
		return nil, err
	}
	defer hello.Close()
	caption, err := newFace(r.assets.SemiBold, l.CaptionSize)
	if err != nil {
		return nil, err
	}
	defer caption.Close()

	logo, err := r.assets.rasterLogo(l.LogoSize)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.White)
	dc.Clear()

	w := float64(spec.Width)
	centerX := w / 2

	dc.SetColor(bannerColor)
	dc.DrawRectangle(0, 0, w, float64(spec.TopBanner))
	dc.Fill()
	dc.DrawRectangle(0, float64(spec.Height-spec.BottomBanner), w, float64(spec.BottomBanner))
	dc.Fill()

	logoY := (spec.TopBanner - l.LogoSize) / 2
	dc.DrawImage(logo, l.LogoInset, logoY)
	dc.DrawImage(logo, spec.Width-l.LogoSize-l.LogoInset, logoY)

	dc.SetColor(contrastColor)
	dc.SetFontFace(hello)
	dc.DrawStringAnchored(l.HelloText, centerX, float64(l.HelloY+hello.Metrics().Ascent.Ceil()), 0.5, 0)
	dc.SetFontFace(caption)
	dc.DrawStringAnchored(l.CaptionText, centerX, float64(l.CaptionY+caption.Metrics().Ascent.Ceil()), 0.5, 0)

	out := &Label{Spec: spec, Image: img}

	bandTop, bandHeight := spec.BandTop(), spec.BandHeight()
	dc.SetColor(textColor)
	if secondary == nil {
		top := bandTop + (bandHeight-primary.lineHeight())/2
		out.Primary = placement(primary, top, top+primary.lineHeight(), top+primary.ascent)
	} else {
		// Two lines stack on their ink boxes with the gap between them.
		top := bandTop + (bandHeight-blockHeight(primary, secondary, l.SecondarySpan))/2
		out.Primary = placement(primary, top, top+primary.inkHeight(), top+primary.inkTop)
		top += primary.inkHeight() + l.SecondarySpan
		second := placement(secondary, top, top+secondary.inkHeight(), top+secondary.inkTop)
		out.Secondary = &second

		dc.SetFontFace(secondary.face)
		dc.DrawStringAnchored(secondary.text, centerX, float64(second.Baseline), 0.5, 0)
	}
	dc.SetFontFace(primary.face)
	dc.DrawStringAnchored(primary.text, centerX, float64(out.Primary.Baseline), 0.5, 0)

	return out, nil
}

// fitBand shrinks both lines together while the text block is taller than
// the content band, stopping at the minimum font size. Replaced faces are
// closed; on error the lines passed in are returned unchanged.
func (r *Renderer) fitBand(spec Spec, primary, secondary *fitted, maxWidth int) (*fitted, *fitted, error) {
	l := r.layout
	for blockHeight(primary, secondary, l.SecondarySpan) > spec.BandHeight() {
		shrunk := false
		if primary.size-l.FontStep >= l.MinFontSize {
			p, err := fitText(r.assets.Regular, primary.source, primary.size-l.FontStep, l.FontStep, l.MinFontSize, maxWidth)
			if err != nil {
				return primary, secondary, err
			}
			primary.face.Close()
			primary, shrunk = p, true
		}
		if secondary != nil && secondary.size-l.FontStep >= l.MinFontSize {
			s, err := fitText(r.assets.Regular, secondary.source, secondary.size-l.FontStep, l.FontStep, l.MinFontSize, maxWidth)
			if err != nil {
				return primary, secondary, err
			}
			secondary.face.Close()
			secondary, shrunk = s, true
		}
		if !shrunk {
			break
		}
	}
	return primary, secondary, nil
}

// blockHeight is the line box of a single line, or the two ink boxes plus
// the gap.
func blockHeight(primary, secondary *fitted, span int) int {
	if secondary == nil {
		return primary.lineHeight()
	}
	return primary.inkHeight() + span + secondary.inkHeight()
}

func placement(f *fitted, top, bottom, baseline int) Placement {
	return Placement{
		Text:      f.text,
		FontSize:  f.size,
		Width:     f.width,
		Baseline:  baseline,
		Top:       top,
		Bottom:    bottom,
		Truncated: f.truncated,
	}
}

// rasterLogo parses the logo from its source bytes on every call so that no
// icon state is shared between renders.
func (a *Assets) rasterLogo(size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(a.logo))
	if err != nil {
		return nil, fmt.Errorf("parse logo: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// Monochrome returns a 1-bit copy of the label for e-paper panels and
// thermal heads. Index 0 is white, index 1 is black.
func (l *Label) Monochrome() *image.Paletted {
	b := l.Image.Bounds()
	out := image.NewPaletted(b, color.Palette{color.White, color.Black})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(l.Image.At(x, y)).(color.Gray)
			if g.Y < 0x80 {
				out.SetColorIndex(x, y, 1)
			}
		}
	}
	return out
}

// WritePNG encodes the label image as PNG.
func (l *Label) WritePNG(w io.Writer) error {
	return png.Encode(w, l.Image)
}
