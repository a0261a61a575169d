package label

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

const ellipsis = "…"

// fitted is a line of text bound to the face it will be drawn with.
type fitted struct {
	face      font.Face
	source    string
	text      string
	size      float64
	width     int
	ascent    int
	descent   int
	inkTop    int // ink extent above the baseline
	inkBottom int // ink extent below the baseline
	truncated bool
}

func (f *fitted) lineHeight() int {
	return f.ascent + f.descent
}

func (f *fitted) inkHeight() int {
	return f.inkTop + f.inkBottom
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face at %.1fpt: %w", size, err)
	}
	return face, nil
}

// inkWidth is the width of the glyph bounding box, not the advance.
func inkWidth(face font.Face, s string) int {
	bounds, _ := font.BoundString(face, s)
	return (bounds.Max.X - bounds.Min.X).Ceil()
}

// fitText walks the font size down from start in step decrements until text
// fits in maxWidth. Sizes never go below floor; text that is still too wide at
// the floor is truncated with an ellipsis.
func fitText(f *opentype.Font, text string, start, step, floor float64, maxWidth int) (*fitted, error) {
	if step <= 0 {
		return nil, fmt.Errorf("font step must be positive, got %v", step)
	}

	runes := []rune(text)
	size := start
	for {
		face, err := newFace(f, size)
		if err != nil {
			return nil, err
		}
		over := overflowAt(face, runes, maxWidth)
		if over < 0 {
			return measure(face, text, text, size, false), nil
		}
		if size-step < floor {
			return truncate(face, runes, over, size, maxWidth), nil
		}
		face.Close()
		size -= step
	}
}

// overflowAt returns the length of a prefix of runes already wider than
// maxWidth, or -1 if the whole text fits. Prefixes double in length, so long
// text costs little more than the part that fits.
func overflowAt(face font.Face, runes []rune, maxWidth int) int {
	for n := 16; ; n *= 2 {
		if n >= len(runes) {
			if inkWidth(face, string(runes)) > maxWidth {
				return len(runes)
			}
			return -1
		}
		if inkWidth(face, string(runes[:n])) > maxWidth {
			return n
		}
	}
}

// truncate keeps the longest prefix that still fits with an ellipsis
// appended. Width only grows with the prefix, so the prefix length is found by
// bisection below over, a prefix length known not to fit.
func truncate(face font.Face, runes []rune, over int, size float64, maxWidth int) *fitted {
	candidate := func(n int) string {
		if n == 0 {
			return ellipsis
		}
		return strings.TrimRight(string(runes[:n]), " ") + ellipsis
	}

	lo, hi := 0, len(runes)-1
	if over > 0 && over-1 < hi {
		hi = over - 1
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if inkWidth(face, candidate(mid)) <= maxWidth {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return measure(face, string(runes), candidate(lo), size, true)
}

func measure(face font.Face, source, text string, size float64, truncated bool) *fitted {
	m := face.Metrics()
	bounds, _ := font.BoundString(face, text)
	return &fitted{
		face:      face,
		source:    source,
		text:      text,
		size:      size,
		width:     (bounds.Max.X - bounds.Min.X).Ceil(),
		ascent:    m.Ascent.Ceil(),
		descent:   m.Descent.Ceil(),
		inkTop:    (-bounds.Min.Y).Ceil(),
		inkBottom: bounds.Max.Y.Ceil(),
		truncated: truncated,
	}
}
