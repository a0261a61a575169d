package label

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidLabelSize is returned when a label size identifier is not in the
// catalog or the size cannot hold the banners.
var ErrInvalidLabelSize = errors.New("invalid label size")

// Size is a physical label in device pixels. Width runs across the printed
// text and Height from the top banner to the bottom banner.
type Size struct {
	ID     string `yaml:"id"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Brother QL die-cut labels at 300 dpi. The vendor lists printable dots as
// (height, width) of the canvas, so most sizes come out landscape and the
// short die-cut ones portrait.
var defaultSizes = []Size{
	{ID: "17x54", Width: 566, Height: 165},
	{ID: "17x87", Width: 956, Height: 165},
	{ID: "23x23", Width: 202, Height: 202},
	{ID: "29x42", Width: 425, Height: 306},
	{ID: "29x90", Width: 991, Height: 306},
	{ID: "39x90", Width: 991, Height: 413},
	{ID: "39x48", Width: 495, Height: 425},
	{ID: "52x29", Width: 271, Height: 578},
	{ID: "54x29", Width: 271, Height: 598},
	{ID: "60x86", Width: 954, Height: 672},
	{ID: "62x29", Width: 271, Height: 696},
	{ID: "62x100", Width: 1109, Height: 696},
	{ID: "102x51", Width: 526, Height: 1164},
	{ID: "102x152", Width: 1660, Height: 1164},
}

// Catalog maps label size identifiers to canvas dimensions.
type Catalog struct {
	sizes map[string]Size
}

// NewCatalog builds a catalog from the built-in sizes plus extra. Entries in
// extra replace built-in sizes with the same ID.
func NewCatalog(extra ...Size) (*Catalog, error) {
	c := &Catalog{sizes: make(map[string]Size, len(defaultSizes)+len(extra))}
	for _, s := range defaultSizes {
		c.sizes[s.ID] = s
	}
	for _, s := range extra {
		if s.ID == "" {
			return nil, fmt.Errorf("label size without id")
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("label size %q: dimensions must be positive", s.ID)
		}
		c.sizes[s.ID] = s
	}
	return c, nil
}

// Lookup returns the size registered under id.
func (c *Catalog) Lookup(id string) (Size, error) {
	s, ok := c.sizes[id]
	if !ok {
		return Size{}, fmt.Errorf("%w: %q is not a known label identifier", ErrInvalidLabelSize, id)
	}
	return s, nil
}

// IDs returns the known identifiers in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.sizes))
	for id := range c.sizes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
