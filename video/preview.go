package video

import (
	"encoding/binary"
	"image"

	"golang.org/x/image/draw"
)

// fitRect returns the largest rectangle with src's aspect ratio that fits
// inside area, centered in it.
func fitRect(src, area image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	aw, ah := area.Dx(), area.Dy()
	if sw <= 0 || sh <= 0 || aw <= 0 || ah <= 0 {
		return image.Rectangle{}
	}

	w, h := aw, sh*aw/sw
	if h > ah {
		w, h = sw*ah/sh, ah
	}
	x := area.Min.X + (aw-w)/2
	y := area.Min.Y + (ah-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// drawPreview scales img into area of dst.
func drawPreview(dst *image.RGBA, area image.Rectangle, img image.Image) {
	r := fitRect(img.Bounds(), area)
	if r.Empty() {
		return
	}
	draw.CatmullRom.Scale(dst, r, img, img.Bounds(), draw.Over, nil)
}

// packRGB565 converts img into the 16 bpp little-endian layout of the
// framebuffer, stride bytes per row.
func packRGB565(dst []byte, img *image.RGBA, stride int) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			idx := y*stride + x*2
			if idx+1 >= len(dst) {
				return
			}
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			pixel := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
			binary.LittleEndian.PutUint16(dst[idx:], pixel)
		}
	}
}
