package video

import (
	"image"
	"image/color"
	"testing"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		src, area, want image.Rectangle
	}{
		// 62x100 label onto a 480x320 panel
		{image.Rect(0, 0, 1109, 696), image.Rect(0, 0, 480, 320), image.Rect(0, 9, 480, 310)},
		// tall source is bound by height
		{image.Rect(0, 0, 100, 400), image.Rect(10, 10, 210, 110), image.Rect(97, 10, 122, 110)},
		{image.Rect(0, 0, 0, 10), image.Rect(0, 0, 10, 10), image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := fitRect(tt.src, tt.area); got != tt.want {
			t.Errorf("fitRect(%v, %v) = %v, want %v", tt.src, tt.area, got, tt.want)
		}
	}
}

func TestDrawPreview(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))

	drawPreview(dst, dst.Bounds(), src)

	if got := dst.RGBAAt(50, 50); got != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("center = %v, want white", got)
	}
	if got := dst.RGBAAt(50, 5); got.A != 0 {
		t.Fatalf("letterbox = %v, want untouched", got)
	}
}

func TestPackRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{0xff, 0, 0, 0xff})
	img.SetRGBA(1, 0, color.RGBA{0, 0xff, 0, 0xff})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 0xff, 0xff})
	img.SetRGBA(1, 1, color.RGBA{0xff, 0xff, 0xff, 0xff})

	// padded rows
	stride := 6
	dst := make([]byte, 2*stride)
	packRGB565(dst, img, stride)

	want := []byte{
		0x00, 0xf8, 0xe0, 0x07, 0, 0,
		0x1f, 0x00, 0xff, 0xff, 0, 0,
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = % x, want % x", dst, want)
		}
	}
}
