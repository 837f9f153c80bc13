package capture

import (
	"fmt"
	"image"
	"time"
)

// Region is the fixed screen window sampled by a Source.
type Region struct {
	Left, Top, Width, Height int
}

// Rect returns the region as a screen rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Left, r.Top)
}

// Frame carries one captured snapshot and its metadata. Image is opaque and
// always anchored at (0,0).
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Width returns the frame width in pixels (0 for a nil frame).
func (f *Frame) Width() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dx()
}

// Height returns the frame height in pixels (0 for a nil frame).
func (f *Frame) Height() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dy()
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil || f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Rect
}

// FrameFromImage copies img into a new opaque frame anchored at (0,0).
// Used by synthetic sources and tests.
func FrameFromImage(img image.Image) *Frame {
	if img == nil {
		return &Frame{Image: &image.RGBA{}}
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.RGBA); ok {
		copyOpaque(dst, src)
	} else {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := y*dst.Stride + x*4
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = uint8(r>>8), uint8(g>>8), uint8(bb>>8), 0xFF
			}
		}
	}
	return &Frame{Image: dst, CapturedAt: time.Now()}
}

// copyOpaque copies src pixels into dst (same size, dst at origin) and drops alpha.
func copyOpaque(dst, src *image.RGBA) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		srow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		copy(drow, srow[:w*4])
		for i := 3; i < len(drow); i += 4 {
			drow[i] = 0xFF
		}
	}
}
