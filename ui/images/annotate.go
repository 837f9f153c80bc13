package images

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/minimap-watch-go/domain/classify"
	"github.com/soocke/minimap-watch-go/domain/detect"
)

const (
	boxThickness = 2
	labelOffset  = 5 // label baseline sits this far above the box
)

var palette = map[classify.Category]color.RGBA{
	classify.Green:   {R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
	classify.Blue:    {R: 0x00, G: 0x00, B: 0xFF, A: 0xFF},
	classify.Red:     {R: 0xFF, G: 0x00, B: 0x00, A: 0xFF},
	classify.Unknown: {R: 0x80, G: 0x80, B: 0x80, A: 0xFF},
}

// CategoryColor returns the overlay colour for c.
func CategoryColor(c classify.Category) color.RGBA {
	if col, ok := palette[c]; ok {
		return col
	}
	return palette[classify.Unknown]
}

// Annotate returns a copy of frame with a rectangle and a
// "<template> (<category>)" label drawn for every detection.
func Annotate(frame *image.RGBA, dets []detect.Detection) *image.RGBA {
	if frame == nil {
		return nil
	}
	dst := image.NewRGBA(frame.Bounds())
	draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Src)
	for _, d := range dets {
		col := CategoryColor(d.Category)
		strokeRect(dst, d.Box(), col, boxThickness)
		drawLabel(dst, d.Label(), d.X, d.Y-labelOffset, col)
	}
	return dst
}

// strokeRect draws an inner border of width t around r, clipped to dst.
func strokeRect(dst *image.RGBA, r image.Rectangle, col color.RGBA, t int) {
	if r.Empty() {
		return
	}
	t = min(t, r.Dx(), r.Dy())
	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text with its baseline at (x, y), pushed down so it stays
// visible when the box touches the top edge.
func drawLabel(dst *image.RGBA, text string, x, y int, col color.RGBA) {
	face := basicfont.Face7x13
	if top := dst.Bounds().Min.Y + face.Ascent; y < top {
		y = top
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
