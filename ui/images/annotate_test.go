package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/soocke/minimap-watch-go/domain/classify"
	"github.com/soocke/minimap-watch-go/domain/detect"
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

func countColour(img *image.RGBA, r image.Rectangle, c color.RGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestAnnotate_DrawsBoxInCategoryColour(t *testing.T) {
	frame := blank(120, 80)
	dets := []detect.Detection{
		{X: 10, Y: 30, W: 20, H: 20, TemplateID: "ana", Category: classify.Green},
		{X: 60, Y: 30, W: 20, H: 20, TemplateID: "zed", Category: classify.Unknown},
	}
	out := Annotate(frame, dets)
	if out == frame {
		t.Fatal("Annotate must return a copy")
	}
	if c := frame.RGBAAt(10, 30); c != (color.RGBA{A: 0xFF}) {
		t.Fatalf("input frame modified: %+v", c)
	}
	green := CategoryColor(classify.Green)
	if c := out.RGBAAt(10, 30); c != green {
		t.Fatalf("expected green corner, got %+v", c)
	}
	if c := out.RGBAAt(29, 49); c != green {
		t.Fatalf("expected green opposite corner, got %+v", c)
	}
	if c := out.RGBAAt(20, 40); c != (color.RGBA{A: 0xFF}) {
		t.Fatalf("box interior should be untouched, got %+v", c)
	}
	grey := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	if c := out.RGBAAt(61, 31); c != grey {
		t.Fatalf("expected grey UNKNOWN border, got %+v", c)
	}
}

func TestAnnotate_LabelAboveBox(t *testing.T) {
	frame := blank(200, 60)
	out := Annotate(frame, []detect.Detection{{X: 5, Y: 30, W: 10, H: 10, TemplateID: "hero", Category: classify.Red}})
	red := CategoryColor(classify.Red)
	if countColour(out, image.Rect(5, 0, 200, 26), red) == 0 {
		t.Fatal("expected label text above the box")
	}
}

func TestScaleToFit(t *testing.T) {
	src := blank(300, 150)
	got := ScaleToFit(src, 100, 100)
	if b := got.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("unexpected scaled size %v", b)
	}
	small := blank(20, 10)
	if ScaleToFit(small, 100, 100) != image.Image(small) {
		t.Fatal("image that fits should be returned unchanged")
	}
}

func TestEncodePNG(t *testing.T) {
	if len(EncodePNG(blank(4, 4))) == 0 {
		t.Fatal("expected png bytes")
	}
	if EncodePNG(nil) != nil {
		t.Fatal("nil image should encode to nil")
	}
}
