package detect

import (
	"fmt"
	"image"
	"strings"

	"github.com/soocke/minimap-watch-go/domain/classify"
)

// Detection is one matched template occurrence inside a frame. Coordinates
// are frame-relative; W and H are copied from the template.
type Detection struct {
	X, Y       int
	W, H       int
	Score      float64
	TemplateID string
	Category   classify.Category
}

// Box returns the detection rectangle.
func (d Detection) Box() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.W, d.Y+d.H)
}

// Area returns W*H, or 0 for a degenerate box.
func (d Detection) Area() int {
	if d.W <= 0 || d.H <= 0 {
		return 0
	}
	return d.W * d.H
}

// Label is the overlay text for the detection.
func (d Detection) Label() string {
	return fmt.Sprintf("%s (%s)", d.TemplateID, d.Category)
}

// Summarize renders a one-line description of a detection set.
func Summarize(dets []Detection) string {
	if len(dets) == 0 {
		return "No detections"
	}
	parts := make([]string, 0, len(dets))
	for _, d := range dets {
		parts = append(parts, fmt.Sprintf("%s@%d,%d %.2f", d.Label(), d.X, d.Y, d.Score))
	}
	return fmt.Sprintf("%d detections: %s", len(dets), strings.Join(parts, ", "))
}
