package classify

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/soocke/minimap-watch-go/domain/capture"
)

// ColorRange is an inclusive per-channel RGB box mapped to a category.
type ColorRange struct {
	Category Category
	Lower    [3]uint8
	Upper    [3]uint8
}

// Contains reports whether every channel of c lies within the bounds.
func (r ColorRange) Contains(c [3]float64) bool {
	for i := 0; i < 3; i++ {
		if c[i] < float64(r.Lower[i]) || c[i] > float64(r.Upper[i]) {
			return false
		}
	}
	return true
}

// DefaultRanges is the stock border table. Values are RGB.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{Category: Green, Lower: [3]uint8{0, 200, 0}, Upper: [3]uint8{50, 255, 50}},
		{Category: Blue, Lower: [3]uint8{0, 0, 200}, Upper: [3]uint8{50, 50, 255}},
		{Category: Red, Lower: [3]uint8{200, 0, 0}, Upper: [3]uint8{255, 50, 50}},
	}
}

// Boxed is anything with a frame-relative bounding box.
type Boxed interface {
	Box() image.Rectangle
}

// InvalidRegionError reports a box that is empty or leaves the frame.
type InvalidRegionError struct {
	Box    image.Rectangle
	Bounds image.Rectangle
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("classify: box %v outside frame %v", e.Box, e.Bounds)
}

// Classifier buckets the mean colour of a box into the first matching range.
// Ranges are checked in order; overlapping ranges resolve to the earlier one.
type Classifier struct {
	ranges []ColorRange
}

// NewClassifier validates ranges and returns a classifier over a copy of them.
func NewClassifier(ranges []ColorRange) (*Classifier, error) {
	var errs []error
	for i, r := range ranges {
		if r.Category == Unknown {
			errs = append(errs, fmt.Errorf("classify: range %d maps to UNKNOWN", i))
		}
		for ch := 0; ch < 3; ch++ {
			if r.Lower[ch] > r.Upper[ch] {
				errs = append(errs, fmt.Errorf("classify: range %d (%s) lower > upper on channel %d", i, r.Category, ch))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Classifier{ranges: append([]ColorRange(nil), ranges...)}, nil
}

// Ranges returns a copy of the configured table.
func (c *Classifier) Ranges() []ColorRange {
	return append([]ColorRange(nil), c.ranges...)
}

// Classify returns the category of the mean colour inside det's box.
func (c *Classifier) Classify(frame *capture.Frame, det Boxed) (Category, error) {
	mean, err := MeanColor(frame, det.Box())
	if err != nil {
		return Unknown, err
	}
	return c.Bucket(mean), nil
}

// Bucket maps a mean colour to a category.
func (c *Classifier) Bucket(mean [3]float64) Category {
	for _, r := range c.ranges {
		if r.Contains(mean) {
			return r.Category
		}
	}
	return Unknown
}

// MeanColor returns the per-channel RGB mean of box within frame.
func MeanColor(frame *capture.Frame, box image.Rectangle) ([3]float64, error) {
	var mean [3]float64
	bounds := frame.Bounds()
	if box.Empty() || !box.In(bounds) {
		return mean, &InvalidRegionError{Box: box, Bounds: bounds}
	}
	img := frame.Image
	n := box.Dx() * box.Dy()
	var ch [3][]float64
	for i := range ch {
		ch[i] = make([]float64, 0, n)
	}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		row := img.Pix[img.PixOffset(box.Min.X, y):]
		for x := 0; x < box.Dx(); x++ {
			for i := 0; i < 3; i++ {
				ch[i] = append(ch[i], float64(row[x*4+i]))
			}
		}
	}
	for i := range ch {
		mean[i] = stat.Mean(ch[i], nil)
	}
	return mean, nil
}
