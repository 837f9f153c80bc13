package detect

import (
	"fmt"
	"strings"
	"sync"

	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/gallery"
)

// DefaultThreshold is the minimum similarity for a candidate.
const DefaultThreshold = 0.7

// Matcher produces every candidate detection whose similarity to a gallery
// template is at least threshold. Candidates are returned grouped by template
// ID in sorted order, row-major within a template; callers must not rely on
// any particular order.
type Matcher interface {
	Match(frame *capture.Frame, g *gallery.Gallery, threshold float64) ([]Detection, error)
}

// NewMatcher returns the matcher for backend: "ncc" (pure Go) or "opencv"
// (requires building with -tags gocv). workers > 1 searches that many
// templates concurrently.
func NewMatcher(backend string, workers int) (Matcher, error) {
	if workers <= 0 {
		workers = 1
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "ncc":
		return NewNCCMatcher(workers), nil
	case "opencv":
		return newOpenCVMatcher(workers)
	default:
		return nil, fmt.Errorf("detect: unknown match backend %q", backend)
	}
}

func validateFrame(frame *capture.Frame) error {
	if frame == nil || frame.Image == nil || frame.Width() <= 0 || frame.Height() <= 0 {
		return &InvalidFrameError{Width: frame.Width(), Height: frame.Height()}
	}
	return nil
}

// fanOut runs search for each template on up to workers goroutines and
// concatenates the results in template order.
func fanOut(templates []*gallery.Template, workers int, search func(*gallery.Template) []Detection) []Detection {
	results := make([][]Detection, len(templates))
	if workers <= 1 || len(templates) <= 1 {
		for i, t := range templates {
			results[i] = search(t)
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, t := range templates {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, t *gallery.Template) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = search(t)
			}(i, t)
		}
		wg.Wait()
	}
	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]Detection, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
