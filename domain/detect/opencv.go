//go:build gocv

package detect

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/gallery"
)

// opencvMatcher runs cv::matchTemplate with TM_CCOEFF_NORMED. Template mats
// are converted once and kept for the life of the matcher.
type opencvMatcher struct {
	workers int

	mu   sync.Mutex
	mats map[*gallery.Template]gocv.Mat
}

func newOpenCVMatcher(workers int) (Matcher, error) {
	return &opencvMatcher{workers: workers, mats: make(map[*gallery.Template]gocv.Mat)}, nil
}

func (m *opencvMatcher) Match(frame *capture.Frame, g *gallery.Gallery, threshold float64) ([]Detection, error) {
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	templates := g.Templates()
	if len(templates) == 0 {
		return []Detection{}, nil
	}
	screen, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("detect: frame to mat: %w", err)
	}
	defer screen.Close()

	var firstErr error
	var errMu sync.Mutex
	out := fanOut(templates, m.workers, func(t *gallery.Template) []Detection {
		if t.W > frame.Width() || t.H > frame.Height() {
			return nil
		}
		tm, err := m.mat(t)
		if err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
			return nil
		}
		result := gocv.NewMat()
		defer result.Close()
		mask := gocv.NewMat()
		defer mask.Close()
		gocv.MatchTemplate(screen, tm, &result, gocv.TmCcoeffNormed, mask)
		var dets []Detection
		for y := 0; y < result.Rows(); y++ {
			for x := 0; x < result.Cols(); x++ {
				score := float64(result.GetFloatAt(y, x))
				if score >= threshold {
					dets = append(dets, Detection{X: x, Y: y, W: t.W, H: t.H, Score: min(score, 1), TemplateID: t.ID})
				}
			}
		}
		return dets
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (m *opencvMatcher) mat(t *gallery.Template) (gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat, ok := m.mats[t]; ok {
		return mat, nil
	}
	mat, err := gocv.ImageToMatRGB(t.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("detect: template %s to mat: %w", t.ID, err)
	}
	m.mats[t] = mat
	return mat, nil
}
