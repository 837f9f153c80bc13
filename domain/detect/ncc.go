package detect

import (
	"image"
	"math"
	"sync"

	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/gallery"
)

// Colour normalized cross-correlation, equivalent to OpenCV TM_CCOEFF_NORMED
// on three channels:
//
//	score = sum_c sum_i F_c(i)*T'_c(i) / sqrt(sum_c var(F_c) * sum_c var(T_c))
//
// where T' is the template with its per-channel mean removed. Because T'
// sums to zero per channel the frame mean drops out of the numerator, and
// the frame variance comes from summed-area tables in O(1) per window.

const varEpsilon = 1e-9

// framePrecomp stores per-channel frame values and their integral images.
type framePrecomp struct {
	ch         [3][]float64
	integral   [3][]float64
	integralSq [3][]float64
	W, H       int
}

// templatePrecomp caches mean-removed channel values and variance for one
// template.
type templatePrecomp struct {
	dev    [3][]float64
	varSum float64
	flat   bool
	color  [3]float64
	W, H   int
}

// NCCMatcher is the pure-Go matcher. Template statistics are cached per
// template, so one matcher can be reused across cycles and galleries.
type NCCMatcher struct {
	workers int

	mu    sync.RWMutex
	cache map[*gallery.Template]*templatePrecomp
}

// NewNCCMatcher returns a matcher that searches up to workers templates
// concurrently.
func NewNCCMatcher(workers int) *NCCMatcher {
	if workers <= 0 {
		workers = 1
	}
	return &NCCMatcher{workers: workers, cache: make(map[*gallery.Template]*templatePrecomp)}
}

func (m *NCCMatcher) Match(frame *capture.Frame, g *gallery.Gallery, threshold float64) ([]Detection, error) {
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	templates := g.Templates()
	if len(templates) == 0 {
		return []Detection{}, nil
	}
	pre := buildFramePrecomp(frame.Image)
	return fanOut(templates, m.workers, func(t *gallery.Template) []Detection {
		if t.W > pre.W || t.H > pre.H {
			return nil
		}
		return matchAll(pre, m.precomp(t), t.ID, threshold)
	}), nil
}

// precomp returns the cached statistics for t, building them on first use.
func (m *NCCMatcher) precomp(t *gallery.Template) *templatePrecomp {
	m.mu.RLock()
	pc := m.cache[t]
	m.mu.RUnlock()
	if pc != nil {
		return pc
	}
	pc = buildTemplatePrecomp(t.Image)
	m.mu.Lock()
	// Keep the first insert if another worker raced us.
	if existing := m.cache[t]; existing != nil {
		pc = existing
	} else {
		m.cache[t] = pc
	}
	m.mu.Unlock()
	return pc
}

func buildTemplatePrecomp(img *image.RGBA) *templatePrecomp {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h
	pc := &templatePrecomp{W: w, H: h}
	var sum [3]float64
	for c := 0; c < 3; c++ {
		pc.dev[c] = make([]float64, n)
	}
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float64(row[x*4+c])
				pc.dev[c][y*w+x] = v
				sum[c] += v
			}
		}
	}
	for c := 0; c < 3; c++ {
		mean := sum[c] / float64(n)
		pc.color[c] = mean
		for i, v := range pc.dev[c] {
			d := v - mean
			pc.dev[c][i] = d
			pc.varSum += d * d
		}
	}
	pc.flat = pc.varSum <= varEpsilon
	return pc
}

// buildFramePrecomp computes per-channel values and summed-area tables.
func buildFramePrecomp(img *image.RGBA) *framePrecomp {
	b := img.Bounds()
	W, H := b.Dx(), b.Dy()
	need := W * H
	p := &framePrecomp{W: W, H: H}
	for c := 0; c < 3; c++ {
		p.ch[c] = make([]float64, need)
		p.integral[c] = make([]float64, need)
		p.integralSq[c] = make([]float64, need)
	}
	for y := 0; y < H; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		var rowSum, rowSum2 [3]float64
		for x := 0; x < W; x++ {
			off := y*W + x
			for c := 0; c < 3; c++ {
				v := float64(row[x*4+c])
				p.ch[c][off] = v
				rowSum[c] += v
				rowSum2[c] += v * v
				if y == 0 {
					p.integral[c][off] = rowSum[c]
					p.integralSq[c][off] = rowSum2[c]
				} else {
					p.integral[c][off] = p.integral[c][(y-1)*W+x] + rowSum[c]
					p.integralSq[c][off] = p.integralSq[c][(y-1)*W+x] + rowSum2[c]
				}
			}
		}
	}
	return p
}

// matchAll scores every window and returns those at or above threshold.
func matchAll(pre *framePrecomp, pc *templatePrecomp, id string, threshold float64) []Detection {
	w, h := pc.W, pc.H
	W := pre.W
	n := float64(w * h)
	var out []Detection
	for y := 0; y <= pre.H-h; y++ {
		for x := 0; x <= W-w; x++ {
			var sumF, sumF2 [3]float64
			var varSumF float64
			for c := 0; c < 3; c++ {
				sumF[c] = integralSum(pre.integral[c], W, x, y, x+w-1, y+h-1)
				sumF2[c] = integralSum(pre.integralSq[c], W, x, y, x+w-1, y+h-1)
				varSumF += sumF2[c] - sumF[c]*sumF[c]/n
			}
			if pc.flat {
				// A constant template only correlates with its own colour.
				// Integer sums are exact in float64, so equality of both
				// moments means every pixel equals the template colour.
				if threshold <= 1 && windowIsColor(sumF, sumF2, pc.color, n) {
					out = append(out, Detection{X: x, Y: y, W: w, H: h, Score: 1, TemplateID: id})
				}
				continue
			}
			if varSumF <= varEpsilon {
				continue
			}
			var sumFT float64
			for c := 0; c < 3; c++ {
				ch, dev := pre.ch[c], pc.dev[c]
				for py := 0; py < h; py++ {
					frow := ch[(y+py)*W+x : (y+py)*W+x+w]
					trow := dev[py*w : py*w+w]
					for px, f := range frow {
						sumFT += f * trow[px]
					}
				}
			}
			score := sumFT / math.Sqrt(varSumF*pc.varSum)
			if score > 1 {
				score = 1
			} else if score < -1 {
				score = -1
			}
			if score >= threshold {
				out = append(out, Detection{X: x, Y: y, W: w, H: h, Score: score, TemplateID: id})
			}
		}
	}
	return out
}

func windowIsColor(sumF, sumF2 [3]float64, col [3]float64, n float64) bool {
	for c := 0; c < 3; c++ {
		if sumF[c] != n*col[c] || sumF2[c] != n*col[c]*col[c] {
			return false
		}
	}
	return true
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}
