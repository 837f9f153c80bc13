package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Source captures a screen region on demand. Capture blocks until the
// backend returns; no extra timeout is applied.
type Source interface {
	Capture(r Region) (*Frame, error)
	Stats() Stats
	Close() error
}

// grabber is the platform backend behind a Source.
type grabber interface {
	// screen returns the rectangle of the capturable display surface.
	screen() (image.Rectangle, error)
	// grab returns the pixels inside r (screen coordinates).
	grab(r image.Rectangle) (*image.RGBA, error)
	close() error
}

type source struct {
	backend      grabber
	name         string
	logger       *slog.Logger
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastCapture  atomic.Int64
	closed       atomic.Bool
}

// NewSource constructs a Source for the named backend ("screenshot" or, on
// Windows, "gdi").
func NewSource(backend string, logger *slog.Logger) (Source, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" {
		name = "screenshot"
	}
	var g grabber
	switch name {
	case "screenshot":
		g = screenshotGrabber{}
	case "gdi":
		var err error
		if g, err = newGDIGrabber(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, backend)
	}
	return newSource(g, name, logger), nil
}

func newSource(g grabber, name string, logger *slog.Logger) *source {
	return &source{backend: g, name: name, logger: logger}
}

func (s *source) Capture(r Region) (*Frame, error) {
	if s.closed.Load() {
		return nil, &CaptureError{Op: "grab", Region: r, Err: errors.New("source closed")}
	}
	start := time.Now()
	frame, err := s.capture(r)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.captures.Add(1)
	s.lastCapture.Store(frame.CapturedAt.UnixNano())
	return frame, nil
}

func (s *source) capture(r Region) (*Frame, error) {
	if r.Empty() {
		return nil, &CaptureError{Op: "region", Region: r, Err: errors.New("empty region")}
	}
	screen, err := s.backend.screen()
	if err != nil {
		return nil, &CaptureError{Op: "grab", Region: r, Err: err}
	}
	rect := r.Rect()
	if !rect.In(screen) {
		return nil, &CaptureError{Op: "region", Region: r, Err: fmt.Errorf("outside screen %v", screen)}
	}
	img, err := s.backend.grab(rect)
	if err != nil {
		return nil, &CaptureError{Op: "grab", Region: r, Err: err}
	}
	if img == nil || img.Bounds().Dx() != r.Width || img.Bounds().Dy() != r.Height {
		return nil, &CaptureError{Op: "grab", Region: r, Err: fmt.Errorf("backend returned unexpected image %v", boundsOf(img))}
	}
	dst := acquireFrame(r.Width, r.Height)
	copyOpaque(dst, img)
	return &Frame{Image: dst, CapturedAt: time.Now(), Sequence: s.sequence.Add(1)}, nil
}

func (s *source) Stats() Stats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := s.lastCapture.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		Captures:         captures,
		Failures:         s.failures.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
		Sequence:         s.sequence.Load(),
	}
}

// Close releases the backend. Safe to call more than once.
func (s *source) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.logger != nil {
		st := s.Stats()
		s.logger.Debug("capture.closed", "backend", s.name, "captures", st.Captures, "failures", st.Failures, "avg_capture", st.AvgCapture)
	}
	return s.backend.close()
}

func boundsOf(img *image.RGBA) image.Rectangle {
	if img == nil {
		return image.Rectangle{}
	}
	return img.Bounds()
}
