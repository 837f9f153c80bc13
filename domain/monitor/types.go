package monitor

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/classify"
	"github.com/soocke/minimap-watch-go/domain/detect"
	"github.com/soocke/minimap-watch-go/domain/gallery"
)

// State enumerates controller states. StateStopped is terminal.
type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StateListener is called on each state transition.
type StateListener func(prev, next State)

// Display presents one annotated cycle and reports operator cancellation.
// Present must not retain frame after it returns.
type Display interface {
	Present(frame *image.RGBA, dets []detect.Detection) error
	PollCancellation() bool
}

// Classifier assigns a border category to a detection.
type Classifier interface {
	Classify(frame *capture.Frame, det classify.Boxed) (classify.Category, error)
}

// Context is the immutable per-run configuration handed to a Controller.
type Context struct {
	Gallery        *gallery.Gallery
	Region         capture.Region
	MatchThreshold float64
	IoUThreshold   float64
	// MaxDetections bounds the kept set per cycle; <= 0 is unlimited.
	MaxDetections int
	// Interval is the pause between successful cycles.
	Interval time.Duration
	// MaxCaptureFailures and MaxPresentFailures are the consecutive
	// failures tolerated before the loop stops.
	MaxCaptureFailures int
	MaxPresentFailures int
	Retry              Backoff
	// StatsInterval controls how often cumulative stats are logged at info.
	StatsInterval time.Duration
}

// DefaultContext returns a Context with the stock thresholds and budgets.
func DefaultContext(g *gallery.Gallery, region capture.Region) Context {
	return Context{
		Gallery:            g,
		Region:             region,
		MatchThreshold:     detect.DefaultThreshold,
		IoUThreshold:       detect.DefaultIoUThreshold,
		MaxDetections:      detect.DefaultTopK,
		Interval:           10 * time.Millisecond,
		MaxCaptureFailures: 5,
		MaxPresentFailures: 5,
		Retry:              DefaultBackoff(),
		StatsInterval:      5 * time.Second,
	}
}

// ErrStopped is returned by Step once the controller has stopped.
var ErrStopped = errors.New("monitor: controller stopped")

// BudgetError reports a stage that failed more consecutive times than its
// budget allows. Err is the last failure.
type BudgetError struct {
	Stage    string
	Failures int
	Err      error
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("monitor: %s failed %d consecutive times: %v", e.Stage, e.Failures, e.Err)
}

func (e *BudgetError) Unwrap() error { return e.Err }

// CycleStats describes one completed or skipped cycle.
type CycleStats struct {
	Sequence   uint64
	Candidates int
	Kept       int
	Capture    time.Duration
	Match      time.Duration
	Classify   time.Duration
	Present    time.Duration
	Total      time.Duration
	Skipped    bool
}

// Stats accumulates controller behaviour since construction.
type Stats struct {
	Cycles     uint64
	Skipped    uint64
	Candidates uint64
	Detections uint64
	AvgCycle   time.Duration
	Last       CycleStats
	// ByCategory counts kept detections per category.
	ByCategory map[classify.Category]uint64
	Started    time.Time
}
