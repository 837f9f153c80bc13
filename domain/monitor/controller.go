package monitor

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/classify"
	"github.com/soocke/minimap-watch-go/domain/detect"
)

// Controller runs the capture -> match -> suppress -> classify -> present
// cycle. Cycles run back to back on the caller's goroutine; Step must not be
// called concurrently. State queries are safe from any goroutine.
type Controller struct {
	cfg        Context
	source     capture.Source
	matcher    detect.Matcher
	classifier Classifier
	display    Display
	logger     *slog.Logger

	captureFailures int
	presentFailures int
	nextDelay       time.Duration
	lastStatsLog    time.Time
	cycleTotal      time.Duration

	mu        sync.Mutex
	state     State
	err       error
	stats     Stats
	listeners []StateListener
	closeOnce sync.Once
}

// NewController wires the collaborators. All of them are required.
func NewController(cfg Context, source capture.Source, matcher detect.Matcher, classifier Classifier, display Display, logger *slog.Logger) (*Controller, error) {
	var errs []error
	if cfg.Gallery == nil {
		errs = append(errs, errors.New("monitor: nil gallery"))
	}
	if source == nil {
		errs = append(errs, errors.New("monitor: nil frame source"))
	}
	if matcher == nil {
		errs = append(errs, errors.New("monitor: nil matcher"))
	}
	if classifier == nil {
		errs = append(errs, errors.New("monitor: nil classifier"))
	}
	if display == nil {
		errs = append(errs, errors.New("monitor: nil display"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Controller{
		cfg:          cfg,
		source:       source,
		matcher:      matcher,
		classifier:   classifier,
		display:      display,
		logger:       logger,
		nextDelay:    cfg.Interval,
		lastStatsLog: now,
		state:        StateRunning,
		stats:        Stats{Started: now, ByCategory: make(map[classify.Category]uint64)},
	}, nil
}

// AddListener registers l for subsequent transitions.
func (c *Controller) AddListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that stopped the controller, nil for a clean stop.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stats returns a snapshot of the cumulative stats.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.ByCategory = maps.Clone(c.stats.ByCategory)
	return s
}

// NextDelay is the pause the host should wait before the next Step: the
// configured interval after a good cycle, a backoff delay after a failure.
func (c *Controller) NextDelay() time.Duration { return c.nextDelay }

// Step runs one cycle. It returns StateStopped with a nil error on
// cancellation, with the cause when a failure stops the loop, and with
// ErrStopped when called after the controller has stopped.
func (c *Controller) Step(ctx context.Context) (State, error) {
	if c.State() == StateStopped {
		return StateStopped, ErrStopped
	}
	if ctx.Err() != nil {
		c.stop(nil, "context done")
		return StateStopped, nil
	}
	if err := c.cycle(); err != nil {
		c.stop(err, "error")
		return StateStopped, err
	}
	if c.display.PollCancellation() {
		c.stop(nil, "cancelled")
		return StateStopped, nil
	}
	return StateRunning, nil
}

// Run calls Step until the controller stops or ctx is done. Cancellation of
// ctx is a clean stop.
func (c *Controller) Run(ctx context.Context) error {
	for {
		st, err := c.Step(ctx)
		if st == StateStopped {
			return err
		}
		t := time.NewTimer(c.nextDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			c.stop(nil, "context done")
			return nil
		case <-t.C:
		}
	}
}

// Stop ends the loop and releases the frame source. Safe to call repeatedly.
func (c *Controller) Stop() { c.stop(nil, "stop requested") }

// cycle returns only errors that must stop the loop. Capture and present
// failures within budget are counted and the cycle is skipped.
func (c *Controller) cycle() error {
	start := time.Now()
	cs := CycleStats{}

	frame, err := c.source.Capture(c.cfg.Region)
	cs.Capture = time.Since(start)
	if err != nil {
		c.captureFailures++
		if c.captureFailures > c.cfg.MaxCaptureFailures {
			return &BudgetError{Stage: "capture", Failures: c.captureFailures, Err: err}
		}
		c.skip(cs, start, c.captureFailures, "capture", err)
		return nil
	}
	c.captureFailures = 0
	defer capture.Recycle(frame)
	cs.Sequence = frame.Sequence

	t := time.Now()
	candidates, err := c.matcher.Match(frame, c.cfg.Gallery, c.cfg.MatchThreshold)
	if err != nil {
		return err
	}
	dets := detect.Deduplicate(candidates, c.cfg.IoUThreshold, c.cfg.MaxDetections)
	cs.Match = time.Since(t)
	cs.Candidates, cs.Kept = len(candidates), len(dets)

	t = time.Now()
	for i := range dets {
		cat, err := c.classifier.Classify(frame, dets[i])
		if err != nil {
			return err
		}
		dets[i].Category = cat
	}
	cs.Classify = time.Since(t)

	t = time.Now()
	err = c.display.Present(frame.Image, dets)
	cs.Present = time.Since(t)
	if err != nil {
		c.presentFailures++
		if c.presentFailures > c.cfg.MaxPresentFailures {
			return &BudgetError{Stage: "present", Failures: c.presentFailures, Err: err}
		}
		c.skip(cs, start, c.presentFailures, "present", err)
		return nil
	}
	c.presentFailures = 0
	c.nextDelay = c.cfg.Interval

	cs.Total = time.Since(start)
	c.record(cs, dets)
	return nil
}

func (c *Controller) skip(cs CycleStats, start time.Time, failures int, stage string, err error) {
	c.nextDelay = c.cfg.Retry.Delay(failures - 1)
	cs.Skipped = true
	cs.Total = time.Since(start)
	c.mu.Lock()
	c.stats.Skipped++
	c.stats.Last = cs
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.Warn("monitor.cycle_skipped", "stage", stage, "failures", failures, "retry_in", c.nextDelay, "error", err)
	}
}

func (c *Controller) record(cs CycleStats, dets []detect.Detection) {
	c.cycleTotal += cs.Total
	c.mu.Lock()
	c.stats.Cycles++
	c.stats.Candidates += uint64(cs.Candidates)
	c.stats.Detections += uint64(cs.Kept)
	c.stats.AvgCycle = c.cycleTotal / time.Duration(c.stats.Cycles)
	c.stats.Last = cs
	for _, d := range dets {
		c.stats.ByCategory[d.Category]++
	}
	snapshot := c.stats
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	c.logger.Debug("monitor.cycle",
		"seq", cs.Sequence,
		"candidates", cs.Candidates,
		"kept", cs.Kept,
		"capture", cs.Capture,
		"match", cs.Match,
		"classify", cs.Classify,
		"present", cs.Present,
		"total", cs.Total,
	)
	if c.cfg.StatsInterval > 0 && time.Since(c.lastStatsLog) >= c.cfg.StatsInterval {
		c.lastStatsLog = time.Now()
		c.logger.Info("monitor.stats",
			"cycles", snapshot.Cycles,
			"skipped", snapshot.Skipped,
			"detections", snapshot.Detections,
			"avg_cycle", snapshot.AvgCycle,
			"uptime", time.Since(snapshot.Started).Truncate(time.Second),
		)
	}
}

func (c *Controller) stop(err error, reason string) {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = StateStopped
	c.err = err
	listeners := append([]StateListener(nil), c.listeners...)
	c.mu.Unlock()

	c.closeOnce.Do(func() {
		if cerr := c.source.Close(); cerr != nil && c.logger != nil {
			c.logger.Warn("monitor.source_close_failed", "error", cerr)
		}
	})
	if c.logger != nil {
		if err != nil {
			c.logger.Error("monitor.stopped", "reason", reason, "error", err)
		} else {
			c.logger.Info("monitor.stopped", "reason", reason)
		}
		c.logger.Debug("monitor state transition", "from", prev.String(), "to", StateStopped.String())
	}
	for _, l := range listeners {
		l(prev, StateStopped)
	}
}
