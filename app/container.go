package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/minimap-watch-go/config"
	"github.com/soocke/minimap-watch-go/domain/capture"
	"github.com/soocke/minimap-watch-go/domain/classify"
	"github.com/soocke/minimap-watch-go/domain/detect"
	"github.com/soocke/minimap-watch-go/domain/gallery"
	"github.com/soocke/minimap-watch-go/domain/monitor"
)

// Container assembles the long-lived services of one run.
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Gallery    *gallery.Gallery
	Source     capture.Source
	Matcher    detect.Matcher
	Classifier *classify.Classifier
}

// BuildContainer loads the gallery and constructs the capture, match and
// classify services from cfg. The gallery is loaded first so a bad template
// directory fails before any capture backend is opened.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	c := &Container{Config: cfg, Logger: logger}
	g, err := gallery.Load(cfg.TemplateDir, gallery.Options{
		Background:        cfg.BackgroundColor(),
		AllowEmpty:        cfg.AllowEmpty,
		DuplicateDistance: cfg.DuplicateDistance,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}
	c.Gallery = g
	ranges, err := classifierRanges(cfg.ColorRanges)
	if err != nil {
		return nil, err
	}
	if c.Classifier, err = classify.NewClassifier(ranges); err != nil {
		return nil, err
	}
	if c.Matcher, err = detect.NewMatcher(cfg.MatchBackend, cfg.MatchWorkers); err != nil {
		return nil, err
	}
	if c.Source, err = capture.NewSource(cfg.CaptureBackend, logger); err != nil {
		return nil, err
	}
	return c, nil
}

func classifierRanges(in []config.ColorRange) ([]classify.ColorRange, error) {
	out := make([]classify.ColorRange, 0, len(in))
	for i, r := range in {
		cat, err := classify.ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("app: color_ranges[%d]: %w", i, err)
		}
		out = append(out, classify.ColorRange{Category: cat, Lower: r.Lower, Upper: r.Upper})
	}
	return out, nil
}

// MonitorContext translates the configuration into the loop's immutable context.
func (c *Container) MonitorContext() monitor.Context {
	cfg := c.Config
	r := cfg.Region
	mc := monitor.DefaultContext(c.Gallery, capture.Region{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height})
	mc.MatchThreshold = cfg.MatchThreshold
	mc.IoUThreshold = cfg.IoUThreshold
	mc.MaxDetections = cfg.MaxDetections
	mc.Interval = time.Duration(cfg.IntervalMs) * time.Millisecond
	mc.MaxCaptureFailures = cfg.MaxCaptureFailures
	mc.MaxPresentFailures = cfg.MaxPresentFailures
	mc.Retry.Base = time.Duration(cfg.RetryBaseMs) * time.Millisecond
	mc.Retry.Max = time.Duration(cfg.RetryMaxMs) * time.Millisecond
	mc.StatsInterval = time.Duration(cfg.StatsIntervalSec) * time.Second
	return mc
}

// NewController builds a loop controller presenting to display.
func (c *Container) NewController(display monitor.Display) (*monitor.Controller, error) {
	ctrl, err := monitor.NewController(c.MonitorContext(), c.Source, c.Matcher, c.Classifier, display, c.Logger)
	if err != nil {
		return nil, err
	}
	ctrl.AddListener(func(prev, next monitor.State) {
		if c.Logger != nil {
			c.Logger.Debug("monitor state", "from", prev.String(), "to", next.String())
		}
	})
	return ctrl, nil
}

// Close releases the capture source. The controller closes it on stop, so
// this only matters when no loop ran.
func (c *Container) Close() error {
	if c == nil || c.Source == nil {
		return nil
	}
	return c.Source.Close()
}
