package app

import (
	"context"
	"image"
	"log/slog"

	"github.com/soocke/minimap-watch-go/domain/detect"
)

// headlessDisplay logs detections instead of drawing them. Cancellation
// follows ctx, which main ties to SIGINT/SIGTERM.
type headlessDisplay struct {
	ctx    context.Context
	logger *slog.Logger
	last   string
}

func (d *headlessDisplay) Present(_ *image.RGBA, dets []detect.Detection) error {
	if d.logger == nil {
		return nil
	}
	summary := detect.Summarize(dets)
	if summary == d.last {
		d.logger.Debug("monitor.detections", "count", len(dets), "summary", summary)
		return nil
	}
	d.last = summary
	d.logger.Info("monitor.detections", "count", len(dets), "summary", summary)
	return nil
}

func (d *headlessDisplay) PollCancellation() bool { return d.ctx.Err() != nil }

// RunHeadless runs the loop without a window until ctx is done or the loop
// stops on an error.
func RunHeadless(ctx context.Context, c *Container) error {
	ctrl, err := c.NewController(&headlessDisplay{ctx: ctx, logger: c.Logger})
	if err != nil {
		return err
	}
	return ctrl.Run(ctx)
}
