package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// screenshotGrabber captures through github.com/vova616/screenshot, which
// supports Windows, X11 and macOS.
type screenshotGrabber struct{}

func (screenshotGrabber) screen() (image.Rectangle, error) {
	return screenshot.ScreenRect()
}

func (screenshotGrabber) grab(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

func (screenshotGrabber) close() error { return nil }
