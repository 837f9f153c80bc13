package view

import (
	"errors"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/minimap-watch-go/domain/detect"
	"github.com/soocke/minimap-watch-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// PreviewWindow is the Tk presentation surface: one label with the annotated frame
// and a status line. Escape or closing the window requests cancellation,
// which the loop observes through PollCancellation. All methods except
// PollCancellation and Cancel must run on the Tk thread.
type PreviewWindow struct {
	frameLabel  *LabelWidget
	statusLabel *LabelWidget
	photo       *Img // current photo; deleted before replacement
	maxW, maxH  int
	cancelled   atomic.Bool
	logger      *slog.Logger
}

// NewPreviewWindow builds the layout in the Tk root window.
func NewPreviewWindow(title string, maxW, maxH int, logger *slog.Logger) *PreviewWindow {
	App.WmTitle(title)
	w := &PreviewWindow{maxW: maxW, maxH: maxH, logger: logger}
	placeholder := image.NewRGBA(image.Rect(0, 0, 200, 120))
	w.photo = NewPhoto(Data(images.EncodePNG(placeholder)))
	w.frameLabel = Label(Image(w.photo), Borderwidth(1), Relief("sunken"))
	w.statusLabel = Label(Txt("Starting..."), Anchor("w"), Borderwidth(1), Relief("ridge"))
	Pack(w.frameLabel, Padx("1m"), Pady("1m"))
	Pack(w.statusLabel, Fill("x"), Padx("1m"), Pady("0.5m"))
	Bind(App, "<Escape>", Command(w.Cancel))
	WmProtocol(App, "WM_DELETE_WINDOW", w.Cancel)
	return w
}

// Present draws dets over frame, scales the result to the preview size and
// swaps it into the label.
func (w *PreviewWindow) Present(frame *image.RGBA, dets []detect.Detection) error {
	if w == nil || w.frameLabel == nil {
		return errors.New("view: window not built")
	}
	annotated := images.Annotate(frame, dets)
	if annotated == nil {
		return errors.New("view: nothing to present")
	}
	data := images.EncodePNG(images.ScaleToFit(annotated, w.maxW, w.maxH))
	if len(data) == 0 {
		return errors.New("view: preview encode failed")
	}
	if w.photo != nil {
		w.photo.Delete()
	}
	w.photo = NewPhoto(Data(data))
	w.frameLabel.Configure(Image(w.photo))
	w.SetStatus(detect.Summarize(dets))
	return nil
}

// SetStatus replaces the status line text.
func (w *PreviewWindow) SetStatus(text string) {
	if w == nil || w.statusLabel == nil {
		return
	}
	w.statusLabel.Configure(Txt(text))
}

// Cancel marks the window as cancelled.
func (w *PreviewWindow) Cancel() {
	if w.cancelled.CompareAndSwap(false, true) && w.logger != nil {
		w.logger.Info("view.cancel_requested")
	}
}

// PollCancellation reports whether the operator asked to quit.
func (w *PreviewWindow) PollCancellation() bool { return w.cancelled.Load() }
