package app

import (
	"context"
	"fmt"
	"time"

	tk "modernc.org/tk9.0"

	"github.com/soocke/minimap-watch-go/domain/monitor"
	"github.com/soocke/minimap-watch-go/ui/view"
)

// tkHost drives the controller from Tk's event loop: one Step per TclAfter
// callback, so capture, render and input handling share the Tk thread.
type tkHost struct {
	ctx     context.Context
	ctrl    *monitor.Controller
	win     *view.PreviewWindow
	afterID string
}

// RunWindow opens the preview window and runs the loop until it stops. It
// returns the error that stopped the loop, nil on operator cancellation.
func RunWindow(ctx context.Context, c *Container) error {
	cfg := c.Config
	win := view.NewPreviewWindow(cfg.WindowTitle, cfg.PreviewMaxW, cfg.PreviewMaxH, c.Logger)
	ctrl, err := c.NewController(win)
	if err != nil {
		tk.Destroy(tk.App)
		return err
	}
	tk.WmGeometry(tk.App, fmt.Sprintf("+%d+%d", cfg.Region.Left+cfg.Region.Width+20, cfg.Region.Top))
	h := &tkHost{ctx: ctx, ctrl: ctrl, win: win}
	h.schedule(0)
	tk.App.Wait()
	ctrl.Stop()
	return ctrl.Err()
}

func (h *tkHost) schedule(d time.Duration) {
	// Schedule the next step using TclAfter to stay on Tk's event loop thread.
	h.afterID = tk.TclAfter(d, h.step)
}

func (h *tkHost) step() {
	h.afterID = ""
	st, err := h.ctrl.Step(h.ctx)
	if st != monitor.StateStopped {
		h.schedule(h.ctrl.NextDelay())
		return
	}
	if err == nil {
		h.exit()
		return
	}
	// Keep the window up with the diagnostic until the operator closes it.
	h.win.SetStatus("Stopped: " + err.Error())
	tk.WmProtocol(tk.App, "WM_DELETE_WINDOW", h.exit)
	tk.Bind(tk.App, "<Escape>", tk.Command(h.exit))
}

func (h *tkHost) exit() {
	if h.afterID != "" {
		tk.TclAfterCancel(h.afterID)
		h.afterID = ""
	}
	tk.Destroy(tk.App)
}
