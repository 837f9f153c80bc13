package detect

import "fmt"

// InvalidFrameError reports a frame the matcher cannot search: nil or with
// zero area. It indicates a caller defect, not a transient condition.
type InvalidFrameError struct {
	Width, Height int
}

func (e *InvalidFrameError) Error() string {
	return fmt.Sprintf("detect: invalid frame %dx%d", e.Width, e.Height)
}
