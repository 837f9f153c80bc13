package capture

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable is returned when the requested capture backend is
// not available on this platform.
var ErrBackendUnavailable = errors.New("capture: backend unavailable")

// CaptureError reports a failed capture. Op is "region" when the requested
// region cannot be captured and "grab" when the backend itself failed.
type CaptureError struct {
	Op     string
	Region Region
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s %v: %v", e.Op, e.Region, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
