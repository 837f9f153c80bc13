//go:build !windows

package capture

func newGDIGrabber() (grabber, error) {
	return nil, ErrBackendUnavailable
}
