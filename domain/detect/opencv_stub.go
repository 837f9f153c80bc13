//go:build !gocv

package detect

import "errors"

func newOpenCVMatcher(int) (Matcher, error) {
	return nil, errors.New("detect: opencv backend not compiled in (build with -tags gocv)")
}
