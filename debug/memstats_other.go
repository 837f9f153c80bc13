//go:build !windows

package debug

import (
	"bytes"
	"errors"
	"os"
	"strconv"
)

// processRSS reads the resident set from /proc/self/statm where available.
func processRSS() (uint64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	fields := bytes.Fields(data)
	if len(fields) < 2 {
		return 0, errors.New("debug: unexpected statm format")
	}
	pages, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0, err
	}
	return pages * uint64(os.Getpagesize()), nil
}
