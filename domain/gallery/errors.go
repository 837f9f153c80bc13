package gallery

import (
	"errors"
	"fmt"
)

// ErrNoTemplates is wrapped by LoadError when a directory yields no usable
// template and an empty gallery is not allowed.
var ErrNoTemplates = errors.New("no usable templates")

// LoadError reports a gallery directory that could not be used.
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("gallery: load %q: %v", e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
