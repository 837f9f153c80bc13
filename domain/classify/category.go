package classify

import (
	"fmt"
	"strings"
)

// Category is the border colour class of a detection.
type Category int

const (
	Unknown Category = iota
	Green
	Blue
	Red
)

func (c Category) String() string {
	switch c {
	case Green:
		return "GREEN"
	case Blue:
		return "BLUE"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GREEN":
		return Green, nil
	case "BLUE":
		return Blue, nil
	case "RED":
		return Red, nil
	case "UNKNOWN":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("classify: unknown category %q", s)
}
