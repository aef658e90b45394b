package diagfmt

import (
	"fmt"
	"strings"
)

// Format selects a diagnostics renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatShort
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatShort:
		return "short"
	default:
		return "pretty"
	}
}

// ParseFormat accepts pretty|json|short.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "short":
		return FormatShort, nil
	default:
		return FormatPretty, fmt.Errorf("invalid format %q (expected: pretty|json|short)", s)
	}
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	// SubjectWidth caps the subject column; 0 means unlimited.
	SubjectWidth int
	// Summary appends a one-line count of errors, warnings and infos.
	Summary bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}
