package grid

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks extensions without a decoding path.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// FormatError reports a file that could not be decoded into a grid.
type FormatError struct {
	Path   string
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("read %s (%s): %v", e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
