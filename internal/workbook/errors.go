package workbook

import (
	"errors"
	"fmt"
)

// ErrWorkbookIO is the sentinel matched by errors.Is for every failure this
// package reports: malformed files, unsupported formats and plain I/O errors.
var ErrWorkbookIO = errors.New("workbook: i/o or format error")

// IOError wraps an underlying failure with the operation and file it occurred
// on, so surfaced errors carry enough context for the user to self-diagnose.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("workbook: %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("workbook: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }

// Is reports true for [ErrWorkbookIO], so callers can classify any workbook
// failure without knowing the concrete operation.
func (e *IOError) Is(target error) bool { return target == ErrWorkbookIO }
