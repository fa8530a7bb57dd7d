package logbook

import (
	"errors"
	"fmt"
)

// ErrInvalidFile is returned when a path fails pre-I/O validation: wrong
// extension or over the size limit. Never retried.
var ErrInvalidFile = errors.New("logbook: invalid workbook file")

// ErrSheetNotFound is returned when the monthly sheet for an activity's date
// is absent from the workbook.
var ErrSheetNotFound = errors.New("logbook: sheet not found")

// sheetNotFound wraps ErrSheetNotFound with the sheet and file it was
// expected in, so the surfaced message is self-diagnosable.
func sheetNotFound(sheet, path string) error {
	return fmt.Errorf("%w: sheet %q in %q", ErrSheetNotFound, sheet, path)
}
