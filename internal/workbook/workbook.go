// Package workbook provides buffer-oriented access to xlsx workbooks.
//
// A [Workbook] wraps an in-memory document model parsed from the file bytes;
// cell edits are applied surgically so that styling and content of untouched
// cells survive a load/save round trip. Loading and saving go through byte
// buffers rather than OS file handles, so behaviour is identical across host
// platforms.
//
// Cell contents cross the package boundary as [CellValue], a closed tagged
// variant, so callers switch exhaustively over the four cell kinds instead of
// relying on runtime type tests.
//
// The underlying spreadsheet library is an internal detail of this package;
// callers must not depend on it.
package workbook

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is an editable in-memory representation of one xlsx file.
// It is not safe for concurrent use; the system assumes a single writer
// per file (see the package-level concurrency notes in the repository docs).
type Workbook struct {
	f *excelize.File
}

// Open reads the file at path fully into memory and parses it.
// Malformed files, unsupported formats and plain I/O failures all surface as
// an [*IOError].
func Open(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &IOError{Op: "parse", Path: path, Err: err}
	}
	return &Workbook{f: f}, nil
}

// New returns an empty workbook containing the library's default sheet.
// Used by tests and the glossar bootstrapper to build fixture files.
func New() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// Save serialises the workbook to a byte buffer and writes it to path,
// replacing any existing file.
func (w *Workbook) Save(path string) error {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return &IOError{Op: "serialize", Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Close releases resources held by the document model. The Workbook must not
// be used afterwards.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns all sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Sheet resolves name case-insensitively against the workbook's sheets and
// returns the actual sheet name. ok is false when no sheet matches.
func (w *Workbook) Sheet(name string) (actual string, ok bool) {
	for _, s := range w.f.GetSheetList() {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

// AddSheet creates a new empty sheet with the given name.
func (w *Workbook) AddSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return &IOError{Op: "add sheet " + name, Err: err}
	}
	return nil
}

// Cell returns the displayed string value of the cell at (row, col),
// both 1-based. Empty cells yield "".
func (w *Workbook) Cell(sheet string, row, col int) (string, error) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", &IOError{Op: "cell address", Err: err}
	}
	v, err := w.f.GetCellValue(sheet, axis)
	if err != nil {
		return "", &IOError{Op: fmt.Sprintf("read %s!%s", sheet, axis), Err: err}
	}
	return v, nil
}

// SetCell writes value into the cell at (row, col), both 1-based.
// Writing [Empty] clears the cell content but leaves its styling alone.
func (w *Workbook) SetCell(sheet string, row, col int, value CellValue) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return &IOError{Op: "cell address", Err: err}
	}
	var raw any
	switch value.Kind {
	case KindText:
		raw = value.Text
	case KindNumber:
		raw = value.Number
	case KindDate:
		raw = value.Date
	case KindEmpty:
		raw = nil
	default:
		return &IOError{Op: fmt.Sprintf("write %s!%s", sheet, axis), Err: fmt.Errorf("unknown cell kind %d", value.Kind)}
	}
	if err := w.f.SetCellValue(sheet, axis, raw); err != nil {
		return &IOError{Op: fmt.Sprintf("write %s!%s", sheet, axis), Err: err}
	}
	return nil
}

// LastRow returns the highest 1-based row index holding any content in sheet,
// or 0 for an empty sheet.
func (w *Workbook) LastRow(sheet string) (int, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return 0, &IOError{Op: "used range " + sheet, Err: err}
	}
	return len(rows), nil
}
