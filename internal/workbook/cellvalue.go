package workbook

import (
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the variants of [CellValue].
type CellKind int

const (
	// KindEmpty marks a cell with no content.
	KindEmpty CellKind = iota
	// KindText marks a plain string cell.
	KindText
	// KindNumber marks a numeric cell.
	KindNumber
	// KindDate marks a date/time cell.
	KindDate
)

// CellValue is the closed set of scalar values a cell can hold. Exactly one
// of the payload fields is meaningful, selected by Kind.
type CellValue struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

// Text returns a text-kind CellValue.
func Text(s string) CellValue { return CellValue{Kind: KindText, Text: s} }

// Number returns a number-kind CellValue.
func Number(f float64) CellValue { return CellValue{Kind: KindNumber, Number: f} }

// Date returns a date-kind CellValue.
func Date(t time.Time) CellValue { return CellValue{Kind: KindDate, Date: t} }

// Empty returns the empty CellValue.
func Empty() CellValue { return CellValue{Kind: KindEmpty} }

// ParseNumber interprets a displayed cell string as a number. It tolerates
// surrounding whitespace and a decimal comma (German locale templates format
// numbers that way). ok is false when the cell does not hold a number;
// callers on the read path degrade to a default instead of failing.
func ParseNumber(s string) (f float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
