// Package logbook appends dictated work activities to monthly worksheets and
// reads them back.
//
// The workbook template this package targets has one sheet per calendar month,
// named with the full German month name. Rows 1–6 are header rows; data rows
// start at row 7 for both writing and reading. Columns A–F hold, in order:
// Datum, Thema, Beschreibung, Dauer, Kilometer, Spesen.
//
// Durations are written as a fraction of a day (minutes / 60 / 24), matching
// the template's time-formatted duration cells, and converted back to minutes
// on read.
package logbook

import (
	"time"
)

// Activity is one unit of loggable work, produced by the speech parsing
// collaborator and persisted as a single worksheet row.
type Activity struct {
	// Date selects the monthly sheet. Required.
	Date time.Time

	// Topic is the free-text subject of the work. Nil-equivalent is "".
	Topic string

	// Description is the free-text body of the record. Required.
	Description string

	// DurationMinutes is the time spent, in minutes. Nil means "not dictated";
	// the duration cell is left untouched in that case.
	DurationMinutes *int

	// DistanceKm is the distance driven. Written only when > 0 so that
	// inherited cell formatting is not overwritten with visible zeros.
	DistanceKm float64

	// ExpenseAmount is the out-of-pocket expense. Written only when > 0.
	ExpenseAmount float64
}

// ActivityRow pairs an [Activity] read back from a sheet with the 1-based
// worksheet row it occupies.
type ActivityRow struct {
	Activity
	Row int
}

// monthSheets maps time.Month (1-based) to the German sheet names of the
// workbook template.
var monthSheets = [...]string{
	time.January:   "Januar",
	time.February:  "Februar",
	time.March:     "März",
	time.April:     "April",
	time.May:       "Mai",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "August",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Dezember",
}

// MonthSheet returns the worksheet name for the given month.
func MonthSheet(m time.Month) string {
	return monthSheets[m]
}

// MonthSheets returns all twelve monthly sheet names in calendar order.
func MonthSheets() []string {
	return monthSheets[time.January:]
}

// Template layout constants. Rows 1–6 are headers; DataStartRow is the first
// row that may hold an activity, for writing and reading alike.
const (
	// DataStartRow is the first data row of every monthly sheet.
	DataStartRow = 7

	// emptyRowStreak is how many consecutive content-free rows mark the end
	// of the data region during row discovery.
	emptyRowStreak = 6

	colDate        = 1
	colTopic       = 2
	colDescription = 3
	colDuration    = 4
	colDistance    = 5
	colExpense     = 6
)
