package logbook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mfalkner/sprachlog/internal/backup"
	"github.com/mfalkner/sprachlog/internal/observe"
	"github.com/mfalkner/sprachlog/internal/workbook"
)

// maxFileSize is the upper bound accepted by [ValidateFile].
const maxFileSize = 50 << 20 // 50 MiB

// ValidateFile checks that path names an .xlsx or .xls file (case-insensitive)
// no larger than 50 MiB. It runs before any other I/O on the file; failures
// surface as [ErrInvalidFile].
func ValidateFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
	default:
		return fmt.Errorf("%w: %q has unsupported extension", ErrInvalidFile, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidFile, path, err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("%w: %q exceeds 50 MiB", ErrInvalidFile, path)
	}
	return nil
}

// Option is a functional option for configuring a [Writer].
type Option func(*Writer)

// WithMetrics attaches a metrics instance. Default: [observe.Default].
func WithMetrics(m *observe.Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

// Writer appends activity records to monthly worksheets and reads them back.
// Each call operates on independent state; the Writer itself is safe for
// concurrent use as long as no two calls target the same file (the system
// assumes at most one writer per file).
type Writer struct {
	backups *backup.Manager
	metrics *observe.Metrics
}

// NewWriter returns a [Writer] that backs every mutation with mgr.
func NewWriter(mgr *backup.Manager, opts ...Option) *Writer {
	w := &Writer{
		backups: mgr,
		metrics: observe.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// AddActivity appends one activity to the monthly sheet matching act.Date.
//
// The sequence is fixed and load-bearing for data safety: validate, back up,
// load, discover the append row, write cells, save. The backup strictly
// precedes the first mutation, so a mid-write failure leaves the user with a
// definitely-intact prior copy.
func (w *Writer) AddActivity(ctx context.Context, path string, act Activity) error {
	start := time.Now()

	if err := ValidateFile(path); err != nil {
		return err
	}
	if act.Description == "" {
		return fmt.Errorf("%w: activity description must not be empty", ErrInvalidFile)
	}

	backupPath, err := w.backups.Create(path)
	if err != nil {
		return err
	}
	if w.metrics != nil && w.metrics.BackupsCreated != nil {
		w.metrics.BackupsCreated.Add(ctx, 1)
	}

	wb, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer wb.Close()

	want := MonthSheet(act.Date.Month())
	sheet, ok := wb.Sheet(want)
	if !ok {
		return sheetNotFound(want, path)
	}

	row, err := w.findAppendRow(wb, sheet)
	if err != nil {
		return err
	}

	cells := []struct {
		col   int
		value workbook.CellValue
		write bool
	}{
		{colDate, workbook.Date(act.Date), true},
		{colTopic, workbook.Text(act.Topic), true},
		{colDescription, workbook.Text(act.Description), true},
		{colDuration, workbook.Number(dayFraction(act.DurationMinutes)), act.DurationMinutes != nil},
		{colDistance, workbook.Number(act.DistanceKm), act.DistanceKm > 0},
		{colExpense, workbook.Number(act.ExpenseAmount), act.ExpenseAmount > 0},
	}
	for _, c := range cells {
		if !c.write {
			continue
		}
		if err := wb.SetCell(sheet, row, c.col, c.value); err != nil {
			return err
		}
	}

	if err := wb.Save(path); err != nil {
		return err
	}

	slog.Info("activity written",
		"path", path,
		"sheet", sheet,
		"row", row,
		"backup", backupPath,
	)
	if w.metrics != nil {
		if w.metrics.ActivitiesWritten != nil {
			w.metrics.ActivitiesWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("sheet", sheet)))
		}
		if w.metrics.WriteDuration != nil {
			w.metrics.WriteDuration.Record(ctx, time.Since(start).Seconds())
		}
	}
	return nil
}

// findAppendRow locates the first row after the last content row of sheet.
//
// A row counts as content when its Thema or Beschreibung cell is non-blank
// after trimming. The scan starts at [DataStartRow] and stops at the used
// range's end or once [emptyRowStreak] consecutive content-free rows have
// been seen — the template intersperses at most a handful of blank rows
// inside the data region, so a longer gap marks its end.
func (w *Writer) findAppendRow(wb *workbook.Workbook, sheet string) (int, error) {
	end, err := wb.LastRow(sheet)
	if err != nil {
		return 0, err
	}

	lastContent := 0
	streak := 0
	for row := DataStartRow; row <= end; row++ {
		topic, err := wb.Cell(sheet, row, colTopic)
		if err != nil {
			return 0, err
		}
		desc, err := wb.Cell(sheet, row, colDescription)
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(topic) != "" || strings.TrimSpace(desc) != "" {
			lastContent = row
			streak = 0
			continue
		}
		streak++
		if streak >= emptyRowStreak {
			break
		}
	}

	if lastContent == 0 {
		return DataStartRow, nil
	}
	return lastContent + 1, nil
}

// GetActivities reads all activity rows from the sheet for month. The file is
// never mutated and no backup is taken. An absent monthly sheet yields an
// empty result, not an error; a malformed row degrades to default values and
// never aborts the scan.
func (w *Writer) GetActivities(ctx context.Context, path string, month time.Month) ([]ActivityRow, error) {
	if err := ValidateFile(path); err != nil {
		return nil, err
	}

	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet, ok := wb.Sheet(MonthSheet(month))
	if !ok {
		return nil, nil
	}

	end, err := wb.LastRow(sheet)
	if err != nil {
		return nil, err
	}

	var out []ActivityRow
	for row := DataStartRow; row <= end; row++ {
		date, topic, desc, err := w.readTextCells(wb, sheet, row)
		if err != nil {
			return nil, err
		}
		if date == "" && topic == "" && desc == "" {
			continue
		}

		act := Activity{
			Topic:       topic,
			Description: desc,
			Date:        parseCellDate(date),
		}

		if raw, err := wb.Cell(sheet, row, colDuration); err == nil {
			if frac, ok := workbook.ParseNumber(raw); ok {
				minutes := int(frac*24*60 + 0.5)
				act.DurationMinutes = &minutes
			} else if strings.TrimSpace(raw) != "" {
				slog.Debug("unparseable duration cell", "path", path, "sheet", sheet, "row", row, "raw", raw)
			}
		}
		if raw, err := wb.Cell(sheet, row, colDistance); err == nil {
			if km, ok := workbook.ParseNumber(raw); ok {
				act.DistanceKm = km
			}
		}
		if raw, err := wb.Cell(sheet, row, colExpense); err == nil {
			if amount, ok := workbook.ParseNumber(raw); ok {
				act.ExpenseAmount = amount
			}
		}

		out = append(out, ActivityRow{Activity: act, Row: row})
	}
	return out, nil
}

// readTextCells returns the trimmed date, topic and description cells of row.
func (w *Writer) readTextCells(wb *workbook.Workbook, sheet string, row int) (date, topic, desc string, err error) {
	if date, err = wb.Cell(sheet, row, colDate); err != nil {
		return
	}
	if topic, err = wb.Cell(sheet, row, colTopic); err != nil {
		return
	}
	if desc, err = wb.Cell(sheet, row, colDescription); err != nil {
		return
	}
	date = strings.TrimSpace(date)
	topic = strings.TrimSpace(topic)
	desc = strings.TrimSpace(desc)
	return
}

// dayFraction converts minutes to the template's fraction-of-day duration
// encoding. A nil pointer yields 0; callers must skip the write in that case.
func dayFraction(minutes *int) float64 {
	if minutes == nil {
		return 0
	}
	return float64(*minutes) / 60 / 24
}

// cellDateLayouts lists the display formats date cells come back in,
// covering both the spreadsheet library's default date style and dates that
// were typed as plain text in German notation.
var cellDateLayouts = []string{
	"01-02-06",
	"1/2/06 15:04",
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
}

// parseCellDate interprets a displayed date cell on a best-effort basis.
// An unrecognised format yields the zero time; read paths treat the date as
// informational and never fail on it.
func parseCellDate(s string) time.Time {
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
