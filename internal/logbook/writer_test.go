package logbook_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mfalkner/sprachlog/internal/backup"
	"github.com/mfalkner/sprachlog/internal/logbook"
	"github.com/mfalkner/sprachlog/internal/workbook"
)

func TestValidateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "log.xlsx")
	if err := os.WriteFile(good, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := logbook.ValidateFile(good); err != nil {
		t.Errorf("ValidateFile(%q) = %v, want nil", good, err)
	}
	if err := logbook.ValidateFile(filepath.Join(dir, "log.XLSX")); !errors.Is(err, logbook.ErrInvalidFile) {
		// Extension is fine but the file does not exist.
		t.Errorf("ValidateFile on missing file = %v, want ErrInvalidFile", err)
	}
	if err := logbook.ValidateFile(filepath.Join(dir, "log.txt")); !errors.Is(err, logbook.ErrInvalidFile) {
		t.Errorf("ValidateFile(.txt) = %v, want ErrInvalidFile", err)
	}
}

func TestAddActivity_RoundTrip(t *testing.T) {
	t.Parallel()

	path := newMonthWorkbook(t, "September")
	w := logbook.NewWriter(backup.New())

	minutes := 90
	act := logbook.Activity{
		Date:            time.Date(2025, time.September, 14, 0, 0, 0, 0, time.UTC),
		Topic:           "Serverwartung",
		Description:     "Updates eingespielt und Dienste neu gestartet",
		DurationMinutes: &minutes,
		DistanceKm:      23.5,
		ExpenseAmount:   12.8,
	}
	if err := w.AddActivity(context.Background(), path, act); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}

	rows, err := w.GetActivities(context.Background(), path, time.September)
	if err != nil {
		t.Fatalf("GetActivities: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("GetActivities returned %d rows, want 1", len(rows))
	}

	got := rows[0]
	if got.Row != logbook.DataStartRow {
		t.Errorf("row = %d, want %d", got.Row, logbook.DataStartRow)
	}
	if got.Topic != act.Topic {
		t.Errorf("topic = %q, want %q", got.Topic, act.Topic)
	}
	if got.Description != act.Description {
		t.Errorf("description = %q, want %q", got.Description, act.Description)
	}
	if got.DistanceKm != act.DistanceKm {
		t.Errorf("distance = %v, want %v", got.DistanceKm, act.DistanceKm)
	}
	if got.ExpenseAmount != act.ExpenseAmount {
		t.Errorf("expense = %v, want %v", got.ExpenseAmount, act.ExpenseAmount)
	}
	if got.DurationMinutes == nil {
		t.Fatal("duration = nil, want 90 minutes")
	}
	if math.Abs(float64(*got.DurationMinutes-minutes)) > 1 {
		t.Errorf("duration = %d minutes, want %d within day-fraction tolerance", *got.DurationMinutes, minutes)
	}
}

func TestAddActivity_BackupPrecedesWrite(t *testing.T) {
	t.Parallel()

	path := newMonthWorkbook(t, "Januar")
	mgr := backup.New()
	w := logbook.NewWriter(mgr)

	act := logbook.Activity{
		Date:        time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		Description: "Abstimmung",
	}
	if err := w.AddActivity(context.Background(), path, act); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	mgr.Wait()

	backups, err := mgr.List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("%d backups exist after AddActivity, want 1", len(backups))
	}

	// The backup holds the pre-write state: no activity rows yet.
	pre, err := workbook.Open(backups[0])
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer pre.Close()
	desc, err := pre.Cell("Januar", logbook.DataStartRow, 3)
	if err != nil {
		t.Fatalf("read backup cell: %v", err)
	}
	if desc != "" {
		t.Errorf("backup already contains the new row (%q); backup must precede the write", desc)
	}
}

func TestAddActivity_SheetNotFound(t *testing.T) {
	t.Parallel()

	path := newMonthWorkbook(t, "Januar")
	w := logbook.NewWriter(backup.New())

	act := logbook.Activity{
		Date:        time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "irgendwas",
	}
	err := w.AddActivity(context.Background(), path, act)
	if !errors.Is(err, logbook.ErrSheetNotFound) {
		t.Fatalf("AddActivity = %v, want ErrSheetNotFound", err)
	}
	// The message must name the missing sheet for self-diagnosis.
	if want := "Juli"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not name the missing sheet %q", err, want)
	}
}

func TestAddActivity_AppendsAfterLastContentRow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "log.xlsx")

	wb := workbook.New()
	if err := wb.AddSheet("März"); err != nil {
		t.Fatalf("AddSheet: %v", err)
	}
	// Content through row 10, then a wide empty gap, then a stray footer
	// note far below that must not be treated as data.
	for row := logbook.DataStartRow; row <= 10; row++ {
		if err := wb.SetCell("März", row, 3, workbook.Text("Eintrag")); err != nil {
			t.Fatalf("SetCell: %v", err)
		}
	}
	if err := wb.SetCell("März", 40, 3, workbook.Text("Fußzeile")); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := wb.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := logbook.NewWriter(backup.New())
	act := logbook.Activity{
		Date:        time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		Description: "neuer Eintrag",
	}
	if err := w.AddActivity(context.Background(), path, act); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}

	reopened, err := workbook.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Cell("März", 11, 3)
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if got != "neuer Eintrag" {
		t.Errorf("row 11 description = %q, want %q (append directly after last content row)", got, "neuer Eintrag")
	}
}

func TestGetActivities_AbsentSheetYieldsEmpty(t *testing.T) {
	t.Parallel()

	path := newMonthWorkbook(t, "Januar")
	w := logbook.NewWriter(backup.New())

	rows, err := w.GetActivities(context.Background(), path, time.August)
	if err != nil {
		t.Fatalf("GetActivities on absent sheet: %v, want nil error", err)
	}
	if len(rows) != 0 {
		t.Errorf("GetActivities on absent sheet = %d rows, want 0", len(rows))
	}
}

func TestGetActivities_MalformedNumericCells(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "log.xlsx")

	wb := workbook.New()
	if err := wb.AddSheet("April"); err != nil {
		t.Fatalf("AddSheet: %v", err)
	}
	row := logbook.DataStartRow
	if err := wb.SetCell("April", row, 3, workbook.Text("kaputte Zeile")); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := wb.SetCell("April", row, 4, workbook.Text("eine Stunde")); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := wb.SetCell("April", row+1, 3, workbook.Text("gute Zeile")); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := wb.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := logbook.NewWriter(backup.New())
	rows, err := w.GetActivities(context.Background(), path, time.April)
	if err != nil {
		t.Fatalf("GetActivities: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("GetActivities returned %d rows, want 2 (malformed row must not abort the scan)", len(rows))
	}
	if rows[0].DurationMinutes != nil {
		t.Errorf("malformed duration parsed to %v, want nil", *rows[0].DurationMinutes)
	}
	if rows[1].Description != "gute Zeile" {
		t.Errorf("second row description = %q, want %q", rows[1].Description, "gute Zeile")
	}
}

// newMonthWorkbook creates an xlsx file containing the given monthly sheets
// and returns its path.
func newMonthWorkbook(t *testing.T, sheets ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.xlsx")
	wb := workbook.New()
	for _, s := range sheets {
		if err := wb.AddSheet(s); err != nil {
			t.Fatalf("AddSheet %s: %v", s, err)
		}
	}
	if err := wb.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}
