// Package parse defines the Parser interface for turning a dictated
// transcript into a structured activity record.
//
// Parsing is performed by a large language model behind a narrow
// request/response contract: the transcript and a reference date go in, a
// [Result] with nullable fields comes out. Everything downstream — term
// normalization, file resolution, the spreadsheet write — works on the
// Result, never on provider-specific types.
//
// Implementations must be safe for concurrent use.
package parse

import (
	"context"
	"time"
)

// Result is the structured interpretation of one dictated utterance.
// Description is the only field a parser must fill; everything else is
// optional and defaults to its zero value when the speaker did not mention
// it.
type Result struct {
	// Client is the client name the work was done for, as dictated.
	// Normalized against the glossar before use.
	Client string

	// Date is the calendar date of the activity. Parsers resolve relative
	// expressions ("gestern", "letzten Freitag") against the reference date.
	Date time.Time

	// Topic is the free-text subject, as dictated. Normalized against the
	// glossar before persistence.
	Topic string

	// Description is the free-text body of the record.
	Description string

	// DurationMinutes is the dictated time spent. Nil when not mentioned.
	DurationMinutes *int

	// DistanceKm is the dictated driving distance, 0 when not mentioned.
	DistanceKm float64

	// ExpenseAmount is the dictated expense, 0 when not mentioned.
	ExpenseAmount float64
}

// Parser extracts a structured [Result] from a transcript. refDate anchors
// relative date expressions and supplies the default when no date was
// dictated.
type Parser interface {
	Parse(ctx context.Context, transcript string, refDate time.Time) (*Result, error)
}
