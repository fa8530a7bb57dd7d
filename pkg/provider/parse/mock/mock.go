// Package mock provides a test double for the parse package interfaces.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/mfalkner/sprachlog/pkg/provider/parse"
)

// ParseCall records a single invocation of Parser.Parse.
type ParseCall struct {
	// Ctx is the context passed to Parse.
	Ctx context.Context
	// Transcript is the transcript passed to Parse.
	Transcript string
	// RefDate is the reference date passed to Parse.
	RefDate time.Time
}

// Parser is a mock implementation of parse.Parser.
type Parser struct {
	mu sync.Mutex

	// Result is returned from Parse. If nil, an empty Result dated at the
	// reference date is returned.
	Result *parse.Result

	// ParseErr, if non-nil, is returned as the error from Parse.
	ParseErr error

	// ParseCalls records every call to Parse.
	ParseCalls []ParseCall
}

// Ensure Parser satisfies the interface at compile time.
var _ parse.Parser = (*Parser)(nil)

// Parse records the call and returns Result, ParseErr.
func (p *Parser) Parse(ctx context.Context, transcript string, refDate time.Time) (*parse.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ParseCalls = append(p.ParseCalls, ParseCall{Ctx: ctx, Transcript: transcript, RefDate: refDate})
	if p.ParseErr != nil {
		return nil, p.ParseErr
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return &parse.Result{Date: refDate}, nil
}
