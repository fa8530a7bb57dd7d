// Package mock provides a test double for the stt package interfaces.
//
// Use Provider to feed a controlled transcript to the intake pipeline and to
// inspect the hint list the caller supplied.
package mock

import (
	"context"
	"sync"

	"github.com/mfalkner/sprachlog/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the request passed to Transcribe.
	Req stt.Request
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned from Transcribe. If nil, an empty transcript
	// is returned.
	Transcript *stt.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Ensure Provider satisfies the interface at compile time.
var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns Transcript, TranscribeErr.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})
	if p.TranscribeErr != nil {
		return nil, p.TranscribeErr
	}
	if p.Transcript != nil {
		return p.Transcript, nil
	}
	return &stt.Transcript{}, nil
}

// Calls returns a copy of the recorded calls.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranscribeCall(nil), p.TranscribeCalls...)
}
