package resilience

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mfalkner/sprachlog/pkg/provider/parse"
	"github.com/mfalkner/sprachlog/pkg/provider/stt"
)

// STTProvider decorates an stt.Provider with bounded retries.
type STTProvider struct {
	inner stt.Provider
	cfg   RetryConfig
}

var _ stt.Provider = (*STTProvider)(nil)

// NewSTTProvider wraps inner with the retry policy of cfg.
func NewSTTProvider(inner stt.Provider, cfg RetryConfig) *STTProvider {
	return &STTProvider{inner: inner, cfg: cfg}
}

// Transcribe retries the inner provider on failure. The audio stream is
// buffered up front so every attempt reads it from the start; dictated
// utterances are short, so holding them in memory is fine.
func (p *STTProvider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	if req.Audio == nil {
		return nil, fmt.Errorf("resilience: audio must not be nil")
	}
	audio, err := io.ReadAll(req.Audio)
	if err != nil {
		return nil, fmt.Errorf("resilience: read audio: %w", err)
	}

	return Do(ctx, p.cfg, "transcribe", func() (*stt.Transcript, error) {
		attempt := req
		attempt.Audio = bytes.NewReader(audio)
		return p.inner.Transcribe(ctx, attempt)
	})
}

// Parser decorates a parse.Parser with bounded retries.
type Parser struct {
	inner parse.Parser
	cfg   RetryConfig
}

var _ parse.Parser = (*Parser)(nil)

// NewParser wraps inner with the retry policy of cfg.
func NewParser(inner parse.Parser, cfg RetryConfig) *Parser {
	return &Parser{inner: inner, cfg: cfg}
}

// Parse retries the inner parser on failure.
func (p *Parser) Parse(ctx context.Context, transcript string, refDate time.Time) (*parse.Result, error) {
	return Do(ctx, p.cfg, "parse transcript", func() (*parse.Result, error) {
		return p.inner.Parse(ctx, transcript, refDate)
	})
}
