// Package stt defines the Provider interface for speech-to-text backends.
//
// The assistant records one short utterance at a time, so the interface is a
// one-shot call: audio in, transcript out. Recognition hints carry the
// glossar's canonical terms to raise the probability that client and topic
// names are transcribed in their known spellings.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"io"
)

// Transcript is the result of transcribing one recorded utterance.
type Transcript struct {
	// Text is the full transcribed text.
	Text string

	// Language is the BCP-47 tag of the detected or requested language.
	Language string
}

// Request carries one utterance to transcribe.
type Request struct {
	// Audio is the encoded recording (wav, mp3, m4a, webm — whatever the
	// provider accepts).
	Audio io.Reader

	// Filename hints the container format to providers that sniff by
	// extension, e.g. "clip.wav".
	Filename string

	// Language is the BCP-47 tag to transcribe in. Empty lets the provider
	// auto-detect.
	Language string

	// Hints lists vocabulary the speaker is likely to use, such as the
	// glossar's canonical client and topic terms.
	Hints []string
}

// Provider transcribes recorded utterances.
type Provider interface {
	// Transcribe converts one recorded utterance to text. Implementations
	// must respect ctx cancellation.
	Transcribe(ctx context.Context, req Request) (*Transcript, error)
}
