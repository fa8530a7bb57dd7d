// Package app wires the intake pipeline: a recorded utterance is
// transcribed, parsed into a structured activity, normalized against the
// merged glossar, and appended to the registered workbook for the dictated
// client and year.
//
// The desktop shell (window, tray, hotkey, IPC) lives outside this module;
// app exposes the operations that shell calls into.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/mfalkner/sprachlog/internal/config"
	"github.com/mfalkner/sprachlog/internal/glossar"
	"github.com/mfalkner/sprachlog/internal/logbook"
	"github.com/mfalkner/sprachlog/pkg/provider/parse"
	"github.com/mfalkner/sprachlog/pkg/provider/stt"
)

// App is the assembled intake pipeline. Construct it once at startup with
// [New]; all methods are safe for concurrent use.
type App struct {
	registry   *config.FileRegistry
	stt        stt.Provider
	parser     parse.Parser
	glossars   *glossar.Service
	normalizer *glossar.Normalizer
	writer     *logbook.Writer

	mu     sync.RWMutex
	merged *glossar.Glossar
}

// New assembles an App from its collaborators. sttProvider may be nil when
// only text intake is used (e.g. the CLI's add action).
func New(
	registry *config.FileRegistry,
	sttProvider stt.Provider,
	parser parse.Parser,
	glossars *glossar.Service,
	normalizer *glossar.Normalizer,
	writer *logbook.Writer,
) *App {
	return &App{
		registry:   registry,
		stt:        sttProvider,
		parser:     parser,
		glossars:   glossars,
		normalizer: normalizer,
		writer:     writer,
	}
}

// WarmUp ensures every active workbook has a glossar (bootstrapping missing
// ones from historical entries) and builds the merged lookup space used by
// normalization. Per-file failures are tolerated; a file without a loadable
// glossar simply contributes nothing.
func (a *App) WarmUp(ctx context.Context) {
	for _, entry := range a.registry.ActiveEntries() {
		if g := a.glossars.Ensure(ctx, entry.Path, entry.Client); g == nil {
			slog.Warn("no glossar available", "path", entry.Path, "client", entry.Client)
		}
	}

	merged := a.glossars.LoadAll(ctx, a.registry.ActivePaths())

	a.mu.Lock()
	a.merged = merged
	a.mu.Unlock()

	if merged != nil {
		slog.Info("glossar lookup space ready", "entries", len(merged.Entries))
	}
}

// Merged returns the current merged glossar, or nil before a successful
// [App.WarmUp].
func (a *App) Merged() *glossar.Glossar {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.merged
}

// OnConfigChange swaps the file registry to the new config's file set and
// drops all cached glossars; call [App.WarmUp] afterwards to rebuild the
// lookup space. Suitable as a [config.Watcher] callback.
func (a *App) OnConfigChange(_, newCfg *config.Config) {
	a.registry.Replace(newCfg.Files)
	a.glossars.ClearCache()
}

// IntakeAudio transcribes one recorded utterance and feeds the transcript
// through [App.IntakeTranscript]. The merged glossar's terms are passed to
// the STT provider as recognition hints.
func (a *App) IntakeAudio(ctx context.Context, audio io.Reader, filename string) (*logbook.Activity, string, error) {
	if a.stt == nil {
		return nil, "", fmt.Errorf("app: no stt provider configured")
	}

	transcript, err := a.stt.Transcribe(ctx, stt.Request{
		Audio:    audio,
		Filename: filename,
		Language: "de",
		Hints:    a.hintTerms(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("app: transcribe: %w", err)
	}

	return a.IntakeTranscript(ctx, transcript.Text, time.Now())
}

// IntakeTranscript parses a transcript into an activity, normalizes its
// client and topic against the merged glossar, resolves the target workbook
// and appends the record. It returns the written activity and the workbook
// path it went to.
func (a *App) IntakeTranscript(ctx context.Context, transcript string, refDate time.Time) (*logbook.Activity, string, error) {
	result, err := a.parser.Parse(ctx, transcript, refDate)
	if err != nil {
		return nil, "", fmt.Errorf("app: parse transcript: %w", err)
	}

	merged := a.Merged()
	client := a.normalizer.Normalize(ctx, result.Client, merged)
	topic := a.normalizer.Normalize(ctx, result.Topic, merged)

	path, err := a.registry.Resolve(client, result.Date.Year())
	if err != nil {
		return nil, "", err
	}

	act := logbook.Activity{
		Date:            result.Date,
		Topic:           topic,
		Description:     result.Description,
		DurationMinutes: result.DurationMinutes,
		DistanceKm:      result.DistanceKm,
		ExpenseAmount:   result.ExpenseAmount,
	}
	if err := a.writer.AddActivity(ctx, path, act); err != nil {
		return nil, "", err
	}
	return &act, path, nil
}

// hintTerms builds the STT recognition hint list from the merged glossar:
// every canonical term, plus synonyms that sound different from their
// canonical term. Phonetically identical synonyms are dropped — they add
// prompt length without adding recognition value.
func (a *App) hintTerms() []string {
	merged := a.Merged()
	if merged == nil {
		return nil
	}

	var hints []string
	for _, e := range merged.Entries {
		hints = append(hints, e.Term)
		tp, ts := matchr.DoubleMetaphone(e.Term)
		for _, syn := range e.Synonyms {
			sp, ss := matchr.DoubleMetaphone(syn)
			if sp == tp && ss == ts {
				continue
			}
			hints = append(hints, syn)
		}
	}
	return hints
}
