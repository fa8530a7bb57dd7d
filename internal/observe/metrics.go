// Package observe provides observability primitives for sprachlog:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([Default]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all sprachlog metrics.
const meterName = "github.com/mfalkner/sprachlog"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ActivitiesWritten counts activity rows appended to workbooks. Use with
	// attribute.String("sheet", ...).
	ActivitiesWritten metric.Int64Counter

	// BackupsCreated counts backup copies created before mutations.
	BackupsCreated metric.Int64Counter

	// GlossarCacheHits and GlossarCacheMisses count glossar cache lookups.
	GlossarCacheHits   metric.Int64Counter
	GlossarCacheMisses metric.Int64Counter

	// FuzzyMatches counts normalizer decisions. Use with
	//   attribute.String("outcome", "exact"|"fuzzy"|"miss")
	FuzzyMatches metric.Int64Counter

	// ProviderRequests counts external provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// WriteDuration tracks the full activity write latency (backup + load +
	// row discovery + save) in seconds.
	WriteDuration metric.Float64Histogram
}

// writeLatencyBuckets defines histogram bucket boundaries (in seconds)
// for local spreadsheet writes.
var writeLatencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates all metric instruments on a meter from provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.ActivitiesWritten, err = meter.Int64Counter(
		"sprachlog.activities.written",
		metric.WithDescription("Activity rows appended to workbooks"),
	); err != nil {
		return nil, err
	}
	if m.BackupsCreated, err = meter.Int64Counter(
		"sprachlog.backups.created",
		metric.WithDescription("Backup copies created before workbook mutations"),
	); err != nil {
		return nil, err
	}
	if m.GlossarCacheHits, err = meter.Int64Counter(
		"sprachlog.glossar.cache.hits",
		metric.WithDescription("Glossar cache lookups answered from memory"),
	); err != nil {
		return nil, err
	}
	if m.GlossarCacheMisses, err = meter.Int64Counter(
		"sprachlog.glossar.cache.misses",
		metric.WithDescription("Glossar cache lookups that re-read the file"),
	); err != nil {
		return nil, err
	}
	if m.FuzzyMatches, err = meter.Int64Counter(
		"sprachlog.normalize.decisions",
		metric.WithDescription("Term normalizer decisions by outcome"),
	); err != nil {
		return nil, err
	}
	if m.ProviderRequests, err = meter.Int64Counter(
		"sprachlog.provider.requests",
		metric.WithDescription("External provider API calls"),
	); err != nil {
		return nil, err
	}
	if m.WriteDuration, err = meter.Float64Histogram(
		"sprachlog.write.duration",
		metric.WithDescription("Full activity write latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(writeLatencyBuckets...),
	); err != nil {
		return nil, err
	}

	return m, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide [Metrics] instance backed by the global
// OTel meter provider. The instance is created lazily on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			// Instrument creation only fails on invalid names; fall back
			// to a zero Metrics so callers keep working without telemetry.
			m = &Metrics{}
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// CountDecision records one normalizer decision with the given outcome.
// Safe to call on a nil receiver and on a zero-value Metrics.
func (m *Metrics) CountDecision(ctx context.Context, outcome string) {
	if m == nil || m.FuzzyMatches == nil {
		return
	}
	m.FuzzyMatches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CountCache records one glossar cache lookup.
func (m *Metrics) CountCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		if m.GlossarCacheHits != nil {
			m.GlossarCacheHits.Add(ctx, 1)
		}
		return
	}
	if m.GlossarCacheMisses != nil {
		m.GlossarCacheMisses.Add(ctx, 1)
	}
}
