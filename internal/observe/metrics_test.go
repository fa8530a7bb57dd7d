package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mfalkner/sprachlog/internal/observe"
)

// collect gathers all recorded metrics from the reader, keyed by name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterSum(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q: data type %T, want Sum[int64]", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetrics_RecordsCounters(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.CountDecision(ctx, "exact")
	m.CountDecision(ctx, "fuzzy")
	m.CountDecision(ctx, "miss")
	m.CountCache(ctx, true)
	m.CountCache(ctx, true)
	m.CountCache(ctx, false)

	got := collect(t, reader)

	if sum := counterSum(t, got["sprachlog.normalize.decisions"]); sum != 3 {
		t.Errorf("normalize decisions = %d, want 3", sum)
	}
	if sum := counterSum(t, got["sprachlog.glossar.cache.hits"]); sum != 2 {
		t.Errorf("cache hits = %d, want 2", sum)
	}
	if sum := counterSum(t, got["sprachlog.glossar.cache.misses"]); sum != 1 {
		t.Errorf("cache misses = %d, want 1", sum)
	}
}

func TestMetrics_NilSafety(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var nilMetrics *observe.Metrics
	nilMetrics.CountDecision(ctx, "exact")
	nilMetrics.CountCache(ctx, true)

	// A zero value has no instruments; the helpers must not panic.
	zero := &observe.Metrics{}
	zero.CountDecision(ctx, "miss")
	zero.CountCache(ctx, false)
}
