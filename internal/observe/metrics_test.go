package observe_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/voxmed/voxmed/internal/observe"
)

// newTestMetrics returns a Metrics instance backed by a manual reader so
// tests can collect and inspect recorded data.
func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// findMetric locates a metric by name in collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return &rm
}

func TestRecordSegment(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSegment(ctx, "dictation")
	m.RecordSegment(ctx, "dictation")
	m.RecordSegment(ctx, "command")

	rm := collect(t, reader)
	met, ok := findMetric(rm, "voxmed.segments.processed")
	if !ok {
		t.Fatal("voxmed.segments.processed not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("data type = %T, want Sum[int64]", met.Data)
	}

	want := map[string]int64{"dictation": 2, "command": 1}
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		if dp.Value != want[kind.AsString()] {
			t.Errorf("segments.processed{kind=%q} = %d, want %d", kind.AsString(), dp.Value, want[kind.AsString()])
		}
	}
	if len(sum.DataPoints) != len(want) {
		t.Errorf("datapoints = %d, want %d", len(sum.DataPoints), len(want))
	}
}

func TestRecordAIRequest(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	m.RecordAIRequest(context.Background(), "openai", "sentinel", "ok")

	rm := collect(t, reader)
	met, ok := findMetric(rm, "voxmed.ai.requests")
	if !ok {
		t.Fatal("voxmed.ai.requests not found")
	}
	sum := met.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 {
		t.Fatalf("datapoints = %d, want 1", len(sum.DataPoints))
	}
	dp := sum.DataPoints[0]
	for key, wantVal := range map[string]string{"provider": "openai", "mode": "sentinel", "status": "ok"} {
		got, ok := dp.Attributes.Value(attribute.Key(key))
		if !ok || got.AsString() != wantVal {
			t.Errorf("attribute %q = (%q, %v), want %q", key, got.AsString(), ok, wantVal)
		}
	}
}

func TestSegmentDurationHistogram(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	m.SegmentDuration.Record(context.Background(), 0.002)
	m.SegmentDuration.Record(context.Background(), 0.004)

	rm := collect(t, reader)
	met, ok := findMetric(rm, "voxmed.segment.duration")
	if !ok {
		t.Fatal("voxmed.segment.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("data type = %T, want Histogram[float64]", met.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("histogram datapoints = %+v, want one point with count 2", hist.DataPoints)
	}
}

func TestActiveSessionsUpDown(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	met, ok := findMetric(rm, "voxmed.active_sessions")
	if !ok {
		t.Fatal("voxmed.active_sessions not found")
	}
	sum := met.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("active_sessions = %+v, want value 1", sum.DataPoints)
	}
}

func TestMetricsScopeName(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	m.RecordReviewDecision(context.Background(), "accept")

	rm := collect(t, reader)
	if len(rm.ScopeMetrics) != 1 || rm.ScopeMetrics[0].Scope.Name != "github.com/voxmed/voxmed" {
		t.Errorf("scope = %+v, want github.com/voxmed/voxmed", rm.ScopeMetrics)
	}
}

func TestDefaultMetricsSingleton(t *testing.T) {
	t.Parallel()

	a := observe.DefaultMetrics()
	b := observe.DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different instances")
	}
}
