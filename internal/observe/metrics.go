// Package observe provides application-wide observability primitives for
// voxmed: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so metrics can be scraped
// via the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxmed metrics.
const meterName = "github.com/voxmed/voxmed"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SegmentDuration tracks deterministic pipeline latency per segment.
	SegmentDuration metric.Float64Histogram

	// AICorrectionDuration tracks AI correction pass latency.
	AICorrectionDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// SegmentsProcessed counts applied recogniser events. Use with
	// attribute: attribute.String("kind", "dictation"|"command"|"dropped")
	SegmentsProcessed metric.Int64Counter

	// AIRequests counts AI correction requests. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("mode", ...),
	//   attribute.String("status", ...)
	AIRequests metric.Int64Counter

	// ReviewDecisions counts accept/reject decisions in correction review.
	// Use with attribute: attribute.String("decision", "accept"|"reject")
	ReviewDecisions metric.Int64Counter

	// VocabularyLearned counts pairs added to the user vocabulary. Use with
	// attribute: attribute.String("source", "review"|"proposal"|"import")
	VocabularyLearned metric.Int64Counter

	// ConsistencyIssues counts issues flagged by the consistency checker.
	// Use with attribute: attribute.String("type", ...)
	ConsistencyIssues metric.Int64Counter

	// ActiveSessions tracks the number of live dictation sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// text-processing latencies: pipeline passes are sub-millisecond, AI passes
// run into seconds.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SegmentDuration, err = m.Float64Histogram("voxmed.segment.duration",
		metric.WithDescription("Latency of the deterministic segment pipeline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AICorrectionDuration, err = m.Float64Histogram("voxmed.ai.duration",
		metric.WithDescription("Latency of AI correction passes."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxmed.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if met.SegmentsProcessed, err = m.Int64Counter("voxmed.segments.processed",
		metric.WithDescription("Recogniser events handled, by kind."),
	); err != nil {
		return nil, err
	}
	if met.AIRequests, err = m.Int64Counter("voxmed.ai.requests",
		metric.WithDescription("AI correction requests by provider, mode, and status."),
	); err != nil {
		return nil, err
	}
	if met.ReviewDecisions, err = m.Int64Counter("voxmed.review.decisions",
		metric.WithDescription("Correction review decisions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.VocabularyLearned, err = m.Int64Counter("voxmed.vocabulary.learned",
		metric.WithDescription("Vocabulary pairs learned, by source."),
	); err != nil {
		return nil, err
	}
	if met.ConsistencyIssues, err = m.Int64Counter("voxmed.consistency.issues",
		metric.WithDescription("Consistency issues flagged, by type."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("voxmed.active_sessions",
		metric.WithDescription("Number of live dictation sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSegment records one handled recogniser event.
func (m *Metrics) RecordSegment(ctx context.Context, kind string) {
	m.SegmentsProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordAIRequest records one AI correction request with the standard
// attribute set.
func (m *Metrics) RecordAIRequest(ctx context.Context, provider, mode, status string) {
	m.AIRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("mode", mode),
			attribute.String("status", status),
		),
	)
}

// RecordReviewDecision records one accept or reject decision.
func (m *Metrics) RecordReviewDecision(ctx context.Context, decision string) {
	m.ReviewDecisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("decision", decision)),
	)
}

// RecordVocabularyLearned records one learned vocabulary pair.
func (m *Metrics) RecordVocabularyLearned(ctx context.Context, source string) {
	m.VocabularyLearned.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}
