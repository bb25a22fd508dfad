// Package observability wires the pipeline's counters and histograms
// through OpenTelemetry's metric API with a Prometheus exporter, following
// the setup in loqalabs-loqa-core's internal/runtime/telemetry.go. Unlike
// that teacher, the synthesis pipeline has no request/response RPC surface
// of its own (spec: RPC wrappers are an external collaborator), so only the
// metrics half of the telemetry stack is carried — no tracer provider.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

// Metrics holds the counters and histograms emitted across a render: per
// segment synthesis outcome, rejected emotion transitions, and mixer
// timing. All are cumulative for the process lifetime of the Engine/Meter
// that owns them, mirroring the provider-registry's "process-wide,
// initialized once" resource described in spec §5.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	SegmentsSynthesized metric.Int64Counter
	SegmentsFailed      metric.Int64Counter
	TransitionsRejected metric.Int64Counter
	MixDuration         metric.Float64Histogram
}

// New builds a Metrics instance bound to a fresh Prometheus registry and
// returns an http.Handler suitable for exposing /metrics, analogous to
// initMetrics in the teacher telemetry package. If the resource, the
// Prometheus exporter, or any instrument cannot be built, New returns the
// error with a nil *Metrics and a nil handler; the Record methods are
// no-ops on a nil *Metrics.
func New(serviceName string) (*Metrics, http.Handler, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("observability: resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("observability: prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter("voxcue/synthesis")

	m := &Metrics{provider: provider, meter: meter}

	if m.SegmentsSynthesized, err = meter.Int64Counter("voxcue.segments.synthesized"); err != nil {
		return nil, nil, err
	}
	if m.SegmentsFailed, err = meter.Int64Counter("voxcue.segments.failed"); err != nil {
		return nil, nil, err
	}
	if m.TransitionsRejected, err = meter.Int64Counter("voxcue.transitions.rejected"); err != nil {
		return nil, nil, err
	}
	if m.MixDuration, err = meter.Float64Histogram("voxcue.mixer.duration_ms"); err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// Shutdown flushes and releases the meter provider's resources.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordSegment tallies one segment's outcome, tagged by provider and
// failure kind (kind == "" on success).
func (m *Metrics) RecordSegment(ctx context.Context, provider string, kind string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	if kind == "" {
		m.SegmentsSynthesized.Add(ctx, 1, attrs)
		return
	}
	m.SegmentsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordTransitionRejected tallies one dropped emotion transition.
func (m *Metrics) RecordTransitionRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.TransitionsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordMixDuration records wall-clock mixer time in milliseconds.
func (m *Metrics) RecordMixDuration(ctx context.Context, ms float64) {
	if m == nil {
		return
	}
	m.MixDuration.Record(ctx, ms)
}
