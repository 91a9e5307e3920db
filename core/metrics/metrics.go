package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all ankivox metrics.
const meterName = "ankivox"

// Metrics holds the instruments recorded by the reconciliation engine.
// All fields are safe for concurrent use.
type Metrics struct {
	// Outcomes counts per-record outcomes. Use with attributes:
	//   attribute.String("outcome", ...), attribute.String("reason", ...)
	Outcomes metric.Int64Counter

	// StageDuration tracks remote call latency per pipeline stage.
	StageDuration metric.Float64Histogram

	// StageErrors counts failed remote calls per pipeline stage.
	StageErrors metric.Int64Counter

	// TempAudioLive tracks staged audio files that have not been released.
	TempAudioLive metric.Int64UpDownCounter
}

// latencyBuckets are histogram boundaries in seconds, sized for HTTP round trips
// to the speech service and the local AnkiConnect add-on.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates all instruments from the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Outcomes, err = m.Int64Counter("ankivox.records",
		metric.WithDescription("Records reconciled by outcome and reason."),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("ankivox.stage.duration",
		metric.WithDescription("Latency of remote pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageErrors, err = m.Int64Counter("ankivox.stage.errors",
		metric.WithDescription("Failed pipeline stages by stage name."),
	); err != nil {
		return nil, err
	}
	if met.TempAudioLive, err = m.Int64UpDownCounter("ankivox.temp_audio.live",
		metric.WithDescription("Staged audio files not yet released."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics built from otel.GetMeterProvider.
// Panics if instrument creation fails, which the global provider never does.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordOutcome increments the outcome counter.
func (m *Metrics) RecordOutcome(ctx context.Context, outcome, reason string) {
	m.Outcomes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("reason", reason),
		),
	)
}

// ObserveStage records the latency of one stage call and, if err is non-nil,
// counts it as a stage failure.
func (m *Metrics) ObserveStage(ctx context.Context, stage string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.StageDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.StageErrors.Add(ctx, 1, attrs)
	}
}

// TempAudioAcquired records a newly staged audio file.
func (m *Metrics) TempAudioAcquired(ctx context.Context) {
	m.TempAudioLive.Add(ctx, 1)
}

// TempAudioReleased records a released audio file.
func (m *Metrics) TempAudioReleased(ctx context.Context) {
	m.TempAudioLive.Add(ctx, -1)
}
