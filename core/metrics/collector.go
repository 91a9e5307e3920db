package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// StageStat aggregates the calls of one pipeline stage.
type StageStat struct {
	Stage        string  `json:"stage" yaml:"stage"`
	Calls        uint64  `json:"calls" yaml:"calls"`
	Errors       int64   `json:"errors" yaml:"errors"`
	TotalSeconds float64 `json:"total_seconds" yaml:"total_seconds"`
}

// Mean returns the average call duration.
func (s StageStat) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return time.Duration(s.TotalSeconds / float64(s.Calls) * float64(time.Second))
}

// Snapshot is the state of the instruments at one point in time.
type Snapshot struct {
	Stages        []StageStat `json:"stages" yaml:"stages"`
	TempAudioLive int64       `json:"temp_audio_live" yaml:"temp_audio_live"`
}

// Collector records into an in-process MeterProvider that can be read back,
// so a single CLI run can report its own figures.
type Collector struct {
	*Metrics

	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewCollector creates a Collector with its own ManualReader.
func NewCollector() (*Collector, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &Collector{Metrics: m, reader: reader, provider: provider}, nil
}

// Snapshot reads the current values of the stage and temp audio instruments.
// Stages are sorted by name.
func (c *Collector) Snapshot(ctx context.Context) (*Snapshot, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	stages := map[string]*StageStat{}
	stat := func(name string) *StageStat {
		s, ok := stages[name]
		if !ok {
			s = &StageStat{Stage: name}
			stages[name] = s
		}
		return s
	}

	snap := &Snapshot{Stages: []StageStat{}}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch md.Name {
			case "ankivox.stage.duration":
				if h, ok := md.Data.(metricdata.Histogram[float64]); ok {
					for _, dp := range h.DataPoints {
						s := stat(stageName(dp.Attributes))
						s.Calls += dp.Count
						s.TotalSeconds += dp.Sum
					}
				}
			case "ankivox.stage.errors":
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						stat(stageName(dp.Attributes)).Errors += dp.Value
					}
				}
			case "ankivox.temp_audio.live":
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						snap.TempAudioLive += dp.Value
					}
				}
			}
		}
	}

	for _, s := range stages {
		snap.Stages = append(snap.Stages, *s)
	}
	sort.Slice(snap.Stages, func(i, j int) bool {
		return snap.Stages[i].Stage < snap.Stages[j].Stage
	})
	return snap, nil
}

func stageName(attrs attribute.Set) string {
	if v, ok := attrs.Value("stage"); ok {
		return v.AsString()
	}
	return "unknown"
}

// Shutdown releases the underlying MeterProvider.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}
