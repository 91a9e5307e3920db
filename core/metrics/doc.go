// Package metrics provides the OpenTelemetry instruments recorded during a sync run.
//
// Instruments are created through the OpenTelemetry Metrics API, so a run records
// nothing until a real MeterProvider is installed with otel.SetMeterProvider.
// The package-level Default instance uses the global provider; tests should use
// NewMetrics with an sdkmetric.ManualReader to inspect recorded values.
//
// # Instruments
//
//   - ankivox.records: outcome counter (attributes: outcome, reason)
//   - ankivox.stage.duration: latency histogram per remote stage (attribute: stage)
//   - ankivox.stage.errors: failure counter per stage (attribute: stage)
//   - ankivox.temp_audio.live: staged audio files currently held
package metrics
