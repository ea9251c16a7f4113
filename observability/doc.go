// Package observability provides OpenTelemetry metrics and tracing for
// pullstream runs.
//
// Instruments are built from any metric.MeterProvider and
// trace.TracerProvider, so library users can hand in their own SDK providers.
// Without one, Noop() records nothing.
//
// Exporting over OTLP/HTTP:
//
//	p, err := observability.Init(ctx, cfg.Telemetry, log)
//	defer p.Shutdown(ctx)
//
//	inst, err := observability.NewInstruments(p.Meter, p.Tracer)
//	sink := pipeline.NewSink(l, upstream, pipeline.WithTelemetry(inst))
package observability
