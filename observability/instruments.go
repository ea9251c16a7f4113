package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kbukum/pullstream"

// Run outcomes recorded on the runs counter and the run span.
const (
	OutcomeFinished = "finished"
	OutcomeFailed   = "failed"
	OutcomeStopped  = "stopped"
)

// Instruments holds the metric instruments and tracer used by a sink.
type Instruments struct {
	reads    metric.Int64Counter
	bytes    metric.Int64Counter
	runs     metric.Int64Counter
	duration metric.Float64Histogram
	tracer   trace.Tracer
}

// NewInstruments creates instruments on the given providers.
func NewInstruments(mp metric.MeterProvider, tp trace.TracerProvider) (*Instruments, error) {
	meter := mp.Meter(instrumentationName)

	reads, err := meter.Int64Counter("pullstream.reads",
		metric.WithDescription("Chunks received by sinks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pullstream.reads counter: %w", err)
	}

	bytes, err := meter.Int64Counter("pullstream.bytes",
		metric.WithDescription("Bytes accumulated by sinks"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pullstream.bytes counter: %w", err)
	}

	runs, err := meter.Int64Counter("pullstream.runs",
		metric.WithDescription("Completed sink runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pullstream.runs counter: %w", err)
	}

	duration, err := meter.Float64Histogram("pullstream.run.duration",
		metric.WithDescription("Duration of sink runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pullstream.run.duration histogram: %w", err)
	}

	return &Instruments{
		reads:    reads,
		bytes:    bytes,
		runs:     runs,
		duration: duration,
		tracer:   tp.Tracer(instrumentationName),
	}, nil
}

// Noop returns instruments that record nothing.
func Noop() *Instruments {
	p := NoopProviders()
	inst, err := NewInstruments(p.Meter, p.Tracer)
	if err != nil {
		// noop providers never fail to create instruments
		panic(err)
	}
	return inst
}

// Run tracks one sink run from Start to its terminal outcome.
type Run struct {
	inst    *Instruments
	ctx     context.Context
	span    trace.Span
	stage   string
	started time.Time
	bytes   int
	ended   bool
}

// StartRun opens the span for a sink run.
func (i *Instruments) StartRun(stage, runID string) *Run {
	ctx, span := i.tracer.Start(context.Background(), "pullstream.run",
		trace.WithAttributes(
			attribute.String("pullstream.stage", stage),
			attribute.String("pullstream.run_id", runID),
		),
	)
	return &Run{inst: i, ctx: ctx, span: span, stage: stage, started: time.Now()}
}

// Chunk records one received chunk.
func (r *Run) Chunk(n int) {
	attrs := metric.WithAttributes(attribute.String("stage", r.stage))
	r.bytes += n
	r.inst.reads.Add(r.ctx, 1, attrs)
	r.inst.bytes.Add(r.ctx, int64(n), attrs)
}

// End closes the run with an outcome. Only the first call has any effect.
func (r *Run) End(outcome string, err error) {
	if r.ended {
		return
	}
	r.ended = true

	attrs := metric.WithAttributes(
		attribute.String("stage", r.stage),
		attribute.String("outcome", outcome),
	)
	r.inst.runs.Add(r.ctx, 1, attrs)
	r.inst.duration.Record(r.ctx, time.Since(r.started).Seconds(), attrs)

	r.span.SetAttributes(
		attribute.String("pullstream.outcome", outcome),
		attribute.Int("pullstream.bytes", r.bytes),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()
}
