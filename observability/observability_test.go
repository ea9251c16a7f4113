package observability

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestInstruments(t *testing.T) (*Instruments, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	inst, err := NewInstruments(mp, tp)
	if err != nil {
		t.Fatalf("unexpected error creating instruments: %v", err)
	}
	return inst, reader, sr
}

func sumValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRun_RecordsChunksAndOutcome(t *testing.T) {
	inst, reader, sr := newTestInstruments(t)

	run := inst.StartRun("sink", "run-1")
	run.Chunk(4)
	run.Chunk(4)
	run.Chunk(1)
	run.End(OutcomeFinished, nil)

	if got := sumValue(t, reader, "pullstream.reads"); got != 3 {
		t.Errorf("expected 3 reads, got %d", got)
	}
	if got := sumValue(t, reader, "pullstream.bytes"); got != 9 {
		t.Errorf("expected 9 bytes, got %d", got)
	}
	if got := sumValue(t, reader, "pullstream.runs"); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "pullstream.run" {
		t.Errorf("unexpected span name %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", span.Status().Code)
	}
	if !hasAttr(span.Attributes(), attribute.String("pullstream.run_id", "run-1")) {
		t.Errorf("expected run_id attribute, got %v", span.Attributes())
	}
	if !hasAttr(span.Attributes(), attribute.Int("pullstream.bytes", 9)) {
		t.Errorf("expected bytes attribute, got %v", span.Attributes())
	}
}

func TestRun_EndOnce(t *testing.T) {
	inst, reader, sr := newTestInstruments(t)

	run := inst.StartRun("sink", "run-2")
	run.End(OutcomeFailed, stderrors.New("boom"))
	run.End(OutcomeFinished, nil)

	if got := sumValue(t, reader, "pullstream.runs"); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}
	if spans[0].Status().Description != "boom" {
		t.Errorf("expected description 'boom', got %q", spans[0].Status().Description)
	}
}

func TestNoop(t *testing.T) {
	inst := Noop()
	run := inst.StartRun("sink", "noop")
	// These should not panic
	run.Chunk(10)
	run.End(OutcomeStopped, nil)
}

func TestInit_NoEndpoint(t *testing.T) {
	p, err := Init(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Meter == nil || p.Tracer == nil {
		t.Fatal("expected noop providers")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown should succeed, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults("pullstream", "dev")
	if cfg.ServiceName != "pullstream" || cfg.ServiceVersion != "dev" {
		t.Errorf("expected service defaults, got %+v", cfg)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Enabled() {
		t.Error("expected export disabled without endpoint")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := Config{SampleRate: 2}
	if err := bad.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == want.Key && kv.Value.Emit() == want.Value.Emit() {
			return true
		}
	}
	return false
}
