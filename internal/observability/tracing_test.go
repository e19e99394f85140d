package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfigValidate(t *testing.T) {
	if err := (TracingConfig{Exporter: "OTLP", SampleRatio: 0.25}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	err := TracingConfig{Exporter: "zipkin", SampleRatio: 7}.Validate()
	if err == nil {
		t.Fatalf("Validate should reject exporter and ratio")
	}
	for _, want := range []string{"zipkin", "sample_ratio"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestInitTracingDisabledAndUnsupported(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing disabled: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}

	if _, err := InitTracing(ctx, TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, nil); err == nil {
		t.Fatalf("unsupported exporter should fail")
	}
}

func TestInitTracingStdoutWritesSpans(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	shutdown, err := InitTracing(ctx, TracingConfig{Enabled: true, Exporter: "stdout", SampleRatio: 1}, nil, WithSpanWriter(&buf))
	if err != nil {
		t.Fatalf("InitTracing stdout: %v", err)
	}
	_, span := otel.Tracer("test").Start(ctx, "sim.Update")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, nil)
	ShutdownWithTimeout(ctx, nil, nil)

	if !strings.Contains(buf.String(), "sim.Update") {
		t.Fatalf("exported spans %q lack sim.Update", buf.String())
	}
	if _, err := InitTracing(ctx, TracingConfig{}, nil); err != nil {
		t.Fatalf("reset tracing: %v", err)
	}
}
