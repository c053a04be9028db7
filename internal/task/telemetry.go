package task

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"taskloop/internal/backend"
)

// Telemetry exports one OTLP span per task, covering schedule to terminal
// state. Optional: when no OTLP endpoint is configured the scheduler runs
// with zero tracing overhead beyond a nil check.
type Telemetry struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// NewTelemetry creates a Telemetry if OTEL_EXPORTER_OTLP_ENDPOINT is set.
// Returns (nil, nil) when the endpoint is not configured (disabled).
func NewTelemetry(ctx context.Context) (*Telemetry, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = "taskloop"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &Telemetry{
		provider: provider,
		tracer:   provider.Tracer("taskloop/task"),
	}, nil
}

// Shutdown flushes pending exports. Must be called before process exit.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

var (
	telemMu sync.Mutex
	telem   *Telemetry
)

// SetTelemetry installs the process-wide Telemetry used for tasks scheduled
// from now on. A nil value disables tracing.
func SetTelemetry(t *Telemetry) {
	telemMu.Lock()
	defer telemMu.Unlock()
	telem = t
}

// taskSpan is the per-task span handle. The zero value (tracing disabled)
// is valid and does nothing.
type taskSpan struct {
	span oteltrace.Span
}

func startTaskSpan(id uint64, mode backend.Mode) taskSpan {
	telemMu.Lock()
	t := telem
	telemMu.Unlock()
	if t == nil {
		return taskSpan{}
	}
	_, span := t.tracer.Start(context.Background(), "task.run",
		oteltrace.WithAttributes(
			attribute.Int64("taskloop.task.id", int64(id)),
			attribute.String("taskloop.task.mode", string(mode)),
		),
	)
	return taskSpan{span: span}
}

func (s taskSpan) end(state State, err error, drops, delivered int) {
	if s.span == nil {
		return
	}
	s.span.SetAttributes(
		attribute.String("taskloop.task.outcome", string(state)),
		attribute.Int("taskloop.task.progress.delivered", delivered),
		attribute.Int("taskloop.task.progress.dropped", drops),
	)
	if err != nil {
		s.span.RecordError(err)
	}
	s.span.End()
}
