package backend

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/thiagokokada/gitrun/internal/git/backend"

const (
	outcomeOK        = "ok"
	outcomeExitCode  = "exit_code"
	outcomeCanceled  = "canceled"
	outcomeTransport = "transport"
)

// telemetry holds the spans and instruments one Executor reports to.
type telemetry struct {
	tracer  trace.Tracer
	latency metric.Float64Histogram
	total   metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)
	latency, err := meter.Float64Histogram(
		"gitrun_execute_duration_seconds",
		metric.WithDescription("Duration of git process executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	total, err := meter.Int64Counter(
		"gitrun_execute_total",
		metric.WithDescription("Number of git process executions"),
	)
	if err != nil {
		return nil, err
	}
	return &telemetry{
		tracer:  tp.Tracer(instrumentationName),
		latency: latency,
		total:   total,
	}, nil
}

func (t *telemetry) startSpan(ctx context.Context, cmd Command, invocation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "Executor.Stream",
		trace.WithAttributes(
			attribute.String("git.subcommand", cmd.Subcommand()),
			attribute.String("git.dir", cmd.Dir),
			attribute.String("git.invocation", invocation),
		),
	)
}

func (t *telemetry) record(ctx context.Context, subcommand string, d time.Duration, exitCode int, outcome string) {
	// Record against a detached context so cancelled executions still count.
	ctx = context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(
		attribute.String("subcommand", subcommand),
		attribute.String("outcome", outcome),
		attribute.Int("exit_code", exitCode),
	)
	t.latency.Record(ctx, d.Seconds(), attrs)
	t.total.Add(ctx, 1, attrs)
}

func setSpanResult(span trace.Span, exitCode int, outcome string) {
	span.SetAttributes(
		attribute.Int("git.exit_code", exitCode),
		attribute.String("git.outcome", outcome),
	)
	if outcome == outcomeTransport {
		span.SetStatus(codes.Error, "process failed")
	}
}

func outcomeFor(exitCode int, err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	case err != nil:
		return outcomeTransport
	case exitCode != 0:
		return outcomeExitCode
	default:
		return outcomeOK
	}
}
