package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Operation tracks one host operation (a scope load, an activation pass)
// as a span plus a duration sample.
type Operation struct {
	Name      string
	StartTime time.Time
	Metrics   *ResolutionMetrics

	span trace.Span
}

type operationContextKey struct{}

// StartOperation starts a span named spanName and returns the context
// carrying both the span and the Operation. metrics may be nil.
func StartOperation(ctx context.Context, spanName, operation string, metrics *ResolutionMetrics, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(attribute.String(AttrOperation, operation))
	span.SetAttributes(attrs...)

	op := &Operation{
		Name:      operation,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
	return context.WithValue(ctx, operationContextKey{}, op), op
}

// OperationFromContext retrieves the Operation from context, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	if op, ok := ctx.Value(operationContextKey{}).(*Operation); ok {
		return op
	}
	return nil
}

// Span returns the operation's span.
func (o *Operation) Span() trace.Span { return o.span }

// End ends the span and records the duration with an ok or error status.
func (o *Operation) End(ctx context.Context, err error) {
	duration := time.Since(o.StartTime)
	status := StatusOK
	if err != nil {
		status = StatusError
		SetSpanError(trace.ContextWithSpan(ctx, o.span), err)
	}

	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	o.span.End()

	o.Metrics.RecordOperation(ctx, o.Name, status, duration)
}

// Duration returns the elapsed time since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.StartTime)
}
