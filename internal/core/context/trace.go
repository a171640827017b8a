package context

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext correlates log lines of one request.
type TraceContext struct {
	// TraceID is the OpenTelemetry trace id when a span is recording, otherwise the
	// caller-supplied X-Trace-ID.
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// TraceFromSpan builds a TraceContext for ctx's active span, falling back to fallbackTraceID
// when the span context is invalid (no tracer provider installed).
func TraceFromSpan(ctx context.Context, requestID, fallbackTraceID string) *TraceContext {
	traceID := fallbackTraceID
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}
