package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span calagent creates.
const TracerName = "github.com/teemow/calagent"

// Span attribute keys.
const (
	SpanAttrThread     = "agent.thread"
	SpanAttrSteps      = "agent.steps"
	SpanAttrTool       = "tool.name"
	SpanAttrToolCallID = "tool.call_id"
	SpanAttrService    = "backend.service"
	SpanAttrOperation  = "backend.operation"
	SpanAttrModel      = "llm.model"
	SpanAttrToolCalls  = "llm.tool_calls"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartTurnSpan starts the root span of one chat turn.
func StartTurnSpan(ctx context.Context, threadID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "agent.turn",
		trace.WithAttributes(attribute.String(SpanAttrThread, threadID)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartLLMSpan starts a span around one model request.
func StartLLMSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "llm.generate",
		trace.WithAttributes(attribute.String(SpanAttrModel, model)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartToolSpan starts a span for one tool call.
func StartToolSpan(ctx context.Context, toolName, callID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}
	if callID != "" {
		attrs = append(attrs, attribute.String(SpanAttrToolCallID, callID))
	}
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartAPISpan starts a client span for a backend operation, named
// <service>.<operation>.
func StartAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all,
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	)
	all = append(all, attrs...)
	return tracer().Start(ctx, service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on the span. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace id of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
