package common

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
)

// Instrumented wraps t's handler with a tool span (plus a backend span
// when t.Service is set), tool and backend operation metrics, and an
// audit entry.
//
// Usage:
//
//	reg.Add(common.Instrumented(tool, sc))
func Instrumented(t Tool, sc *server.ServerContext) Tool {
	handler := t.Handler
	t.Handler = func(ctx context.Context, args json.RawMessage) (string, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		call, _ := CallFromContext(ctx)
		ctx, span := instrumentation.StartToolSpan(ctx, t.Name, call.ID)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(t.Name).
			WithCall(call.ID, string(args)).
			WithThread(ThreadIDFromContext(ctx)).
			WithSpanContext(ctx)

		handlerCtx := ctx
		var apiSpan trace.Span
		if t.Service != "" {
			invocation.WithService(t.Service, t.Operation)
			handlerCtx, apiSpan = instrumentation.StartAPISpan(ctx, t.Service, t.Operation)
		}

		out, err := handler(handlerCtx, args)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		} else {
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}
		if apiSpan != nil {
			if err != nil {
				instrumentation.SetSpanError(apiSpan, err)
			}
			apiSpan.End()
		}

		metrics.RecordToolInvocation(ctx, t.Name, status, duration)
		if t.Service != "" {
			metrics.RecordAPIOperation(ctx, t.Service, t.Operation, status, duration)
		}
		auditLogger.LogToolInvocation(ctx, invocation)

		return out, err
	}
	return t
}
