package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// ToolInvocation is the audit record of one tool call.
type ToolInvocation struct {
	Tool       string
	ToolCallID string
	ThreadID   string

	// Backend touched by the tool, if any.
	ServiceName string
	Operation   string

	// Arguments is the raw JSON the model sent. Only logged when the audit
	// logger is configured to include arguments.
	Arguments string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool call. Finish it with Complete.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithCall records the correlation id and arguments of the call.
func (ti *ToolInvocation) WithCall(callID, arguments string) *ToolInvocation {
	ti.ToolCallID = callID
	ti.Arguments = arguments
	return ti
}

// WithThread sets the conversation thread the call belongs to.
func (ti *ToolInvocation) WithThread(threadID string) *ToolInvocation {
	ti.ThreadID = threadID
	return ti
}

// WithService sets the backend service and operation.
func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithSpanContext copies trace and span ids from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the timer and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes of the audit record. Arguments are
// included only when withArguments is set.
func (ti *ToolInvocation) LogAttrs(withArguments bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	optional := []struct{ key, val string }{
		{"tool_call_id", ti.ToolCallID},
		{"thread", ti.ThreadID},
		{"service", ti.ServiceName},
		{"operation", ti.Operation},
		{"trace_id", ti.TraceID},
		{"span_id", ti.SpanID},
		{"error", ti.Error},
	}
	for _, o := range optional {
		if o.val != "" {
			attrs = append(attrs, slog.String(o.key, o.val))
		}
	}
	if withArguments && ti.Arguments != "" {
		attrs = append(attrs, slog.String("arguments", ti.Arguments))
	}
	return attrs
}

// AuditLogger writes one structured record per tool call.
type AuditLogger struct {
	logger           *slog.Logger
	enabled          bool
	includeArguments bool
}

func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:           logger,
		enabled:          config.Enabled,
		includeArguments: config.IncludeArguments,
	}
}

// LogToolInvocation writes ti at info on success and warn on failure.
// A nil receiver or a disabled logger does nothing.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}
	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.LogAttrs(al.includeArguments)...)
}
