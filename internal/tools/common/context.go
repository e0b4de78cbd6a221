package common

import (
	"context"

	"github.com/teemow/calagent/internal/conversation"
)

type callKey struct{}
type threadKey struct{}

// WithCall attaches the tool call being dispatched to ctx.
func WithCall(ctx context.Context, call conversation.ToolCall) context.Context {
	return context.WithValue(ctx, callKey{}, call)
}

// CallFromContext returns the tool call set by WithCall.
func CallFromContext(ctx context.Context) (conversation.ToolCall, bool) {
	call, ok := ctx.Value(callKey{}).(conversation.ToolCall)
	return call, ok
}

// WithThreadID records the conversation thread for audit entries.
func WithThreadID(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, threadKey{}, threadID)
}

func ThreadIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(threadKey{}).(string)
	return id
}
