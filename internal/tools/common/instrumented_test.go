package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/server"
)

func newServerContext(t *testing.T, audit *instrumentation.AuditLogger) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Config{AuditLogger: audit})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumented_Success(t *testing.T) {
	var logs bytes.Buffer
	audit := instrumentation.NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&logs, nil)), instrumentation.AuditLoggingConfig{Enabled: true})
	sc := newServerContext(t, audit)

	tool := echoTool("echo")
	tool.Service = instrumentation.ServiceTavily
	tool.Operation = instrumentation.OperationSearch

	r := NewRegistry(nil)
	require.NoError(t, r.Add(Instrumented(tool, sc)))

	ctx := WithThreadID(context.Background(), "1")
	res := r.Dispatch(ctx, conversation.ToolCall{ID: "call_9", Name: "echo", Arguments: json.RawMessage(`{"query":"hi"}`)})
	assert.Equal(t, "echo: hi", res.Content)

	out := logs.String()
	assert.Contains(t, out, `"msg":"tool_executed"`)
	assert.Contains(t, out, `"call_9"`)
	assert.Contains(t, out, `"thread":"1"`)
	assert.NotContains(t, out, `"query":"hi"`, "arguments are omitted by default")
}

func TestInstrumented_Error(t *testing.T) {
	var logs bytes.Buffer
	audit := instrumentation.NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&logs, nil)), instrumentation.AuditLoggingConfig{Enabled: true})
	sc := newServerContext(t, audit)

	r := NewRegistry(nil)
	require.NoError(t, r.Add(Instrumented(echoTool("echo"), sc)))

	res := r.Dispatch(context.Background(), conversation.ToolCall{ID: "c", Name: "echo", Arguments: json.RawMessage(`{"query":"boom"}`)})
	assert.Equal(t, "Sorry, echo failed.", res.Content)
	assert.Contains(t, logs.String(), `"msg":"tool_failed"`)
	assert.Contains(t, logs.String(), "backend exploded")
}

func TestInstrumented_NoInstrumentation(t *testing.T) {
	sc := newServerContext(t, nil)
	called := false
	tool := Instrumented(Tool{
		Name: "plain",
		Handler: func(context.Context, json.RawMessage) (string, error) {
			called = true
			return "ok", nil
		},
	}, sc)

	out, err := tool.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.True(t, called)
}
