package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/conversation"
)

func echoTool(name string) Tool {
	return Tool{
		Name:           name,
		Description:    "echoes its query",
		InputSchema:    GenerateSchema[sampleArgs](),
		FailureMessage: "Sorry, echo failed.",
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			in, err := DecodeArgs[sampleArgs](args)
			if err != nil {
				return "", err
			}
			if in.Query == "boom" {
				return "", errors.New("backend exploded")
			}
			return "echo: " + in.Query, nil
		},
	}
}

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(echoTool("b")))
	require.NoError(t, r.Add(echoTool("a")))

	assert.Error(t, r.Add(echoTool("a")), "duplicate name")
	assert.Error(t, r.Add(Tool{Handler: echoTool("x").Handler}), "missing name")
	assert.Error(t, r.Add(Tool{Name: "nohandler"}), "missing handler")

	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_AddDefaults(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(Tool{
		Name:    "bare",
		Handler: func(context.Context, json.RawMessage) (string, error) { return "", errors.New("x") },
	}))
	tool, ok := r.Get("bare")
	require.True(t, ok)
	assert.NotNil(t, tool.InputSchema)

	res := r.Dispatch(context.Background(), conversation.ToolCall{ID: "1", Name: "bare"})
	assert.Equal(t, "Sorry, bare failed. Please try again.", res.Content)
}

func TestRegistry_Dispatch(t *testing.T) {
	var logs bytes.Buffer
	r := NewRegistry(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, r.Add(echoTool("echo")))
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res := r.Dispatch(ctx, conversation.ToolCall{ID: "call_1", Name: "echo", Arguments: json.RawMessage(`{"query":"hi"}`)})
		assert.Equal(t, conversation.ToolResult{ToolCallID: "call_1", Name: "echo", Content: "echo: hi"}, res)
	})

	t.Run("handler error becomes failure message", func(t *testing.T) {
		res := r.Dispatch(ctx, conversation.ToolCall{ID: "call_2", Name: "echo", Arguments: json.RawMessage(`{"query":"boom"}`)})
		assert.Equal(t, "call_2", res.ToolCallID)
		assert.Equal(t, "Sorry, echo failed.", res.Content)
		assert.Contains(t, logs.String(), "backend exploded")
	})

	t.Run("bad arguments become failure message", func(t *testing.T) {
		res := r.Dispatch(ctx, conversation.ToolCall{ID: "call_3", Name: "echo", Arguments: json.RawMessage(`[1,2]`)})
		assert.Equal(t, "Sorry, echo failed.", res.Content)
	})

	t.Run("unknown tool", func(t *testing.T) {
		res := r.Dispatch(ctx, conversation.ToolCall{ID: "call_4", Name: "send_fax"})
		assert.Equal(t, "call_4", res.ToolCallID)
		assert.Equal(t, "Tool send_fax is not available.", res.Content)
	})
}

func TestRegistry_FailureLoggedAtDebug(t *testing.T) {
	var logs bytes.Buffer
	r := NewRegistry(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo})))
	require.NoError(t, r.Add(echoTool("echo")))

	res := r.Dispatch(context.Background(), conversation.ToolCall{ID: "c", Name: "echo", Arguments: json.RawMessage(`{"query":"boom"}`)})
	assert.Equal(t, "Sorry, echo failed.", res.Content)
	assert.Empty(t, logs.String(), "audit logging reports failures at warn")
}

func TestRegistry_DispatchAllKeepsOrder(t *testing.T) {
	r := NewRegistry(nil)
	var seen []string
	require.NoError(t, r.Add(Tool{
		Name: "record",
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			call, ok := CallFromContext(ctx)
			require.True(t, ok)
			seen = append(seen, call.ID)
			return string(args), nil
		},
	}))

	calls := []conversation.ToolCall{
		{ID: "a", Name: "record", Arguments: json.RawMessage(`1`)},
		{ID: "b", Name: "missing"},
		{ID: "c", Name: "record", Arguments: json.RawMessage(`3`)},
	}
	results := r.DispatchAll(context.Background(), calls)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, calls[i].ID, res.ToolCallID)
	}
	assert.Equal(t, "1", results[0].Content)
	assert.Equal(t, "Tool missing is not available.", results[1].Content)
	assert.Equal(t, "3", results[2].Content)
	assert.Equal(t, []string{"a", "c"}, seen)
}

func TestThreadIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ThreadIDFromContext(ctx))
	assert.Equal(t, "1", ThreadIDFromContext(WithThreadID(ctx, "1")))
	_, ok := CallFromContext(ctx)
	assert.False(t, ok)
}
