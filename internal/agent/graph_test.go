package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/llm"
	"github.com/teemow/calagent/internal/tools/common"
)

// scriptedModel replies with the next message of script and records the
// history it was given.
type scriptedModel struct {
	script []conversation.Message
	seen   [][]conversation.Message
	tools  []llm.ToolSpec
	err    error
}

func (m *scriptedModel) Generate(_ context.Context, history []conversation.Message, tools []llm.ToolSpec) (conversation.Message, error) {
	m.seen = append(m.seen, history)
	m.tools = tools
	if m.err != nil {
		return conversation.Message{}, m.err
	}
	if len(m.seen) > len(m.script) {
		return conversation.AssistantMessage("out of script"), nil
	}
	return m.script[len(m.seen)-1], nil
}

func call(id, name, args string) conversation.ToolCall {
	return conversation.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func testRegistry(t *testing.T) (*common.Registry, *[]string) {
	t.Helper()
	var ran []string
	reg := common.NewRegistry(nil)
	require.NoError(t, reg.Add(common.Tool{
		Name:        "get_events",
		Description: "List events",
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			ran = append(ran, "get_events")
			return "No upcoming events found.", nil
		},
	}))
	require.NoError(t, reg.Add(common.Tool{
		Name:           "web_search",
		FailureMessage: "Sorry, the web search failed.",
		Handler: func(context.Context, json.RawMessage) (string, error) {
			ran = append(ran, "web_search")
			return "", errors.New("tavily down")
		},
	}))
	return reg, &ran
}

func newGraph(t *testing.T, model llm.Model, reg *common.Registry, maxSteps int) (*Graph, *conversation.MemoryCheckpointer) {
	t.Helper()
	cp := conversation.NewMemoryCheckpointer()
	g, err := New(Config{Model: model, Registry: reg, Checkpointer: cp, MaxSteps: maxSteps})
	require.NoError(t, err)
	return g, cp
}

func TestShouldContinue(t *testing.T) {
	tests := []struct {
		name string
		msgs []conversation.Message
		want string
	}{
		{name: "empty", msgs: nil, want: End},
		{name: "plain answer", msgs: []conversation.Message{conversation.AssistantMessage("hi")}, want: End},
		{name: "tool calls", msgs: []conversation.Message{conversation.AssistantMessage("", call("1", "get_events", `{}`))}, want: NodeTools},
		{name: "user last", msgs: []conversation.Message{conversation.UserMessage("hi")}, want: End},
		{
			name: "tool result last",
			msgs: []conversation.Message{
				conversation.AssistantMessage("", call("1", "get_events", `{}`)),
				conversation.ToolMessage(conversation.ToolResult{ToolCallID: "1", Content: "x"}),
			},
			want: End,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldContinue(tt.msgs))
		})
	}
}

func TestInvoke_NoTools(t *testing.T) {
	model := &scriptedModel{script: []conversation.Message{conversation.AssistantMessage("Hello!")}}
	reg, ran := testRegistry(t)
	g, _ := newGraph(t, model, reg, 0)

	msgs, err := g.Invoke(context.Background(), "1",
		conversation.SystemMessage("sys"), conversation.UserMessage("hi"))
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello!", msgs[2].Content)
	assert.Len(t, model.seen, 1)
	assert.Empty(t, *ran)

	require.Len(t, model.tools, 2)
	assert.Equal(t, "get_events", model.tools[0].Name)
	assert.NotNil(t, model.tools[0].InputSchema)
}

func TestInvoke_DispatchesToolsInOrder(t *testing.T) {
	model := &scriptedModel{script: []conversation.Message{
		conversation.AssistantMessage("checking", call("a", "web_search", `{"query":"x"}`), call("b", "get_events", `{}`), call("c", "send_fax", `{}`)),
		conversation.AssistantMessage("You have nothing planned."),
	}}
	reg, ran := testRegistry(t)
	g, _ := newGraph(t, model, reg, 0)

	msgs, err := g.Invoke(context.Background(), "1", conversation.UserMessage("what's on?"))
	require.NoError(t, err)

	assert.Equal(t, []string{"web_search", "get_events"}, *ran)
	require.Len(t, model.seen, 2)

	second := model.seen[1]
	require.Len(t, second, 5, "user, assistant and three tool results")
	for i, id := range []string{"a", "b", "c"} {
		tm := second[2+i]
		assert.Equal(t, conversation.RoleTool, tm.Role)
		assert.Equal(t, id, tm.ToolCallID)
	}
	assert.Equal(t, "Sorry, the web search failed.", second[2].Content)
	assert.Equal(t, "No upcoming events found.", second[3].Content)
	assert.Equal(t, "Tool send_fax is not available.", second[4].Content)

	last, _ := conversation.Last(msgs)
	assert.Equal(t, "You have nothing planned.", last.Content)
	assert.Empty(t, conversation.Unanswered(msgs))
}

func TestInvoke_PersistsThread(t *testing.T) {
	model := &scriptedModel{script: []conversation.Message{
		conversation.AssistantMessage("one"),
		conversation.AssistantMessage("two"),
	}}
	reg, _ := testRegistry(t)
	g, store := newGraph(t, model, reg, 0)
	ctx := context.Background()

	_, err := g.Invoke(ctx, "1", conversation.UserMessage("first"))
	require.NoError(t, err)
	msgs, err := g.Invoke(ctx, "1", conversation.UserMessage("second"))
	require.NoError(t, err)

	require.Len(t, msgs, 4)
	assert.Len(t, model.seen[1], 3, "second call sees the earlier turn")

	cp, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, cp.Messages, 4)
	assert.Equal(t, 2, cp.Step)
	for _, m := range cp.Messages {
		assert.NotEmpty(t, m.ID)
	}

	other, err := g.Invoke(ctx, "2", conversation.UserMessage("elsewhere"))
	require.NoError(t, err)
	assert.Len(t, other, 2)
}

func TestInvoke_RecursionLimit(t *testing.T) {
	var n int
	model := llm.ModelFunc(func(context.Context, []conversation.Message, []llm.ToolSpec) (conversation.Message, error) {
		n++
		return conversation.AssistantMessage("", call(fmt.Sprintf("c%d", n), "get_events", `{}`)), nil
	})
	reg, _ := testRegistry(t)
	g, _ := newGraph(t, model, reg, 3)
	ctx := context.Background()

	msgs, err := g.Invoke(ctx, "1", conversation.UserMessage("loop"))
	require.ErrorIs(t, err, ErrRecursionLimit)
	assert.Equal(t, 2, n, "agent, tools, agent")
	assert.Equal(t, NodeTools, ShouldContinue(msgs))

	msgs, err = g.Invoke(ctx, "1", conversation.UserMessage("again"))
	require.ErrorIs(t, err, ErrRecursionLimit)

	// The open call from the first turn was answered before the new input.
	var closed bool
	for _, m := range msgs {
		if m.Role == conversation.RoleTool && m.ToolCallID == "c2" {
			closed = true
			assert.Equal(t, interruptedResult, m.Content)
		}
	}
	assert.True(t, closed)
}

func TestInvoke_ModelError(t *testing.T) {
	boom := errors.New("model request failed: 529 overloaded")
	model := &scriptedModel{err: boom}
	reg, _ := testRegistry(t)
	g, store := newGraph(t, model, reg, 0)

	_, err := g.Invoke(context.Background(), "1", conversation.UserMessage("hi"))
	assert.ErrorIs(t, err, boom)

	cp, err := store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, cp.Messages, 1, "input is kept")
}

func TestInvoke_InvalidThread(t *testing.T) {
	model := &scriptedModel{script: []conversation.Message{conversation.AssistantMessage("x")}}
	g, _ := newGraph(t, model, nil, 0)
	_, err := g.Invoke(context.Background(), "  ", conversation.UserMessage("hi"))
	assert.ErrorIs(t, err, conversation.ErrInvalidThreadID)
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
