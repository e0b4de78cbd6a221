package conversation

import (
	"encoding/json"
	"time"
)

// Role tags who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the model to run a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult answers exactly one ToolCall, matched by ToolCallID.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

// Message is one entry in a conversation.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a model response, optionally carrying tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage wraps a tool result so it can be appended to the history.
func ToolMessage(res ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Content:    res.Content,
		ToolCallID: res.ToolCallID,
		Name:       res.Name,
	}
}

// HasToolCalls reports whether m is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	if len(m.ToolCalls) == 0 {
		m.ToolCalls = nil
		return m
	}
	calls := make([]ToolCall, len(m.ToolCalls))
	for i, c := range m.ToolCalls {
		if c.Arguments != nil {
			c.Arguments = append(json.RawMessage(nil), c.Arguments...)
		}
		calls[i] = c
	}
	m.ToolCalls = calls
	return m
}

// Last returns the final message of msgs, or false when msgs is empty.
func Last(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Unanswered returns the tool calls of the most recent assistant message that
// have no matching tool message after it.
func Unanswered(msgs []Message) []ToolCall {
	idx := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 || len(msgs[idx].ToolCalls) == 0 {
		return nil
	}
	answered := make(map[string]bool)
	for _, m := range msgs[idx+1:] {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}
	var pending []ToolCall
	for _, c := range msgs[idx].ToolCalls {
		if !answered[c.ID] {
			pending = append(pending, c)
		}
	}
	return pending
}

func cloneMessages(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
