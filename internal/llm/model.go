package llm

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"

	"github.com/teemow/calagent/internal/conversation"
)

// ErrMissingAPIKey is returned when no model API key is configured.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// ToolSpec advertises a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Model produces the next assistant message for a conversation.
type Model interface {
	Generate(ctx context.Context, history []conversation.Message, tools []ToolSpec) (conversation.Message, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, history []conversation.Message, tools []ToolSpec) (conversation.Message, error)

func (f ModelFunc) Generate(ctx context.Context, history []conversation.Message, tools []ToolSpec) (conversation.Message, error) {
	return f(ctx, history, tools)
}
