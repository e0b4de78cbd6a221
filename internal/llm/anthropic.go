package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096
)

// AnthropicConfig configures the Anthropic adapter.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL    string
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Anthropic calls the Anthropic Messages API with temperature 0.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		metrics:   cfg.Metrics,
		logger:    logger,
	}, nil
}

// Generate sends history and tools and converts the reply.
func (a *Anthropic) Generate(ctx context.Context, history []conversation.Message, tools []ToolSpec) (conversation.Message, error) {
	system, messages := toAnthropicMessages(history)
	if len(messages) == 0 {
		return conversation.Message{}, fmt.Errorf("conversation has no user message")
	}

	params := anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(0),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	ctx, span := instrumentation.StartLLMSpan(ctx, string(a.model))
	defer span.End()

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		a.metrics.RecordLLMRequest(ctx, string(a.model), instrumentation.StatusError, duration, 0, 0)
		instrumentation.SetSpanError(span, err)
		return conversation.Message{}, fmt.Errorf("model request failed: %w", err)
	}
	a.metrics.RecordLLMRequest(ctx, string(a.model), instrumentation.StatusSuccess, duration,
		msg.Usage.InputTokens, msg.Usage.OutputTokens)
	instrumentation.SetSpanSuccess(span)

	reply := fromAnthropicMessage(msg)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrToolCalls, len(reply.ToolCalls)))
	a.logger.Debug("model replied",
		logging.Model(string(a.model)),
		logging.Operation("llm.generate"),
		slog.String("stop_reason", string(msg.StopReason)),
		slog.Int("tool_calls", len(reply.ToolCalls)),
		slog.Int64("input_tokens", msg.Usage.InputTokens),
		slog.Int64("output_tokens", msg.Usage.OutputTokens),
		slog.Duration(logging.KeyDuration, duration))
	return reply, nil
}

func toAnthropicTools(tools []ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if t.InputSchema != nil {
			schema.Properties = t.InputSchema.Properties
			schema.Required = t.InputSchema.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// toAnthropicMessages returns the latest system prompt and the turns of
// history. Turns are merged so roles alternate.
func toAnthropicMessages(history []conversation.Message) (string, []anthropic.MessageParam) {
	var (
		system string
		out    []anthropic.MessageParam
		role   anthropic.MessageParamRole
		blocks []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(blocks) > 0 {
			out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
		}
		blocks = nil
	}
	add := func(r anthropic.MessageParamRole, b ...anthropic.ContentBlockParamUnion) {
		if len(b) == 0 {
			return
		}
		if r != role {
			flush()
			role = r
		}
		blocks = append(blocks, b...)
	}

	for _, m := range history {
		switch m.Role {
		case conversation.RoleSystem:
			system = m.Content
		case conversation.RoleUser:
			if strings.TrimSpace(m.Content) != "" {
				add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Content))
			}
		case conversation.RoleTool:
			add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case conversation.RoleAssistant:
			var b []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(m.Content) != "" {
				b = append(b, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				input := call.Arguments
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				b = append(b, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				}})
			}
			add(anthropic.MessageParamRoleAssistant, b...)
		}
	}
	flush()

	// The API requires the conversation to open with a user turn.
	for len(out) > 0 && out[0].Role != anthropic.MessageParamRoleUser {
		out = out[1:]
	}
	return system, out
}

func fromAnthropicMessage(msg *anthropic.Message) conversation.Message {
	var (
		texts []string
		calls []conversation.ToolCall
	)
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				texts = append(texts, v.Text)
			}
		case anthropic.ToolUseBlock:
			calls = append(calls, conversation.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	return conversation.AssistantMessage(strings.Join(texts, "\n"), calls...)
}
