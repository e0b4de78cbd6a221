package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/logging"
)

// Registry keeps tools in registration order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger uses slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Add registers t. Names must be unique.
func (r *Registry) Add(t Tool) error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if t.InputSchema == nil {
		t.InputSchema = GenerateSchema[struct{}]()
	}
	if t.FailureMessage == "" {
		t.FailureMessage = fmt.Sprintf("Sorry, %s failed. Please try again.", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s is already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Dispatch runs one tool call. It never fails: unknown tools and handler
// errors come back as text so the model can react to them.
func (r *Registry) Dispatch(ctx context.Context, call conversation.ToolCall) conversation.ToolResult {
	res, _ := r.dispatch(ctx, call)
	return res
}

// DispatchAll runs calls sequentially, in order, returning one result per
// call.
func (r *Registry) DispatchAll(ctx context.Context, calls []conversation.ToolCall) []conversation.ToolResult {
	results := make([]conversation.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.Dispatch(ctx, call))
	}
	return results
}

func (r *Registry) dispatch(ctx context.Context, call conversation.ToolCall) (conversation.ToolResult, bool) {
	res := conversation.ToolResult{ToolCallID: call.ID, Name: call.Name}
	logger := logging.WithTool(r.logger, call.Name).With(logging.ToolCallID(call.ID))

	t, ok := r.Get(call.Name)
	if !ok {
		logger.Warn("unknown tool requested")
		res.Content = fmt.Sprintf("Tool %s is not available.", call.Name)
		return res, false
	}

	out, err := t.Handler(WithCall(ctx, call), call.Arguments)
	if err != nil {
		logger.Debug("tool failed", logging.Err(err))
		res.Content = t.FailureMessage
		return res, false
	}
	logger.Debug("tool succeeded", slog.Int("result_bytes", len(out)))
	res.Content = out
	return res, true
}
