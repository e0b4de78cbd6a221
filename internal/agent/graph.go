package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/llm"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/tools/common"
)

// Node names used for routing.
const (
	NodeAgent = "agent"
	NodeTools = "tools"
	End       = "__end__"
)

// DefaultMaxSteps bounds the node executions of one invocation.
const DefaultMaxSteps = 25

// ErrRecursionLimit is returned when a turn does not finish within the
// step limit.
var ErrRecursionLimit = errors.New("recursion limit reached")

// interruptedResult answers tool calls left open by an aborted turn.
const interruptedResult = "Tool call was interrupted before it ran."

// Config wires a Graph.
type Config struct {
	Model        llm.Model
	Registry     *common.Registry
	Checkpointer conversation.Checkpointer
	// MaxSteps defaults to DefaultMaxSteps.
	MaxSteps int
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// Graph is the compiled agent loop.
type Graph struct {
	model        llm.Model
	registry     *common.Registry
	checkpointer conversation.Checkpointer
	maxSteps     int
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
}

func New(cfg Config) (*Graph, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = common.NewRegistry(cfg.Logger)
	}
	if cfg.Checkpointer == nil {
		cfg.Checkpointer = conversation.NewMemoryCheckpointer()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Graph{
		model:        cfg.Model,
		registry:     cfg.Registry,
		checkpointer: cfg.Checkpointer,
		maxSteps:     cfg.MaxSteps,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}, nil
}

// ShouldContinue routes on the last message: NodeTools when it is an
// assistant message with tool calls, End otherwise.
func ShouldContinue(msgs []conversation.Message) string {
	last, ok := conversation.Last(msgs)
	if ok && last.HasToolCalls() {
		return NodeTools
	}
	return End
}

// Invoke appends input to the thread and runs the graph until the model
// answers without tool calls. It returns the full history of the thread.
func (g *Graph) Invoke(ctx context.Context, threadID string, input ...conversation.Message) ([]conversation.Message, error) {
	ctx, span := instrumentation.StartTurnSpan(ctx, threadID)
	defer span.End()
	ctx = common.WithThreadID(ctx, threadID)
	logger := logging.WithThread(g.logger, threadID)

	cp, err := g.checkpointer.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	cp.ThreadID = threadID

	// A previous turn may have stopped between the agent and tools nodes.
	cp.Messages = append(cp.Messages, closePending(cp.Messages)...)
	cp.Messages = append(cp.Messages, input...)
	if cp, err = g.checkpointer.Put(ctx, cp); err != nil {
		return nil, fmt.Errorf("failed to save thread: %w", err)
	}

	steps, err := g.run(ctx, logger, &cp)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrSteps, steps))

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	g.metrics.RecordTurn(ctx, status, steps)
	return cp.Messages, err
}

func (g *Graph) run(ctx context.Context, logger *slog.Logger, cp *conversation.Checkpoint) (int, error) {
	specs := g.toolSpecs()
	node := NodeAgent
	steps := 0

	for node != End {
		if steps >= g.maxSteps {
			logger.Warn("turn exceeded step limit", logging.Step(steps))
			return steps, fmt.Errorf("%w: %d steps", ErrRecursionLimit, g.maxSteps)
		}
		steps++
		cp.Step++
		start := time.Now()

		var next []conversation.Message
		switch node {
		case NodeAgent:
			reply, err := g.model.Generate(ctx, cp.Messages, specs)
			if err != nil {
				return steps, err
			}
			next = []conversation.Message{reply}
		case NodeTools:
			for _, res := range g.registry.DispatchAll(ctx, conversation.Unanswered(cp.Messages)) {
				next = append(next, conversation.ToolMessage(res))
			}
		}

		saved, err := g.checkpointer.Put(ctx, conversation.Checkpoint{
			ThreadID: cp.ThreadID,
			Messages: append(cp.Messages, next...),
			Step:     cp.Step,
		})
		if err != nil {
			return steps, fmt.Errorf("failed to save thread: %w", err)
		}
		*cp = saved

		logger.Debug("node finished",
			slog.String("node", node),
			logging.Step(steps),
			slog.Int("appended", len(next)),
			slog.Duration(logging.KeyDuration, time.Since(start)))

		if node == NodeAgent {
			node = ShouldContinue(cp.Messages)
		} else {
			node = NodeAgent
		}
	}
	return steps, nil
}

func (g *Graph) toolSpecs() []llm.ToolSpec {
	tools := g.registry.Tools()
	specs := make([]llm.ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return specs
}

func closePending(msgs []conversation.Message) []conversation.Message {
	var out []conversation.Message
	for _, call := range conversation.Unanswered(msgs) {
		out = append(out, conversation.ToolMessage(conversation.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    interruptedResult,
		}))
	}
	return out
}
