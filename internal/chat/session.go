package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/agent"
	"github.com/teemow/calagent/internal/conversation"
	"github.com/teemow/calagent/internal/logging"
)

// ExitCommand ends the session.
const ExitCommand = "exit"

// DefaultThreadID is the thread every CLI turn is stored under.
const DefaultThreadID = "1"

// Invoker runs one turn of the agent graph.
type Invoker interface {
	Invoke(ctx context.Context, threadID string, input ...conversation.Message) ([]conversation.Message, error)
}

// Config wires a Session.
type Config struct {
	Graph Invoker
	Input LineReader
	// Output receives replies and errors.
	Output io.Writer
	// Name is the assistant name used in the system prompt.
	Name     string
	ThreadID string
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Session is one interactive conversation.
type Session struct {
	graph    Invoker
	in       LineReader
	out      io.Writer
	name     string
	threadID string
	now      func() time.Time
	logger   *slog.Logger
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Graph == nil {
		return nil, errors.New("chat: graph is required")
	}
	if cfg.Input == nil {
		return nil, errors.New("chat: input is required")
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.ThreadID == "" {
		cfg.ThreadID = DefaultThreadID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		graph:    cfg.Graph,
		in:       cfg.Input,
		out:      cfg.Output,
		name:     cfg.Name,
		threadID: cfg.ThreadID,
		now:      cfg.Now,
		logger:   logging.WithThread(cfg.Logger, cfg.ThreadID),
	}, nil
}

// Run reads lines until ExitCommand, end of input or ctx cancellation. A
// graph error ends the session and is returned.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.in.Close() })
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		text := strings.TrimSpace(line)
		if text == ExitCommand {
			return nil
		}
		if text == "" {
			continue
		}

		reply, err := s.Turn(ctx, text)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			errColor.Fprintf(s.out, "Error: %v\n", err)
			return err
		}
		fmt.Fprintf(s.out, "%s%s\n", aiColor.Sprint(AIPrefix), reply)
	}
}

// Turn sends one user message with a fresh system prompt and returns the
// content of the last message of the thread.
func (s *Session) Turn(ctx context.Context, text string) (string, error) {
	start := time.Now()
	msgs, err := s.graph.Invoke(ctx, s.threadID,
		conversation.SystemMessage(agent.SystemPrompt(s.name, s.now())),
		conversation.UserMessage(text))
	if err != nil {
		return "", err
	}
	last, _ := conversation.Last(msgs)
	s.logger.Debug("turn finished",
		slog.Int("messages", len(msgs)),
		slog.Duration(logging.KeyDuration, time.Since(start)))
	return last.Content, nil
}
