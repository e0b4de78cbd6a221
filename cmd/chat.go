package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calagent/internal/agent"
	"github.com/teemow/calagent/internal/chat"
	"github.com/teemow/calagent/internal/llm"
	"github.com/teemow/calagent/internal/logging"
)

func newChatCmd() *cobra.Command {
	var (
		account     string
		threadID    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the calendar assistant",
		Long: `Start an interactive conversation with the assistant. It can list, create,
update and delete events in your primary Google Calendar, look up email
addresses of your contacts and search the web.

Type "exit" or press Ctrl+D to quit.

Configuration is read from the environment and from .env:
  ANTHROPIC_API_KEY, TAVILY_API_KEY, GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
  are required. Run "calagent auth" once to authorize Google access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), account, threadID, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account whose cached token is used")
	cmd.Flags().StringVar(&threadID, "thread", chat.DefaultThreadID, "Conversation thread id")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")

	return cmd
}

func runChat(ctx context.Context, account, threadID, metricsAddr string) error {
	a, err := newApp(ctx, appOptions{account: account, metricsAddr: metricsAddr})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			a.logger.Warn("shutdown failed", logging.Err(err))
		}
	}()

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	model, err := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:     a.cfg.AnthropicAPIKey,
		Model:      a.cfg.AnthropicModel,
		MaxTokens:  int64(a.cfg.AnthropicMaxTokens),
		HTTPClient: &http.Client{Transport: a.sc.Transport()},
		Metrics:    a.sc.Metrics(),
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	graph, err := agent.New(agent.Config{
		Model:    model,
		Registry: a.registry,
		MaxSteps: a.cfg.MaxSteps,
		Logger:   a.logger,
		Metrics:  a.sc.Metrics(),
	})
	if err != nil {
		return err
	}

	in, err := chat.NewReader(os.Stdin, os.Stdout, a.cfg.HistoryFile)
	if err != nil {
		return err
	}
	defer in.Close()

	session, err := chat.NewSession(chat.Config{
		Graph:    graph,
		Input:    in,
		Output:   os.Stdout,
		Name:     a.cfg.AgentName,
		ThreadID: threadID,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}
