package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/tools/common"
)

func newServeCmd() *cobra.Command {
	var (
		account     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start a Model Context Protocol (MCP) server on stdin/stdout that exposes
the assistant's tools (calendar events, contact lookup and web search) to
other AI clients.

Logs are written to stderr so stdout carries only protocol messages.
Google access uses the same token as the chat command; run "calagent auth"
first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), account, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account whose cached token is used")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")

	return cmd
}

func runServe(ctx context.Context, account, metricsAddr string) error {
	a, err := newApp(ctx, appOptions{
		account:     account,
		metricsAddr: metricsAddr,
		logOutput:   os.Stderr,
	})
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

	mcpSrv, err := newMCPServer(a.registry)
	if err != nil {
		return err
	}

	a.logger.Info("starting MCP server", "transport", "stdio", "tools", a.registry.Len())
	return runStdioServer(ctx, mcpSrv)
}

// newMCPServer exposes every tool of reg.
func newMCPServer(reg *common.Registry) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("calagent", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := reg.RegisterMCP(mcpSrv); err != nil {
		return nil, fmt.Errorf("failed to register MCP tools: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
