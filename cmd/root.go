package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calagent application
var rootCmd = &cobra.Command{
	Use:   "calagent",
	Short: "A conversational assistant for your Google Calendar",
	Long: `calagent is a chat assistant that reads and manages your Google Calendar,
looks up your contacts' email addresses and searches the web.

It can run as:
  - An interactive chat in the terminal (default)
  - An MCP (Model Context Protocol) server exposing the same tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Flags shared by all commands.
var (
	debugMode bool
	envFile   string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calagent version %s\n" .Version}}`)

	// If no subcommand is provided, run the chat command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load; existing variables win")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
