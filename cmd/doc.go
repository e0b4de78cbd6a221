// Package cmd implements the command-line interface for calagent.
//
// This package provides the following commands:
//   - chat: Talk to the calendar assistant in the terminal
//   - auth: Authorize calagent to access your Google Calendar and contacts
//   - serve: Expose the assistant's tools as an MCP server over stdio
//   - generate-docs: Generate markdown documentation for all tools
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
