// Package logging holds the structured logging helpers shared by calagent.
//
// Everything logs through log/slog. The helpers here keep attribute names
// consistent between the chat loop, the agent graph and the tool handlers,
// and make sure tokens and email addresses never reach the log in clear text.
//
// # Usage Patterns
//
//	logger := logging.WithThread(slog.Default(), "1")
//	logger.Debug("tool finished",
//	    logging.Tool("get_events"),
//	    logging.Status(logging.StatusSuccess))
//
// The CLI builds its root logger with New, which writes to stderr so log
// lines never interleave with the conversation printed on stdout.
package logging
