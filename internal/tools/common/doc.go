// Package common holds the tool registry shared by the chat agent and the
// MCP server, along with helpers used by every tool package: schema
// generation from argument structs, argument decoding, and the
// instrumentation wrapper that records metrics, spans and audit entries
// for each invocation.
package common
