// Package llm adapts chat models to the conversation types of this
// module. A Model takes the full history plus the available tools and
// returns one assistant message, which may carry tool calls.
//
// Anthropic is the only implementation. It translates the history into
// the Messages API shape: the latest system message becomes the system
// prompt, tool results travel in user turns right after the assistant
// turn that requested them, and consecutive turns of the same role are
// merged.
package llm
