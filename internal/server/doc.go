// Package server holds the process-wide state shared by the chat loop and
// the MCP server.
//
// ServerContext builds Google and Tavily clients on first use and caches
// them. Google clients are authorized with the first token found by the
// configured google.TokenProvider; a missing token surfaces as an error
// pointing at `calagent auth` rather than failing at startup.
//
// MetricsServer exposes the Prometheus registry of an
// instrumentation.Provider on a dedicated address, together with /healthz,
// /readyz and /healthz/detailed.
package server
