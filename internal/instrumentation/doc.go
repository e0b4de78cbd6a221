// Package instrumentation wires OpenTelemetry metrics and tracing into the
// assistant and keeps an audit trail of tool calls.
//
// Instrumentation is off unless INSTRUMENTATION_ENABLED=true. When off,
// NewProvider returns a provider whose Metrics record nothing and whose
// tracer is a noop, so callers never need to nil-check.
//
// # Metrics
//
//   - calagent_tool_invocations_total, calagent_tool_duration_seconds
//   - calagent_api_operations_total, calagent_api_operation_duration_seconds
//     (calendar, people, contacts_file, tavily)
//   - calagent_llm_requests_total, calagent_llm_request_duration_seconds,
//     calagent_llm_tokens_total
//   - calagent_turns_total, calagent_turn_steps
//   - calagent_oauth_auth_total
//
// With METRICS_EXPORTER=prometheus (the default) the metrics are served by
// Provider.MetricsHandler, which the serve and chat commands mount on
// --metrics-addr.
//
// # Tracing
//
// Spans: agent.turn, llm.generate, tool.<name> and <service>.<operation>.
// Outgoing HTTP to Google, Anthropic and Tavily goes through
// Provider.HTTPTransport so each request also gets an otelhttp client span.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default false)
//   - METRICS_EXPORTER: prometheus, otlp, stdout
//   - TRACING_EXPORTER: otlp, stdout, none
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default 1.0)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
package instrumentation
