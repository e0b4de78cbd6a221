package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrModel     = "model"
	attrDirection = "direction"
)

// Metrics records the counters and histograms of the assistant. The zero
// value is a valid no-op recorder.
type Metrics struct {
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram

	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram
	llmTokensTotal     metric.Int64Counter

	turnsTotal metric.Int64Counter
	turnSteps  metric.Int64Histogram

	oauthAuthTotal metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.toolInvocationsTotal, err = meter.Int64Counter(
		"calagent_tool_invocations_total",
		metric.WithDescription("Tool invocations by tool name and status"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool invocations counter: %w", err)
	}
	if m.toolDuration, err = meter.Float64Histogram(
		"calagent_tool_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	if m.apiOperationsTotal, err = meter.Int64Counter(
		"calagent_api_operations_total",
		metric.WithDescription("Backend API operations by service, operation and status"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create api operations counter: %w", err)
	}
	if m.apiOperationDuration, err = meter.Float64Histogram(
		"calagent_api_operation_duration_seconds",
		metric.WithDescription("Backend API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create api operation duration histogram: %w", err)
	}

	if m.llmRequestsTotal, err = meter.Int64Counter(
		"calagent_llm_requests_total",
		metric.WithDescription("Model requests by model and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm requests counter: %w", err)
	}
	if m.llmRequestDuration, err = meter.Float64Histogram(
		"calagent_llm_request_duration_seconds",
		metric.WithDescription("Model request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 40.0, 60.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}
	if m.llmTokensTotal, err = meter.Int64Counter(
		"calagent_llm_tokens_total",
		metric.WithDescription("Model tokens by direction (input or output)"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm tokens counter: %w", err)
	}

	if m.turnsTotal, err = meter.Int64Counter(
		"calagent_turns_total",
		metric.WithDescription("Completed chat turns by status"),
		metric.WithUnit("{turn}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create turns counter: %w", err)
	}
	if m.turnSteps, err = meter.Int64Histogram(
		"calagent_turn_steps",
		metric.WithDescription("Graph node executions per turn"),
		metric.WithUnit("{step}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13, 25),
	); err != nil {
		return nil, fmt.Errorf("failed to create turn steps histogram: %w", err)
	}

	if m.oauthAuthTotal, err = meter.Int64Counter(
		"calagent_oauth_auth_total",
		metric.WithDescription("Google authorization attempts by result"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create oauth counter: %w", err)
	}

	return m, nil
}

// RecordToolInvocation records one tool run.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAPIOperation records one call to a backend service such as the
// calendar, the People API or Tavily.
func (m *Metrics) RecordAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.apiOperationsTotal.Add(ctx, 1, attrs)
	m.apiOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMRequest records one model call and its token usage.
func (m *Metrics) RecordLLMRequest(ctx context.Context, model, status string, duration time.Duration, inputTokens, outputTokens int64) {
	if m == nil || m.llmRequestsTotal == nil || m.llmRequestDuration == nil {
		return
	}
	label := attribute.String(attrModel, ModelLabel(model))
	attrs := metric.WithAttributes(label, attribute.String(attrStatus, status))
	m.llmRequestsTotal.Add(ctx, 1, attrs)
	m.llmRequestDuration.Record(ctx, duration.Seconds(), attrs)

	if m.llmTokensTotal == nil {
		return
	}
	if inputTokens > 0 {
		m.llmTokensTotal.Add(ctx, inputTokens, metric.WithAttributes(label, attribute.String(attrDirection, "input")))
	}
	if outputTokens > 0 {
		m.llmTokensTotal.Add(ctx, outputTokens, metric.WithAttributes(label, attribute.String(attrDirection, "output")))
	}
}

// RecordTurn records a finished chat turn and how many graph steps it took.
func (m *Metrics) RecordTurn(ctx context.Context, status string, steps int) {
	if m == nil || m.turnsTotal == nil || m.turnSteps == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnSteps.Record(ctx, int64(steps), attrs)
}

// RecordOAuthAuth records a Google authorization attempt.
// result is one of OAuthResultSuccess, OAuthResultFailure, OAuthResultMissing.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}
	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
