package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls OpenTelemetry metrics, tracing and the audit log.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled turns metrics and tracing on. The CLI is a single-user tool,
	// so this defaults to false (INSTRUMENTATION_ENABLED).
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Only for local collectors.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64

	// AuditLogging configures the tool invocation audit trail.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeArguments adds the raw tool arguments to each audit record.
	// Arguments can carry attendee addresses and search queries, so this is
	// off unless AUDIT_LOGGING_INCLUDE_ARGUMENTS is set.
	IncludeArguments bool
}

// DefaultConfig builds a Config from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       getEnvOrDefault("OTEL_SERVICE_NAME", "calagent"),
		ServiceVersion:    "unknown",
		Enabled:           getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", false),
		MetricsExporter:   getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 1.0),
		AuditLogging: AuditLoggingConfig{
			Enabled:          getEnvBoolOrDefault("AUDIT_LOGGING_ENABLED", true),
			IncludeArguments: getEnvBoolOrDefault("AUDIT_LOGGING_INCLUDE_ARGUMENTS", false),
		},
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Results of a Google authorization attempt.
	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultMissing = "missing"

	// Backend services a tool can call.
	ServiceCalendar  = "calendar"
	ServicePeople    = "people"
	ServiceContacts  = "contacts_file"
	ServiceTavily    = "tavily"
	ServiceAnthropic = "anthropic"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
