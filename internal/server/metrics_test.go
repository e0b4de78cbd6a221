package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teemow/calagent/internal/instrumentation"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		config      MetricsServerConfig
		expectError bool
		errContains string
	}{
		{
			name: "valid config",
			config: MetricsServerConfig{
				Addr:                    "127.0.0.1:9090",
				InstrumentationProvider: createTestProvider(t, "prometheus"),
			},
		},
		{
			name: "default addr",
			config: MetricsServerConfig{
				InstrumentationProvider: createTestProvider(t, "prometheus"),
			},
		},
		{
			name:        "nil provider",
			config:      MetricsServerConfig{Addr: ":9090"},
			expectError: true,
			errContains: "instrumentation provider is required",
		},
		{
			name: "disabled provider",
			config: MetricsServerConfig{
				InstrumentationProvider: createDisabledProvider(t),
			},
			expectError: true,
			errContains: "instrumentation provider is not enabled",
		},
		{
			name: "non prometheus exporter",
			config: MetricsServerConfig{
				InstrumentationProvider: createTestProvider(t, "stdout"),
			},
			expectError: true,
			errContains: "not prometheus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMetricsServer(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("NewMetricsServer() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewMetricsServer() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMetricsServer() unexpected error: %v", err)
			}
			if server.Addr() == "" {
				t.Error("NewMetricsServer() left Addr empty")
			}
		})
	}
}

func TestMetricsServer_Handler(t *testing.T) {
	provider := createTestProvider(t, "prometheus")
	provider.Metrics().RecordToolInvocation(context.Background(), "get_events", instrumentation.StatusSuccess, 20*time.Millisecond)

	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `tool="get_events"`) {
		t.Errorf("metrics output missing tool label:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    "127.0.0.1:0",
		InstrumentationProvider: createTestProvider(t, "prometheus"),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}
	if err := server.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if strings.HasSuffix(server.Addr(), ":0") {
		t.Fatalf("Addr() = %q, want resolved port", server.Addr())
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + server.Addr() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() returned %v after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Start() did not return after shutdown")
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: createTestProvider(t, "prometheus"),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() without Start() error = %v", err)
	}
}

func createTestProvider(t *testing.T, metricsExporter string) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:       "test-service",
		ServiceVersion:    "1.0.0",
		Enabled:           true,
		MetricsExporter:   metricsExporter,
		TracingExporter:   "none",
		TraceSamplingRate: 1.0,
	})
	if err != nil {
		t.Fatalf("failed to create test provider: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Shutdown(ctx)
	})
	return provider
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("failed to create disabled provider: %v", err)
	}
	return provider
}
