package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation("create_event").
		WithCall("toolu_01", `{"summary":"Standup"}`).
		WithThread("1").
		WithService(ServiceCalendar, OperationCreate)
	if ti.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	ti.CompleteSuccess()
	if !ti.Success || ti.Status() != StatusSuccess {
		t.Errorf("Success=%v Status=%q", ti.Success, ti.Status())
	}
	if ti.Duration < 0 {
		t.Errorf("Duration = %v", ti.Duration)
	}

	failed := NewToolInvocation("get_email").CompleteWithError(errors.New("not found"))
	if failed.Success || failed.Status() != StatusError || failed.Error != "not found" {
		t.Errorf("failed invocation = %+v", failed)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("web_search").
		WithCall("toolu_02", `{"query":"weather"}`).
		WithService(ServiceTavily, OperationSearch).
		CompleteSuccess()

	keys := func(attrs []slog.Attr) map[string]string {
		m := make(map[string]string)
		for _, a := range attrs {
			m[a.Key] = a.Value.String()
		}
		return m
	}

	without := keys(ti.LogAttrs(false))
	if _, ok := without["arguments"]; ok {
		t.Error("arguments must be omitted unless requested")
	}
	if _, ok := without["thread"]; ok {
		t.Error("empty thread should be omitted")
	}
	if without["service"] != ServiceTavily || without["tool_call_id"] != "toolu_02" {
		t.Errorf("attrs = %v", without)
	}

	with := keys(ti.LogAttrs(true))
	if with["arguments"] != `{"query":"weather"}` {
		t.Errorf("arguments = %q", with["arguments"])
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name      string
		config    AuditLoggingConfig
		ti        *ToolInvocation
		wantMsg   string
		wantLevel string
		wantArgs  bool
	}{
		{
			name:      "success at info",
			config:    AuditLoggingConfig{Enabled: true},
			ti:        NewToolInvocation("get_events").WithCall("c1", `{}`).CompleteSuccess(),
			wantMsg:   "tool_executed",
			wantLevel: "INFO",
		},
		{
			name:      "failure at warn",
			config:    AuditLoggingConfig{Enabled: true},
			ti:        NewToolInvocation("get_events").CompleteWithError(errors.New("boom")),
			wantMsg:   "tool_failed",
			wantLevel: "WARN",
		},
		{
			name:      "arguments included",
			config:    AuditLoggingConfig{Enabled: true, IncludeArguments: true},
			ti:        NewToolInvocation("get_email").WithCall("c2", `{"name":"Jane"}`).CompleteSuccess(),
			wantMsg:   "tool_executed",
			wantLevel: "INFO",
			wantArgs:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), tt.config)
			al.LogToolInvocation(context.Background(), tt.ti)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON log: %v (%q)", err, buf.String())
			}
			if entry["msg"] != tt.wantMsg || entry["level"] != tt.wantLevel {
				t.Errorf("msg=%v level=%v", entry["msg"], entry["level"])
			}
			_, hasArgs := entry["arguments"]
			if hasArgs != tt.wantArgs {
				t.Errorf("arguments present = %v, want %v", hasArgs, tt.wantArgs)
			}
		})
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(context.Background(), NewToolInvocation("x").CompleteSuccess())
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(context.Background(), NewToolInvocation("x"))

	NewAuditLoggerWithConfig(nil, AuditLoggingConfig{Enabled: true}).LogToolInvocation(context.Background(), nil)
}

func TestAuditLogger_OmitsArgumentsByDefault(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})
	al.LogToolInvocation(context.Background(), NewToolInvocation("x").WithCall("c", "secret").CompleteSuccess())
	if strings.Contains(buf.String(), "secret") {
		t.Error("default audit logger must not include arguments")
	}
	if !strings.Contains(buf.String(), "tool_executed") {
		t.Errorf("missing record: %q", buf.String())
	}
}
