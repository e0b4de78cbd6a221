package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyService    = "service"
	KeyThread     = "thread"
	KeyStep       = "step"
	KeyModel      = "model"
	KeyToolCallID = "tool_call_id"
	KeyUserHash   = "user_hash"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyTool       = "tool"
)

// Status values for consistent logging.
// Duplicated from the instrumentation package, which imports logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// New builds a logger for the CLI. level is one of debug, info, warn or
// error; format is text or json. Unknown values fall back to warn and text.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithThread returns a logger scoped to a conversation thread.
func WithThread(logger *slog.Logger, threadID string) *slog.Logger {
	return logger.With(slog.String(KeyThread, threadID))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func ToolCallID(id string) slog.Attr {
	return slog.String(KeyToolCallID, id)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

func Step(step int) slog.Attr {
	return slog.Int(KeyStep, step)
}

func Model(model string) slog.Attr {
	return slog.String(KeyModel, model)
}

// Err returns a slog attribute for an error.
// A nil error yields an empty group, which slog drops from the output, so
// Err(maybeNilErr) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable hash of an email so log lines can be
// correlated without exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a length indicator for a secret. No part of the
// secret itself is ever included.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain returns the domain part of an email address, or "" if the
// address is malformed.
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}

// Domain returns a slog attribute for the email domain.
func Domain(email string) slog.Attr {
	return slog.String("user_domain", ExtractDomain(email))
}
