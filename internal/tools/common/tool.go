package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Handler runs a tool with the raw JSON arguments chosen by the model and
// returns the text handed back to it.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool describes one callable operation.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	// FailureMessage replaces the result when Handler fails. The model
	// sees this text; the error itself is only logged.
	FailureMessage string

	// Service and Operation label backend metrics, e.g. "calendar"/"create".
	Service   string
	Operation string

	Handler Handler
}

// GenerateSchema derives the argument schema from T's json tags. Fields
// without omitempty are required; unknown properties are rejected.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	return reflector.Reflect(v)
}

// DecodeArgs unmarshals tool arguments into T. Empty or null input yields
// the zero value.
func DecodeArgs[T any](args json.RawMessage) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, fmt.Errorf("invalid arguments: %w", err)
	}
	return v, nil
}

// JSONResult renders v as indented JSON for the model.
func JSONResult(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}
