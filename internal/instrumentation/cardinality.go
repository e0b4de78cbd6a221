package instrumentation

import (
	"regexp"
	"strings"
)

// Operation names used for API metrics and spans.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSearch = "search"
	OperationLookup = "lookup"
)

var modelDateSuffix = regexp.MustCompile(`-(\d{8}|latest)$`)

// ModelLabel reduces a model identifier to its family so that dated
// snapshots share one metric series.
//
//	ModelLabel("claude-sonnet-4-20250514")  // "claude-sonnet-4"
//	ModelLabel("claude-3-5-haiku-latest")   // "claude-3-5-haiku"
//	ModelLabel("")                          // "unknown"
func ModelLabel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if model == "" {
		return "unknown"
	}
	return modelDateSuffix.ReplaceAllString(model, "")
}
