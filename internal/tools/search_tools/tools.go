package search_tools

import (
	"context"
	"encoding/json"

	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/search"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

const WebSearchFailure = "Sorry, the web search failed."

// WebSearchArgs are the arguments of web_search.
type WebSearchArgs struct {
	Query      string `json:"query" jsonschema_description:"Search query"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema_description:"Number of results, 1-20 (default 5)"`
	Topic      string `json:"topic,omitempty" jsonschema:"enum=general,enum=news" jsonschema_description:"Use news for recent events"`
}

// RegisterSearchTools adds web_search to reg.
func RegisterSearchTools(reg *common.Registry, sc *server.ServerContext) error {
	return reg.Add(common.Instrumented(common.Tool{
		Name:           "web_search",
		Description:    "Search the web for current information. Returns a JSON object with a short answer and ranked result snippets with their URLs.",
		InputSchema:    common.GenerateSchema[WebSearchArgs](),
		FailureMessage: WebSearchFailure,
		Service:        instrumentation.ServiceTavily,
		Operation:      instrumentation.OperationSearch,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			return handleWebSearch(ctx, args, sc)
		},
	}, sc))
}

func handleWebSearch(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[WebSearchArgs](raw)
	if err != nil {
		return "", err
	}
	client, err := sc.SearchClient()
	if err != nil {
		return "", err
	}
	res, err := client.Search(ctx, search.Request{
		Query:      args.Query,
		MaxResults: args.MaxResults,
		Topic:      args.Topic,
	})
	if err != nil {
		return "", err
	}
	return common.JSONResult(res)
}
