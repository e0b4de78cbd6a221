package common

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calagent/internal/conversation"
)

// RegisterMCP exposes every registered tool on s. MCP calls go through the
// same dispatch path as calls from the chat agent; a failed call is
// returned as an MCP tool error carrying the failure message.
func (r *Registry) RegisterMCP(s *mcpserver.MCPServer) error {
	var seq atomic.Int64
	for _, t := range r.Tools() {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return fmt.Errorf("failed to encode schema of %s: %w", t.Name, err)
		}
		name := t.Name
		s.AddTool(mcp.NewToolWithRawSchema(name, t.Description, schema),
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, err := json.Marshal(request.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
				}
				call := conversation.ToolCall{
					ID:        fmt.Sprintf("mcp-%d", seq.Add(1)),
					Name:      name,
					Arguments: args,
				}
				res, ok := r.dispatch(ctx, call)
				if !ok {
					return mcp.NewToolResultError(res.Content), nil
				}
				return mcp.NewToolResultText(res.Content), nil
			})
	}
	return nil
}
