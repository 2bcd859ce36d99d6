package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pkg/response"
)

func (t *toolset) balanceTool() server.ServerTool {
	tool := mcp.NewTool(NameGetBalance,
		mcp.WithDescription("Get the remaining PixelLab account balance in USD."),
		mcp.WithTitleAnnotation("Get balance"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	return server.ServerTool{Tool: tool, Handler: t.getBalance}
}

// getBalance is not retried: it is free and the host can simply ask again.
func (t *toolset) getBalance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bal, err := t.client.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("PixelLab balance: $%.2f", bal.USD)
	return response.Build(summary, nil, bal), nil
}
