package output

import (
	"context"

	"gui-agent/internal/domain/entity"
)

// BrowserToolsPort is a browser-automation backend that speaks in tool
// names and JSON arguments, such as a Playwright MCP session.
type BrowserToolsPort interface {
	ListTools(ctx context.Context) ([]entity.ToolDefinition, error)
	CallTool(ctx context.Context, name entity.ToolName, arguments map[string]any) (*entity.ToolResult, error)
	Close() error
}
