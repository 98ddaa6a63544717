package tool

import (
	"context"
	"fmt"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
)

var _ output.ToolPort = (*BrowserTool)(nil)

// BrowserTool exposes one tool of a browser backend to the executor.
type BrowserTool struct {
	def     entity.ToolDefinition
	browser output.BrowserToolsPort
	logger  output.LoggerPort
}

func NewBrowserTool(def entity.ToolDefinition, browser output.BrowserToolsPort, logger output.LoggerPort) *BrowserTool {
	return &BrowserTool{def: def, browser: browser, logger: logger}
}

func (t *BrowserTool) Name() entity.ToolName      { return t.def.Name }
func (t *BrowserTool) Description() string        { return t.def.Description }
func (t *BrowserTool) Parameters() map[string]any { return t.def.Parameters }

func (t *BrowserTool) Execute(ctx context.Context, args map[string]any) (*entity.ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	result, err := t.browser.CallTool(ctx, t.def.Name, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.def.Name, err)
	}
	t.logger.Debug("Browser tool finished", "name", t.def.Name.String(), "images", len(result.Images))
	return result, nil
}

// RegisterBrowserTools lists the backend's tools and registers the
// allow-listed ones. It returns how many were registered.
func RegisterBrowserTools(ctx context.Context, registry output.ToolRegistry, browser output.BrowserToolsPort, logger output.LoggerPort) (int, error) {
	defs, err := browser.ListTools(ctx)
	if err != nil {
		return 0, fmt.Errorf("list browser tools: %w", err)
	}

	n := 0
	for _, def := range defs {
		if !entity.IsBrowserTool(def.Name) {
			logger.Debug("Skipping browser tool", "name", def.Name.String())
			continue
		}
		registry.Register(NewBrowserTool(def, browser, logger))
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("browser backend exposes none of the expected tools")
	}
	return n, nil
}
