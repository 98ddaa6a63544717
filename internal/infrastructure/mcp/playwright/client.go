package playwright

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
	"gui-agent/internal/infrastructure/browser"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var _ output.BrowserToolsPort = (*Client)(nil)

type Config struct {
	URL          string
	Timeout      time.Duration
	AllowedTools []entity.ToolName
	HTTPClient   *http.Client
}

func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		Timeout:      30 * time.Second,
		AllowedTools: entity.BrowserTools,
	}
}

// Client keeps a single MCP session to a Playwright MCP server for the life
// of the process. Reconnecting would lose the browser state.
type Client struct {
	cfg     Config
	session *mcp.ClientSession
	logger  output.LoggerPort
	allowed map[entity.ToolName]bool

	mu    sync.Mutex
	tools []entity.ToolDefinition
}

func Connect(ctx context.Context, cfg Config, logger output.LoggerPort) (*Client, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return ConnectTransport(ctx, transport, cfg, logger)
}

func ConnectTransport(ctx context.Context, transport mcp.Transport, cfg Config, logger output.LoggerPort) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "gui-agent", Version: "0.1.0"}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect Playwright MCP server %s: %w", cfg.URL, err)
	}

	allowed := make(map[entity.ToolName]bool, len(cfg.AllowedTools))
	for _, name := range cfg.AllowedTools {
		allowed[name] = true
	}

	if init := session.InitializeResult(); init != nil && init.ServerInfo != nil {
		logger.Info("Playwright MCP connected",
			"url", cfg.URL,
			"server", init.ServerInfo.Name,
			"version", init.ServerInfo.Version,
			"protocol", init.ProtocolVersion,
		)
	}

	return &Client{
		cfg:     cfg,
		session: session,
		logger:  logger,
		allowed: allowed,
	}, nil
}

// newTransport picks SSE for endpoints ending in /sse and Streamable HTTP
// otherwise, matching the two endpoints the Playwright MCP server exposes.
func newTransport(cfg Config) (mcp.Transport, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid PLAYWRIGHT_MCP_URL %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/sse") {
		return &mcp.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}, nil
	}
	return &mcp.StreamableClientTransport{
		Endpoint:             cfg.URL,
		HTTPClient:           httpClient,
		DisableStandaloneSSE: true,
	}, nil
}

// ListTools returns the allow-listed tools, fetched once per session.
func (c *Client) ListTools(ctx context.Context) ([]entity.ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tools != nil {
		return c.tools, nil
	}

	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	defs := make([]entity.ToolDefinition, 0, len(result.Tools))
	for _, tool := range result.Tools {
		name := entity.ToolName(tool.Name)
		if !c.allowed[name] {
			continue
		}
		defs = append(defs, entity.ToolDefinition{
			Name:        name,
			Description: tool.Description,
			Parameters:  normalizeInputSchema(tool.InputSchema),
		})
	}

	c.logger.Info("Loaded browser tools", "available", len(result.Tools), "allowed", len(defs))
	c.tools = defs
	return defs, nil
}

func (c *Client) CallTool(ctx context.Context, name entity.ToolName, arguments map[string]any) (*entity.ToolResult, error) {
	if !c.allowed[name] {
		return nil, fmt.Errorf("tool %s is not allowed", name)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name.String(),
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	out := c.convertResult(result)
	if result.IsError {
		return nil, fmt.Errorf("tool error: %s", out.Text)
	}
	return out, nil
}

func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

func (c *Client) convertResult(result *mcp.CallToolResult) *entity.ToolResult {
	out := &entity.ToolResult{IsError: result.IsError}
	var parts []string

	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.ImageContent:
			img, err := browser.PrepareForModel(v.Data)
			if err != nil {
				c.logger.Warn("Dropping unreadable image", "mime", v.MIMEType, "error", err)
				parts = append(parts, fmt.Sprintf("[image: %s, %d bytes]", v.MIMEType, len(v.Data)))
				continue
			}
			out.Images = append(out.Images, img)
		case *mcp.EmbeddedResource:
			if v.Resource != nil && v.Resource.Text != "" {
				parts = append(parts, v.Resource.Text)
			}
		case *mcp.ResourceLink:
			parts = append(parts, fmt.Sprintf("[resource_link: %s]", v.URI))
		}
	}

	if result.StructuredContent != nil {
		if data, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil {
			parts = append(parts, string(data))
		}
	}

	out.Text = strings.Join(parts, "\n")
	if out.Text == "" && len(out.Images) == 0 {
		out.Text = "(no content)"
	}
	return out
}

func normalizeInputSchema(schema any) map[string]any {
	fallback := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if schema == nil {
		return fallback
	}

	var out map[string]any
	switch v := schema.(type) {
	case map[string]any:
		out = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &out); err != nil {
			return fallback
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fallback
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return fallback
		}
	}

	if out == nil {
		return fallback
	}
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	if _, ok := out["properties"]; !ok && out["type"] == "object" {
		out["properties"] = map[string]any{}
	}
	return out
}
