package rod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
	"gui-agent/internal/infrastructure/browser"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserToolsPort = (*BrowserAdapter)(nil)

var refPattern = regexp.MustCompile(`^e\d+$`)

const (
	jpegQuality  = 90
	pollInterval = 200 * time.Millisecond
	maxWaitTime  = 5 * time.Minute
)

// BrowserAdapter drives a local Chrome through the same tool names the
// Playwright MCP server exposes. One page, one caller at a time.
type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	logger   output.LoggerPort
}

type BrowserConfig struct {
	Headless  bool
	Timeout   time.Duration
	NoSandbox bool
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		Timeout:   30 * time.Second,
		NoSandbox: true,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, logger output.LoggerPort) (*BrowserAdapter, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Info("Local browser started", "headless", cfg.Headless)

	return &BrowserAdapter{
		browser:  b,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		logger:   logger,
	}, nil
}

func (b *BrowserAdapter) ListTools(_ context.Context) ([]entity.ToolDefinition, error) {
	return toolDefinitions(), nil
}

func (b *BrowserAdapter) CallTool(ctx context.Context, name entity.ToolName, args map[string]any) (*entity.ToolResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()

	switch name {
	case entity.ToolBrowserNavigate:
		return b.navigate(page, args)
	case entity.ToolBrowserGoBack:
		if err := page.NavigateBack(); err != nil {
			return nil, fmt.Errorf("go back failed: %w", err)
		}
		return b.afterAction(page, "Navigated back")
	case entity.ToolBrowserGoForward:
		if err := page.NavigateForward(); err != nil {
			return nil, fmt.Errorf("go forward failed: %w", err)
		}
		return b.afterAction(page, "Navigated forward")
	case entity.ToolBrowserSnapshot:
		text, err := b.snapshot(page)
		if err != nil {
			return nil, err
		}
		return &entity.ToolResult{Text: text}, nil
	case entity.ToolBrowserScreenshot:
		return b.screenshot(page, args)
	case entity.ToolBrowserClick:
		return b.click(page, args)
	case entity.ToolBrowserType:
		return b.typeText(page, args)
	case entity.ToolBrowserHover:
		el, err := b.elementByRef(page, args)
		if err != nil {
			return nil, err
		}
		if err := el.Hover(); err != nil {
			return nil, fmt.Errorf("hover failed: %w", err)
		}
		return b.afterAction(page, "Hovered over "+stringArg(args, "element"))
	case entity.ToolBrowserSelectOption:
		return b.selectOption(page, args)
	case entity.ToolBrowserPressKey:
		return b.pressKey(page, args)
	case entity.ToolBrowserWaitFor:
		return b.waitFor(ctx, page, args)
	default:
		return nil, fmt.Errorf("unknown tool %s", name)
	}
}

func (b *BrowserAdapter) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

func (b *BrowserAdapter) navigate(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	url := stringArg(args, "url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load failed: %w", err)
	}
	return b.afterAction(page, "Navigated to "+url)
}

func (b *BrowserAdapter) click(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	el, err := b.elementByRef(page, args)
	if err != nil {
		return nil, err
	}

	button := proto.InputMouseButtonLeft
	switch stringArg(args, "button") {
	case "right":
		button = proto.InputMouseButtonRight
	case "middle":
		button = proto.InputMouseButtonMiddle
	}
	count := 1
	if boolArg(args, "doubleClick") {
		count = 2
	}

	if err := el.Click(button, count); err != nil {
		return nil, fmt.Errorf("click failed: %w", err)
	}
	return b.afterAction(page, "Clicked "+stringArg(args, "element"))
}

func (b *BrowserAdapter) typeText(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	el, err := b.elementByRef(page, args)
	if err != nil {
		return nil, err
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(stringArg(args, "text")); err != nil {
		return nil, fmt.Errorf("input failed: %w", err)
	}
	if boolArg(args, "submit") {
		if err := page.Keyboard.Press(input.Enter); err != nil {
			return nil, fmt.Errorf("submit failed: %w", err)
		}
	}
	return b.afterAction(page, "Typed into "+stringArg(args, "element"))
}

func (b *BrowserAdapter) selectOption(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	el, err := b.elementByRef(page, args)
	if err != nil {
		return nil, err
	}
	values := stringsArg(args, "values")
	if len(values) == 0 {
		return nil, fmt.Errorf("values is required")
	}

	// Options are matched by visible text first, then by value attribute.
	if err := el.Select(values, true, rod.SelectorTypeText); err != nil {
		selectors := make([]string, len(values))
		for i, v := range values {
			selectors[i] = "option[value=" + strconv.Quote(v) + "]"
		}
		if err2 := el.Select(selectors, true, rod.SelectorTypeCSSSector); err2 != nil {
			return nil, fmt.Errorf("select failed: %w", err)
		}
	}
	return b.afterAction(page, fmt.Sprintf("Selected %v in %s", values, stringArg(args, "element")))
}

func (b *BrowserAdapter) pressKey(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	name := stringArg(args, "key")
	key, err := parseKey(name)
	if err != nil {
		return nil, err
	}
	if err := page.Keyboard.Press(key); err != nil {
		return nil, fmt.Errorf("press %s failed: %w", name, err)
	}
	return b.afterAction(page, "Pressed "+name)
}

func (b *BrowserAdapter) waitFor(ctx context.Context, page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	if seconds, ok := numberArg(args, "time"); ok {
		d := time.Duration(seconds * float64(time.Second))
		if d > maxWaitTime {
			d = maxWaitTime
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &entity.ToolResult{Text: fmt.Sprintf("Waited for %s", d)}, nil
	}

	text, gone := stringArg(args, "text"), false
	if text == "" {
		text, gone = stringArg(args, "textGone"), true
	}
	if text == "" {
		return nil, fmt.Errorf("one of time, text or textGone is required")
	}

	deadline := time.Now().Add(b.timeout)
	for {
		res, err := page.Eval(`(t) => !!document.body && document.body.innerText.includes(t)`, text)
		if err != nil {
			return nil, fmt.Errorf("wait for text failed: %w", err)
		}
		if res.Value.Bool() != gone {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for %q", text)
		}
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if gone {
		return b.afterAction(page, fmt.Sprintf("Text %q is gone", text))
	}
	return b.afterAction(page, fmt.Sprintf("Text %q appeared", text))
}

// screenshot writes the capture to the filename argument, which the naming
// hook has already made unique, and returns a downscaled copy for the model.
func (b *BrowserAdapter) screenshot(page *rod.Page, args map[string]any) (*entity.ToolResult, error) {
	format := proto.PageCaptureScreenshotFormatPng
	quality := 0
	if stringArg(args, "type") == "jpeg" {
		format = proto.PageCaptureScreenshotFormatJpeg
		quality = jpegQuality
	}

	filename := stringArg(args, "filename")
	if filename == "" {
		filename = fmt.Sprintf("page-%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	}

	var data []byte
	var err error
	scope := "viewport"
	if stringArg(args, "ref") != "" {
		el, elErr := b.elementByRef(page, args)
		if elErr != nil {
			return nil, elErr
		}
		data, err = el.Screenshot(format, quality)
		scope = stringArg(args, "element")
	} else {
		req := &proto.PageCaptureScreenshot{Format: format}
		if quality > 0 {
			req.Quality = gson.Int(quality)
		}
		fullPage := boolArg(args, "fullPage")
		if fullPage {
			scope = "full page"
		}
		data, err = page.Screenshot(fullPage, req)
	}
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return nil, fmt.Errorf("save screenshot: %w", err)
	}
	b.logger.Debug("Screenshot saved", "filename", filename, "bytes", len(data))

	result := &entity.ToolResult{
		Text: fmt.Sprintf("Took the %s screenshot and saved it as %s", scope, filename),
	}
	img, err := browser.PrepareForModel(data)
	if err != nil {
		b.logger.Warn("Screenshot not attached", "error", err)
		return result, nil
	}
	result.Images = []entity.Image{img}
	return result, nil
}

func (b *BrowserAdapter) snapshot(page *rod.Page) (string, error) {
	if _, err := page.Eval(tagRefsJS); err != nil {
		return "", fmt.Errorf("tag elements failed: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return RenderSnapshot(info.URL, info.Title, html)
}

// afterAction settles the page and appends a fresh snapshot, as the
// Playwright MCP server does, so refs in the reply are current.
func (b *BrowserAdapter) afterAction(page *rod.Page, summary string) (*entity.ToolResult, error) {
	_ = page.WaitIdle(2 * time.Second)
	snap, err := b.snapshot(page)
	if err != nil {
		b.logger.Warn("Snapshot after action failed", "error", err)
		return &entity.ToolResult{Text: summary}, nil
	}
	return &entity.ToolResult{Text: summary + "\n\n" + snap}, nil
}

func (b *BrowserAdapter) elementByRef(page *rod.Page, args map[string]any) (*rod.Element, error) {
	ref := stringArg(args, "ref")
	if !refPattern.MatchString(ref) {
		return nil, fmt.Errorf("invalid ref %q, take a browser_snapshot to get element refs", ref)
	}
	el, err := page.Element(`[` + refAttr + `="` + ref + `"]`)
	if err != nil {
		return nil, fmt.Errorf("ref %s not found in the current page snapshot. Try capturing new snapshot: %w", ref, err)
	}
	return el, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		parsed, _ := strconv.ParseBool(v)
		return parsed
	}
	return false
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func stringsArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
