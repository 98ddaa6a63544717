package userinteraction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer

	readOnce sync.Once
	lines    chan readResult
}

type readResult struct {
	line string
	err  error
}

func NewConsole(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
		lines:  make(chan readResult),
	}
}

// AskQuestion returns when a line is read or ctx is done. A line typed after
// cancellation is kept for the next call.
func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(u.out, "\n%s ", question)

	u.readOnce.Do(func() { go u.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-u.lines:
		if !ok {
			return "", fmt.Errorf("failed to read user input: %w", io.EOF)
		}
		if r.err != nil {
			return "", fmt.Errorf("failed to read user input: %w", r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}

// readLines pumps input lines until the reader fails. Blocking reads on
// stdin cannot be interrupted, so they live outside AskQuestion.
func (u *ConsoleUserInteraction) readLines() {
	defer close(u.lines)
	for {
		line, err := u.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" {
				u.lines <- readResult{line: line}
				return
			}
			u.lines <- readResult{err: err}
			return
		}
		u.lines <- readResult{line: line}
	}
}

// Banner is printed once when interactive mode starts.
type Banner struct {
	Model         string
	Auth          string
	PlaywrightMCP string
	PhoenixUI     string
}

func (u *ConsoleUserInteraction) ShowBanner(b Banner) {
	bold := color.New(color.Bold)
	bold.Fprintln(u.out, "\n🤖 GUI Agent Interactive Mode")
	fmt.Fprintln(u.out, strings.Repeat("-", 40))
	fmt.Fprintf(u.out, "Model: %s\n", b.Model)
	fmt.Fprintf(u.out, "Auth: %s\n", b.Auth)
	fmt.Fprintf(u.out, "Playwright MCP: %s\n", b.PlaywrightMCP)
	if b.PhoenixUI != "" {
		fmt.Fprintf(u.out, "Phoenix UI: %s\n", b.PhoenixUI)
	}
	fmt.Fprintln(u.out, strings.Repeat("-", 40))
	fmt.Fprintln(u.out, "Type 'quit' or 'exit' to stop")
	fmt.Fprintln(u.out, "Type 'config' to show configuration")
}

func (u *ConsoleUserInteraction) ShowConfig(config string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(u.out, "\n%s\nGUI Agent Configuration\n%s\n%s\n%s\n\n", rule, rule, config, rule)
}

func (u *ConsoleUserInteraction) ShowMessage(msg string) {
	fmt.Fprintln(u.out, msg)
}

func (u *ConsoleUserInteraction) ShowResult(result string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintln(u.out, "\n✅ Result:")
	fmt.Fprintf(u.out, "%s\n\n", result)
}

func (u *ConsoleUserInteraction) ShowError(err error) {
	red := color.New(color.FgRed)
	red.Fprintf(u.out, "\n❌ Error: %v\n\n", err)
}

func (u *ConsoleUserInteraction) ShowIteration(ctx context.Context, iteration, maxIterations int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Step %d/%d ━━━\n", iteration, maxIterations)
}

func (u *ConsoleUserInteraction) ShowThinking(ctx context.Context, content string) {
	if content == "" {
		return
	}

	blue := color.New(color.FgBlue)
	blue.Fprint(u.out, "\n💭 Thinking: ")

	dim := color.New(color.Faint)
	dim.Fprintln(u.out, truncate(content, 500))
}

func (u *ConsoleUserInteraction) ShowToolStart(ctx context.Context, toolName, arguments string) {
	icon, name := getToolDisplay(toolName)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n%s %s\n", icon, name)

	if summary := formatToolArguments(toolName, arguments); summary != "" {
		dim := color.New(color.Faint)
		dim.Fprintf(u.out, "   %s\n", summary)
	}
}

func (u *ConsoleUserInteraction) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	if isError {
		red := color.New(color.FgRed)
		red.Fprint(u.out, "❌ Error: ")

		dim := color.New(color.Faint)
		dim.Fprintln(u.out, truncate(result, 300))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintf(u.out, "✓ %s\n", formatToolResult(toolName, result))
}

var toolDisplays = map[entity.ToolName][2]string{
	entity.ToolBrowserNavigate:     {"🌐", "Navigate"},
	entity.ToolBrowserGoBack:       {"◀️", "Back"},
	entity.ToolBrowserGoForward:    {"▶️", "Forward"},
	entity.ToolBrowserSnapshot:     {"👁️", "Snapshot"},
	entity.ToolBrowserScreenshot:   {"📸", "Screenshot"},
	entity.ToolBrowserClick:        {"🖱️", "Click"},
	entity.ToolBrowserType:         {"✏️", "Type"},
	entity.ToolBrowserHover:        {"👆", "Hover"},
	entity.ToolBrowserSelectOption: {"📋", "Select"},
	entity.ToolBrowserPressKey:     {"⌨️", "Key"},
	entity.ToolBrowserWaitFor:      {"⏳", "Wait"},
}

func getToolDisplay(toolName string) (string, string) {
	if display, ok := toolDisplays[entity.ToolName(toolName)]; ok {
		return display[0], display[1]
	}
	return "🔧", toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}

	switch entity.ToolName(toolName) {
	case entity.ToolBrowserNavigate:
		return "URL: " + str("url")

	case entity.ToolBrowserClick, entity.ToolBrowserHover:
		return fmt.Sprintf("%s [%s]", truncate(str("element"), 60), str("ref"))

	case entity.ToolBrowserType:
		return fmt.Sprintf("%s [%s] → %s", truncate(str("element"), 40), str("ref"), truncate(str("text"), 30))

	case entity.ToolBrowserSelectOption:
		values, _ := args["values"].([]any)
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, fmt.Sprint(v))
		}
		return fmt.Sprintf("%s [%s] → %s", truncate(str("element"), 40), str("ref"), strings.Join(parts, ", "))

	case entity.ToolBrowserPressKey:
		return "Key: " + str("key")

	case entity.ToolBrowserScreenshot:
		if f := str("filename"); f != "" {
			return "File: " + f
		}

	case entity.ToolBrowserWaitFor:
		if text := str("text"); text != "" {
			return "Text: " + truncate(text, 60)
		}
		if secs, ok := args["time"].(float64); ok {
			return fmt.Sprintf("%gs", secs)
		}
	}

	return ""
}

// formatToolResult keeps the first line of a result. Snapshots are long and
// only their header is interesting on the console.
func formatToolResult(toolName, result string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(result), "\n")
	if entity.ToolName(toolName) == entity.ToolBrowserScreenshot && first == "" {
		return "Screenshot taken"
	}
	return truncate(first, 100)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
