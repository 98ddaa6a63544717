package userinteraction

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(input string) (*ConsoleUserInteraction, *bytes.Buffer) {
	color.NoColor = true
	out := &bytes.Buffer{}
	return NewConsole(strings.NewReader(input), out), out
}

func TestAskQuestion(t *testing.T) {
	console, out := newTestConsole("  fill the form \n")

	answer, err := console.AskQuestion(context.Background(), "📝 Enter task:")

	require.NoError(t, err)
	assert.Equal(t, "fill the form", answer)
	assert.Contains(t, out.String(), "Enter task:")
}

func TestAskQuestion_LastLineWithoutNewline(t *testing.T) {
	console, _ := newTestConsole("quit")

	answer, err := console.AskQuestion(context.Background(), "?")

	require.NoError(t, err)
	assert.Equal(t, "quit", answer)
}

func TestAskQuestion_EOF(t *testing.T) {
	console, _ := newTestConsole("")

	_, err := console.AskQuestion(context.Background(), "?")

	assert.Error(t, err)
}

func TestShowBanner(t *testing.T) {
	console, out := newTestConsole("")

	console.ShowBanner(Banner{
		Model:         "gemini-2.5-flash",
		Auth:          "api_key",
		PlaywrightMCP: "http://localhost:8931/sse",
		PhoenixUI:     "http://localhost:6006",
	})

	text := out.String()
	assert.Contains(t, text, "Model: gemini-2.5-flash")
	assert.Contains(t, text, "Auth: api_key")
	assert.Contains(t, text, "Playwright MCP: http://localhost:8931/sse")
	assert.Contains(t, text, "Phoenix UI: http://localhost:6006")
	assert.Contains(t, text, "'quit'")
}

func TestShowToolStart(t *testing.T) {
	tests := []struct {
		tool     string
		args     string
		expected string
	}{
		{"browser_navigate", `{"url":"http://localhost:5000/contact"}`, "URL: http://localhost:5000/contact"},
		{"browser_type", `{"element":"Email","ref":"e4","text":"a@b.c"}`, "Email [e4] → a@b.c"},
		{"browser_select_option", `{"element":"Country","ref":"e9","values":["US","CA"]}`, "Country [e9] → US, CA"},
		{"browser_take_screenshot", `{"filename":"screenshots/20250101_000000_a.png"}`, "File: screenshots/20250101_000000_a.png"},
		{"browser_wait_for", `{"time":2}`, "2s"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			console, out := newTestConsole("")
			console.ShowToolStart(context.Background(), tt.tool, tt.args)
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func TestShowToolStart_UnknownTool(t *testing.T) {
	console, out := newTestConsole("")

	console.ShowToolStart(context.Background(), "custom_tool", "not json")

	assert.Contains(t, out.String(), "🔧 custom_tool")
}

func TestShowToolResult(t *testing.T) {
	console, out := newTestConsole("")

	console.ShowToolResult(context.Background(), "browser_snapshot", "- Page URL: http://x\n- Page Title: Form", false)
	console.ShowToolResult(context.Background(), "browser_click", "element not found", true)

	text := out.String()
	assert.Contains(t, text, "✓ - Page URL: http://x")
	assert.NotContains(t, text, "Page Title")
	assert.Contains(t, text, "❌ Error: element not found")
}

func TestShowResultAndError(t *testing.T) {
	console, out := newTestConsole("")

	console.ShowResult("All fields filled")
	console.ShowError(errors.New("max iterations (3) exceeded"))
	console.ShowConfig("Model: m")

	text := out.String()
	assert.Contains(t, text, "All fields filled")
	assert.Contains(t, text, "Error: max iterations (3) exceeded")
	assert.Contains(t, text, "GUI Agent Configuration")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestAskQuestion_ReturnsOnCancel(t *testing.T) {
	color.NoColor = true
	in, w := io.Pipe()
	defer w.Close()
	console := NewConsole(in, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := console.AskQuestion(ctx, "?")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("AskQuestion did not return after cancel")
	}

	go func() { _, _ = io.WriteString(w, "late line\n") }()
	answer, err := console.AskQuestion(context.Background(), "?")
	require.NoError(t, err)
	assert.Equal(t, "late line", answer)
}
