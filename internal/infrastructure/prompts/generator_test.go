package prompts

import (
	"strings"
	"testing"

	"gui-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSystemPrompt(t *testing.T) {
	tools := []entity.ToolDefinition{
		{Name: entity.ToolBrowserSnapshot, Description: "Capture accessibility snapshot"},
		{Name: entity.ToolBrowserClick, Description: "Click an element\nSecond line is dropped"},
	}

	template := `Test template
dir={{.ScreenshotDir}} url={{.MockServerURL}}
{{range .Tools -}}
- {{.Name}}: {{.Description}}
{{end}}`

	result, err := GenerateSystemPrompt(template, tools, "shots", "http://localhost:5000")
	require.NoError(t, err)

	assert.Contains(t, result, "Test template")
	assert.Contains(t, result, "dir=shots url=http://localhost:5000")
	assert.Contains(t, result, "- browser_click: Click an element\n")
	assert.NotContains(t, result, "Second line")
	assert.Less(t, strings.Index(result, "browser_click"), strings.Index(result, "browser_snapshot"))
}

func TestGenerateSystemPrompt_NoTools(t *testing.T) {
	result, err := GenerateSystemPrompt(`Tools:{{range .Tools}} {{.Name}}{{end}}.`, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Tools:.", result)
}

func TestGenerateSystemPrompt_InvalidTemplate(t *testing.T) {
	_, err := GenerateSystemPrompt(`{{.Broken`, nil, "", "")
	assert.Error(t, err)
}

func TestFormFillingPrompt(t *testing.T) {
	tools := []entity.ToolDefinition{
		{Name: entity.ToolBrowserScreenshot, Description: "Take a screenshot"},
	}

	result, err := GenerateSystemPrompt(FormFillingPrompt, tools, "screenshots", "http://localhost:5000")
	require.NoError(t, err)

	assert.Contains(t, strings.ToLower(result), "form")
	assert.Contains(t, result, "- browser_take_screenshot: Take a screenshot")
	assert.Contains(t, result, "saved under screenshots")
	assert.Contains(t, result, "http://localhost:5000")
	assert.NotContains(t, result, "{{")
}

func TestFormFillingPrompt_WithoutMockServer(t *testing.T) {
	result, err := GenerateSystemPrompt(FormFillingPrompt, nil, "screenshots", "")
	require.NoError(t, err)
	assert.NotContains(t, result, "Local test forms")
}
