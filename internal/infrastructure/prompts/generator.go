package prompts

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"gui-agent/internal/domain/entity"
)

type ToolInfo struct {
	Name        string
	Description string
}

type SystemPromptData struct {
	Tools         []ToolInfo
	ScreenshotDir string
	MockServerURL string
}

// GenerateSystemPrompt renders baseTemplate with the tools offered to the
// model. Only the first line of each tool description is kept.
func GenerateSystemPrompt(baseTemplate string, tools []entity.ToolDefinition, screenshotDir, mockServerURL string) (string, error) {
	toolInfos := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		desc, _, _ := strings.Cut(strings.TrimSpace(t.Description), "\n")
		toolInfos = append(toolInfos, ToolInfo{
			Name:        t.Name.String(),
			Description: desc,
		})
	}

	sort.Slice(toolInfos, func(i, j int) bool {
		return toolInfos[i].Name < toolInfos[j].Name
	})

	data := SystemPromptData{
		Tools:         toolInfos,
		ScreenshotDir: screenshotDir,
		MockServerURL: mockServerURL,
	}

	tmpl, err := template.New("system").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
