package rod

import "gui-agent/internal/domain/entity"

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

var (
	elementProp = str("Human-readable element description used to obtain permission to interact with the element")
	refProp     = str("Exact target element reference from the page snapshot")
)

// toolDefinitions mirrors the names and argument shapes of the Playwright MCP
// server so the model sees the same surface with either backend.
func toolDefinitions() []entity.ToolDefinition {
	return []entity.ToolDefinition{
		{
			Name:        entity.ToolBrowserNavigate,
			Description: "Navigate to a URL",
			Parameters:  object(map[string]any{"url": str("The URL to navigate to")}, "url"),
		},
		{
			Name:        entity.ToolBrowserGoBack,
			Description: "Go back to the previous page",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        entity.ToolBrowserGoForward,
			Description: "Go forward to the next page",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        entity.ToolBrowserSnapshot,
			Description: "Capture accessibility snapshot of the current page, this is better than screenshot",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        entity.ToolBrowserScreenshot,
			Description: "Take a screenshot of the current page. You can't perform actions based on the screenshot, use browser_snapshot for actions.",
			Parameters: object(map[string]any{
				"type": map[string]any{
					"type":        "string",
					"enum":        []string{"png", "jpeg"},
					"description": "Image format for the screenshot. Default is png.",
				},
				"filename": str("File name to save the screenshot to."),
				"element":  elementProp,
				"ref":      refProp,
				"fullPage": map[string]any{
					"type":        "boolean",
					"description": "When true, takes a screenshot of the full scrollable page.",
				},
			}),
		},
		{
			Name:        entity.ToolBrowserClick,
			Description: "Perform click on a web page",
			Parameters: object(map[string]any{
				"element":     elementProp,
				"ref":         refProp,
				"doubleClick": map[string]any{"type": "boolean", "description": "Whether to perform a double click instead of a single click"},
				"button": map[string]any{
					"type":        "string",
					"enum":        []string{"left", "right", "middle"},
					"description": "Button to click, defaults to left",
				},
			}, "element", "ref"),
		},
		{
			Name:        entity.ToolBrowserType,
			Description: "Type text into editable element",
			Parameters: object(map[string]any{
				"element": elementProp,
				"ref":     refProp,
				"text":    str("Text to type into the element"),
				"submit":  map[string]any{"type": "boolean", "description": "Whether to submit entered text (press Enter after)"},
			}, "element", "ref", "text"),
		},
		{
			Name:        entity.ToolBrowserHover,
			Description: "Hover over element on page",
			Parameters:  object(map[string]any{"element": elementProp, "ref": refProp}, "element", "ref"),
		},
		{
			Name:        entity.ToolBrowserSelectOption,
			Description: "Select an option in a dropdown",
			Parameters: object(map[string]any{
				"element": elementProp,
				"ref":     refProp,
				"values": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Array of values to select in the dropdown. This can be a single value or multiple values.",
				},
			}, "element", "ref", "values"),
		},
		{
			Name:        entity.ToolBrowserPressKey,
			Description: "Press a key on the keyboard",
			Parameters: object(map[string]any{
				"key": str("Name of the key to press or a character to generate, such as `ArrowLeft` or `a`"),
			}, "key"),
		},
		{
			Name:        entity.ToolBrowserWaitFor,
			Description: "Wait for text to appear or disappear or a specified time to pass",
			Parameters: object(map[string]any{
				"time":     map[string]any{"type": "number", "description": "The time to wait in seconds"},
				"text":     str("The text to wait for"),
				"textGone": str("The text to wait for to disappear"),
			}),
		},
	}
}
