package entity

type ToolName string

// Browser tools exposed by the Playwright MCP server. Only these are offered
// to the model.
const (
	ToolBrowserNavigate     ToolName = "browser_navigate"
	ToolBrowserGoBack       ToolName = "browser_go_back"
	ToolBrowserGoForward    ToolName = "browser_go_forward"
	ToolBrowserSnapshot     ToolName = "browser_snapshot"
	ToolBrowserScreenshot   ToolName = "browser_take_screenshot"
	ToolBrowserClick        ToolName = "browser_click"
	ToolBrowserType         ToolName = "browser_type"
	ToolBrowserHover        ToolName = "browser_hover"
	ToolBrowserSelectOption ToolName = "browser_select_option"
	ToolBrowserPressKey     ToolName = "browser_press_key"
	ToolBrowserWaitFor      ToolName = "browser_wait_for"
)

var BrowserTools = []ToolName{
	ToolBrowserNavigate,
	ToolBrowserGoBack,
	ToolBrowserGoForward,
	ToolBrowserSnapshot,
	ToolBrowserScreenshot,
	ToolBrowserClick,
	ToolBrowserType,
	ToolBrowserHover,
	ToolBrowserSelectOption,
	ToolBrowserPressKey,
	ToolBrowserWaitFor,
}

func (t ToolName) String() string {
	return string(t)
}

func IsBrowserTool(name ToolName) bool {
	for _, t := range BrowserTools {
		if t == name {
			return true
		}
	}
	return false
}

// ToolInvocation is a tool call about to be dispatched. Hooks may rewrite
// Arguments in place.
type ToolInvocation struct {
	ID        string
	Name      ToolName
	Arguments map[string]any
}

type ToolResult struct {
	Text    string
	Images  []Image
	IsError bool
}
