package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gui-agent/internal/infrastructure/env"

	"github.com/kelseyhightower/envconfig"
)

type AuthMode string

const (
	AuthModeAPIKey   AuthMode = "api_key"
	AuthModeVertexAI AuthMode = "vertex_ai"
)

const (
	BackendMCP = "mcp"
	BackendRod = "rod"
)

var ErrMissingProject = errors.New(
	"GOOGLE_CLOUD_PROJECT must be set when using Vertex AI authentication. " +
		"Either set GOOGLE_API_KEY or configure Vertex AI credentials",
)

// Settings groups are embedded so envconfig reads the tag names as-is,
// without a struct-name prefix.
type Settings struct {
	LLMSettings
	BrowserSettings
	TracingSettings
	AgentSettings
	LogSettings
}

type LLMSettings struct {
	GoogleAPIKey        string `envconfig:"GOOGLE_API_KEY"`
	UseVertexAI         bool   `envconfig:"GOOGLE_GENAI_USE_VERTEXAI" default:"false"`
	GoogleCloudProject  string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudLocation string `envconfig:"GOOGLE_CLOUD_LOCATION" default:"us-central1"`
	ModelName           string `envconfig:"MODEL_NAME" default:"gemini-2.5-flash"`
	LLMBaseURL          string `envconfig:"LLM_BASE_URL"`
}

type BrowserSettings struct {
	PlaywrightMCPURL string `envconfig:"PLAYWRIGHT_MCP_URL" default:"http://localhost:8931/sse"`
	BrowserBackend   string `envconfig:"BROWSER_BACKEND" default:"mcp"`
	BrowserHeadless  bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	BrowserTimeout   int    `envconfig:"BROWSER_TIMEOUT" default:"30"`
	ScreenshotDir    string `envconfig:"SCREENSHOT_DIR" default:"screenshots"`
}

type TracingSettings struct {
	PhoenixHost              string `envconfig:"PHOENIX_HOST" default:"localhost"`
	PhoenixPort              int    `envconfig:"PHOENIX_PORT" default:"6006"`
	PhoenixCollectorEndpoint string `envconfig:"PHOENIX_COLLECTOR_ENDPOINT" default:"http://localhost:6006/v1/traces"`
	EnableTracing            bool   `envconfig:"ENABLE_TRACING" default:"true"`
}

type AgentSettings struct {
	MaxAgentSteps  int    `envconfig:"MAX_AGENT_STEPS" default:"20"`
	MockServerHost string `envconfig:"MOCK_SERVER_HOST" default:"localhost"`
	MockServerPort int    `envconfig:"MOCK_SERVER_PORT" default:"8080"`
}

type LogSettings struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// Load reads .env files from the working directory and then the process
// environment.
func Load() (*Settings, error) {
	if _, err := env.Load("."); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate switches to Vertex AI when no API key is configured and checks
// that the chosen mode is usable.
func (s *Settings) Validate() error {
	if s.GoogleAPIKey == "" && !s.UseVertexAI {
		s.UseVertexAI = true
	}
	if s.UseVertexAI && s.GoogleCloudProject == "" {
		return ErrMissingProject
	}

	switch s.BrowserBackend {
	case BackendMCP, BackendRod:
	default:
		return fmt.Errorf("BROWSER_BACKEND must be %q or %q, got %q", BackendMCP, BackendRod, s.BrowserBackend)
	}
	if s.MaxAgentSteps <= 0 {
		return fmt.Errorf("MAX_AGENT_STEPS must be positive, got %d", s.MaxAgentSteps)
	}
	if s.BrowserTimeout <= 0 {
		return fmt.Errorf("BROWSER_TIMEOUT must be positive, got %d", s.BrowserTimeout)
	}
	return nil
}

func (s *Settings) AuthMode() AuthMode {
	if s.GoogleAPIKey != "" {
		return AuthModeAPIKey
	}
	return AuthModeVertexAI
}

func (s *Settings) BrowserTimeoutDuration() time.Duration {
	return time.Duration(s.BrowserTimeout) * time.Second
}

func (s *Settings) MockServerURL() string {
	return fmt.Sprintf("http://%s:%d", s.MockServerHost, s.MockServerPort)
}

func (s *Settings) PhoenixUIURL() string {
	return fmt.Sprintf("http://%s:%d", s.PhoenixHost, s.PhoenixPort)
}

// String never includes the API key.
func (s *Settings) String() string {
	var b strings.Builder
	b.WriteString("Settings(\n")
	fmt.Fprintf(&b, "  auth_mode=%s,\n", s.AuthMode())
	fmt.Fprintf(&b, "  model=%s,\n", s.ModelName)
	fmt.Fprintf(&b, "  vertex_ai_project=%s,\n", s.GoogleCloudProject)
	fmt.Fprintf(&b, "  vertex_ai_location=%s,\n", s.GoogleCloudLocation)
	fmt.Fprintf(&b, "  browser_backend=%s,\n", s.BrowserBackend)
	fmt.Fprintf(&b, "  playwright_mcp_url=%s,\n", s.PlaywrightMCPURL)
	fmt.Fprintf(&b, "  browser_headless=%t,\n", s.BrowserHeadless)
	fmt.Fprintf(&b, "  screenshot_dir=%s,\n", s.ScreenshotDir)
	fmt.Fprintf(&b, "  phoenix_endpoint=%s,\n", s.PhoenixCollectorEndpoint)
	fmt.Fprintf(&b, "  tracing_enabled=%t\n", s.EnableTracing)
	b.WriteString(")")
	return b.String()
}
