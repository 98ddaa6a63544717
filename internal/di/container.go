package di

import (
	"context"
	"errors"
	"fmt"

	"gui-agent/internal/adapter/hook"
	"gui-agent/internal/adapter/tool"
	"gui-agent/internal/application/port/input"
	"gui-agent/internal/application/port/output"
	"gui-agent/internal/application/service"
	"gui-agent/internal/infrastructure/browser/rod"
	"gui-agent/internal/infrastructure/config"
	"gui-agent/internal/infrastructure/llm/gemini"
	"gui-agent/internal/infrastructure/logger"
	"gui-agent/internal/infrastructure/mcp/playwright"
	"gui-agent/internal/infrastructure/prompts"
	"gui-agent/internal/infrastructure/tracing"
	"gui-agent/internal/usecase/executor"
)

const tracerName = "gui-agent/executor"

// Container is built once per process and owns every long-lived
// collaborator. Close releases them in reverse order of construction.
type Container struct {
	Settings     *config.Settings
	Logger       output.LoggerPort
	Tracing      *tracing.Bootstrap
	Browser      output.BrowserToolsPort
	LLM          output.LLMPort
	Tools        output.ToolRegistry
	Hooks        *service.HookChain
	TaskExecutor input.TaskExecutor
}

type options struct {
	logger  output.LoggerPort
	browser output.BrowserToolsPort
	llm     output.LLMPort
	ui      output.UserInteractionPort
	tracing []tracing.Option
}

type Option func(*options)

func WithLogger(l output.LoggerPort) Option {
	return func(o *options) { o.logger = l }
}

// WithBrowser skips backend selection and uses b. The container still closes it.
func WithBrowser(b output.BrowserToolsPort) Option {
	return func(o *options) { o.browser = b }
}

func WithLLM(l output.LLMPort) Option {
	return func(o *options) { o.llm = l }
}

func WithUserInteraction(ui output.UserInteractionPort) Option {
	return func(o *options) { o.ui = ui }
}

func WithTracingOptions(opts ...tracing.Option) Option {
	return func(o *options) { o.tracing = append(o.tracing, opts...) }
}

func NewContainer(ctx context.Context, settings *config.Settings, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Settings: settings}

	c.Logger = o.logger
	if c.Logger == nil {
		logCfg := logger.DefaultConfig()
		if settings.LogLevel != "" {
			logCfg.Level = settings.LogLevel
		}
		logCfg.Development = settings.LogDev
		logCfg.File = settings.LogFile

		log, err := logger.NewLoggerAdapter(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		c.Logger = log
	}

	c.Tracing = tracing.NewBootstrap(c.Logger, o.tracing...)
	tracingCfg := tracing.DefaultConfig(settings.PhoenixCollectorEndpoint)
	tracingCfg.Enabled = settings.EnableTracing
	if err := c.Tracing.Init(ctx, tracingCfg); err != nil {
		// Tracing is optional; the agent runs without it.
		c.Logger.Warn("Tracing disabled", "error", err)
	}

	c.Browser = o.browser
	if c.Browser == nil {
		browser, err := newBrowser(ctx, settings, c.Logger)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		c.Browser = browser
	}

	c.LLM = o.llm
	if c.LLM == nil {
		llm, err := newLLM(ctx, settings, c.Logger)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		c.LLM = llm
	}

	c.Tools = service.NewToolRegistry()
	if _, err := tool.RegisterBrowserTools(ctx, c.Tools, c.Browser, c.Logger); err != nil {
		c.Close(ctx)
		return nil, err
	}

	c.Hooks = service.NewHookChain(c.Logger)
	c.Hooks.Register("screenshot_namer", 0, hook.NewScreenshotNamer(
		settings.ScreenshotDir,
		hook.WithLogger(c.Logger),
	))

	systemPrompt, err := prompts.GenerateSystemPrompt(
		prompts.FormFillingPrompt,
		c.Tools.Definitions(),
		settings.ScreenshotDir,
		settings.MockServerURL(),
	)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}

	c.TaskExecutor = executor.New(
		c.LLM,
		c.Tools,
		c.Hooks,
		c.Tracing.Tracer(tracerName),
		o.ui,
		c.Logger,
		executor.Config{
			AgentName:    executor.DefaultAgentName,
			SystemPrompt: systemPrompt,
			MaxSteps:     settings.MaxAgentSteps,
		},
	)

	c.Logger.Info("Container ready",
		"model", c.LLM.Model(),
		"auth", settings.AuthMode(),
		"backend", settings.BrowserBackend,
		"tools", len(c.Tools.All()),
		"tracing", c.Tracing.Enabled(),
	)
	return c, nil
}

func newBrowser(ctx context.Context, settings *config.Settings, log output.LoggerPort) (output.BrowserToolsPort, error) {
	switch settings.BrowserBackend {
	case config.BackendRod:
		cfg := rod.DefaultConfig()
		cfg.Headless = settings.BrowserHeadless
		cfg.Timeout = settings.BrowserTimeoutDuration()
		return rod.NewBrowserAdapter(ctx, cfg, log)
	default:
		cfg := playwright.DefaultConfig(settings.PlaywrightMCPURL)
		cfg.Timeout = settings.BrowserTimeoutDuration()
		return playwright.Connect(ctx, cfg, log)
	}
}

func newLLM(ctx context.Context, settings *config.Settings, log output.LoggerPort) (output.LLMPort, error) {
	var cfg gemini.Config
	if settings.AuthMode() == config.AuthModeAPIKey {
		cfg = gemini.APIKeyConfig(settings.GoogleAPIKey, settings.ModelName)
	} else {
		var err error
		cfg, err = gemini.VertexConfig(ctx, settings.GoogleCloudProject, settings.GoogleCloudLocation, settings.ModelName)
		if err != nil {
			return nil, err
		}
	}
	if settings.LLMBaseURL != "" {
		cfg.BaseURL = settings.LLMBaseURL
	}
	cfg.Logger = log
	return gemini.NewGeminiAdapter(cfg), nil
}

// Close is safe on a partially built container.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Browser != nil {
		if err := c.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if c.Tracing != nil {
		if err := c.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if c.Logger != nil {
		if err := c.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger: %w", err))
		}
	}
	return errors.Join(errs...)
}
