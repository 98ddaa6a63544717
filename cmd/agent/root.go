package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gui-agent/internal/di"
	"gui-agent/internal/infrastructure/config"
	"gui-agent/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// errConfiguration is reported to the user by run itself.
var errConfiguration = errors.New("configuration error")

type rootOptions struct {
	task       string
	showConfig bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gui-agent",
		Short: "GUI Agent - form-filling automation over a Playwright browser",
		Example: `  # Interactive mode
  gui-agent

  # Run a single task
  gui-agent --task "Navigate to example.com and take a screenshot"

  # Show configuration
  gui-agent --config

  # Verbose output
  gui-agent -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "Run a single task and exit")
	cmd.Flags().BoolVarP(&opts.showConfig, "config", "c", false, "Show configuration and exit")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

func run(ctx context.Context, opts *rootOptions, in io.Reader, out io.Writer) error {
	console := userinteraction.NewConsole(in, out)

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "❌ Configuration error: %v\n", err)
		fmt.Fprintln(out, "\nPlease check your .env file or environment variables.")
		return fmt.Errorf("%w: %w", errConfiguration, err)
	}
	if opts.verbose {
		settings.LogLevel = "debug"
	}

	if opts.showConfig {
		console.ShowConfig(settings.String())
		return nil
	}

	container, err := di.NewContainer(ctx, settings, di.WithUserInteraction(console))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	if opts.task != "" {
		return runSingleTask(ctx, container, out, opts.task)
	}
	return runInteractive(ctx, container, console, settings)
}

func runSingleTask(ctx context.Context, c *di.Container, out io.Writer, task string) error {
	result, err := c.TaskExecutor.Execute(ctx, task)
	flushTraces(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result.FinalAnswer)
	return nil
}

func runInteractive(ctx context.Context, c *di.Container, console *userinteraction.ConsoleUserInteraction, settings *config.Settings) error {
	console.ShowBanner(userinteraction.Banner{
		Model:         c.LLM.Model(),
		Auth:          string(settings.AuthMode()),
		PlaywrightMCP: settings.PlaywrightMCPURL,
		PhoenixUI:     phoenixUI(c, settings),
	})

	for {
		task, err := console.AskQuestion(ctx, "📝 Enter task:")
		if err != nil {
			if ctx.Err() != nil {
				console.ShowMessage("\n\nInterrupted. Goodbye!")
			} else {
				console.ShowMessage("\nGoodbye!")
			}
			return nil
		}

		switch command(task) {
		case commandEmpty:
			continue
		case commandQuit:
			console.ShowMessage("Goodbye!")
			return nil
		case commandConfig:
			console.ShowConfig(settings.String())
			continue
		}

		console.ShowMessage("\n⏳ Processing...")
		result, err := c.TaskExecutor.Execute(ctx, task)
		flushTraces(c)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				console.ShowMessage("\nInterrupted. Goodbye!")
				return nil
			}
			console.ShowError(err)
			continue
		}
		console.ShowResult(result.FinalAnswer)
	}
}

type commandKind int

const (
	commandTask commandKind = iota
	commandEmpty
	commandQuit
	commandConfig
)

func command(line string) commandKind {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return commandEmpty
	case "quit", "exit", "q":
		return commandQuit
	case "config":
		return commandConfig
	default:
		return commandTask
	}
}

func phoenixUI(c *di.Container, settings *config.Settings) string {
	if !c.Tracing.Enabled() {
		return "disabled"
	}
	return settings.PhoenixUIURL()
}

func flushTraces(c *di.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Tracing.Flush(ctx); err != nil {
		c.Logger.Warn("Failed to flush traces", "error", err)
	}
}
