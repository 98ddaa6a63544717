package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gui-agent/internal/application/port/input"
	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
	"gui-agent/internal/infrastructure/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ input.TaskExecutor = (*UseCase)(nil)

const (
	DefaultAgentName  = "form_filling_agent"
	DefaultMaxSteps   = 20
	maxObservationLen = 20000
)

type Config struct {
	AgentName    string
	SystemPrompt string
	MaxSteps     int
}

type UseCase struct {
	llm    output.LLMPort
	tools  output.ToolRegistry
	hooks  output.ToolCallHook
	tracer trace.Tracer
	ui     output.UserInteractionPort
	logger output.LoggerPort
	cfg    Config
}

// New builds the executor. hooks, tracer and ui may be nil.
func New(
	llm output.LLMPort,
	tools output.ToolRegistry,
	hooks output.ToolCallHook,
	tracer trace.Tracer,
	ui output.UserInteractionPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.AgentName == "" {
		cfg.AgentName = DefaultAgentName
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if hooks == nil {
		hooks = output.ToolCallHookFunc(func(context.Context, *entity.ToolInvocation) {})
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &UseCase{
		llm:    llm,
		tools:  tools,
		hooks:  hooks,
		tracer: tracer,
		ui:     ui,
		logger: logger,
		cfg:    cfg,
	}
}

func (uc *UseCase) Execute(ctx context.Context, task string) (*input.ExecuteResult, error) {
	t := entity.Task{
		ID:          uuid.NewString(),
		Description: task,
		Status:      entity.TaskStatusRunning,
		StartedAt:   time.Now(),
	}

	ctx, span := uc.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(tracing.AgentAttributes(uc.cfg.AgentName, t.ID, task)...),
	)
	defer span.End()

	logger := uc.logger.WithField("taskID", t.ID)
	logger.Info("Task started", "task", task)

	result, err := uc.run(ctx, logger, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.Status = entity.TaskStatusFailed
		logger.Error("Task failed", "status", t.Status, "error", err, "duration", time.Since(t.StartedAt).String())
		return nil, err
	}

	span.SetAttributes(tracing.ResultAttributes(result.FinalAnswer, result.Iterations)...)
	t.Status = entity.TaskStatusCompleted
	logger.Info("Task completed", "status", t.Status, "iterations", result.Iterations, "duration", time.Since(t.StartedAt).String())
	return result, nil
}

func (uc *UseCase) run(ctx context.Context, logger output.LoggerPort, t entity.Task) (*input.ExecuteResult, error) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: uc.cfg.SystemPrompt},
		{Role: entity.RoleUser, Content: t.Description},
	}

	toolDefs := uc.tools.Definitions()

	for iteration := 1; iteration <= uc.cfg.MaxSteps; iteration++ {
		logger.Debug("Starting iteration", "iteration", iteration)
		if uc.ui != nil {
			uc.ui.ShowIteration(ctx, iteration, uc.cfg.MaxSteps)
		}

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}
		logger.Debug("LLM responded",
			"toolCalls", len(resp.Message.ToolCalls),
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens,
		)

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			return &input.ExecuteResult{
				TaskID:      t.ID,
				FinalAnswer: resp.Message.Content,
				Iterations:  iteration,
			}, nil
		}

		if uc.ui != nil {
			uc.ui.ShowThinking(ctx, resp.Message.Content)
		}

		var images []entity.Message
		for _, tc := range resp.Message.ToolCalls {
			result := uc.executeTool(ctx, logger, tc)

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name.String(),
				Content:    result.Text,
			})

			// Tool messages cannot carry images, so screenshots are shown
			// to the model in a user message after the tool results.
			if len(result.Images) > 0 {
				images = append(images, entity.Message{
					Role:    entity.RoleUser,
					Content: fmt.Sprintf("Image returned by %s (call %s).", tc.Name, tc.ID),
					Images:  result.Images,
				})
			}
		}
		messages = append(messages, images...)
	}

	return nil, fmt.Errorf("max iterations (%d) exceeded", uc.cfg.MaxSteps)
}

func (uc *UseCase) executeTool(ctx context.Context, logger output.LoggerPort, tc entity.ToolCall) *entity.ToolResult {
	ctx, span := uc.tracer.Start(ctx, "tool."+tc.Name.String())
	defer span.End()

	result := uc.dispatch(ctx, logger, tc, span)
	if result.IsError {
		span.SetStatus(codes.Error, truncate(result.Text, 200))
	}
	if uc.ui != nil {
		uc.ui.ShowToolResult(ctx, tc.Name.String(), result.Text, result.IsError)
	}
	return result
}

func (uc *UseCase) dispatch(ctx context.Context, logger output.LoggerPort, tc entity.ToolCall, span trace.Span) *entity.ToolResult {
	call := &entity.ToolInvocation{ID: tc.ID, Name: tc.Name}
	if strings.TrimSpace(tc.Arguments) != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &call.Arguments); err != nil {
			logger.Warn("Invalid tool arguments", "name", tc.Name, "error", err)
			tracing.RecordToolCall(span, tc.Name.String(), tc.Arguments, "")
			return errorResult(fmt.Errorf("invalid arguments for %s: %w", tc.Name, err))
		}
	}

	uc.hooks.BeforeToolCall(ctx, call)

	args := encodeArguments(call.Arguments)
	if uc.ui != nil {
		uc.ui.ShowToolStart(ctx, tc.Name.String(), args)
	}

	tool, ok := uc.tools.Get(call.Name)
	if !ok {
		logger.Warn("Unknown tool called", "name", call.Name)
		tracing.RecordToolCall(span, call.Name.String(), args, "")
		return errorResult(fmt.Errorf("unknown tool '%s'", call.Name))
	}

	logger.Info("Executing tool", "name", call.Name, "args", args)

	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		logger.Error("Tool execution failed", "name", call.Name, "error", err)
		span.RecordError(err)
		tracing.RecordToolCall(span, call.Name.String(), args, err.Error())
		return errorResult(err)
	}

	if len(result.Text) > maxObservationLen {
		result.Text = truncate(result.Text, maxObservationLen) + "\n... (truncated)"
	}
	tracing.RecordToolCall(span, call.Name.String(), args, result.Text)

	logger.Debug("Tool completed", "name", call.Name, "resultLen", len(result.Text), "images", len(result.Images))
	return result
}

func errorResult(err error) *entity.ToolResult {
	return &entity.ToolResult{Text: "Error: " + err.Error(), IsError: true}
}

func encodeArguments(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(data)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
