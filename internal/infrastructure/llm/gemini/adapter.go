package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var _ output.LLMPort = (*GeminiAdapter)(nil)

const (
	apiKeyBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	cloudScope    = "https://www.googleapis.com/auth/cloud-platform"
)

// GeminiAdapter talks to Gemini through its OpenAI-compatible endpoint,
// either with an API key or with Vertex AI application default credentials.
type GeminiAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// TokenSource, when set, authenticates every request instead of APIKey.
	TokenSource oauth2.TokenSource
	Logger      output.LoggerPort
}

func APIKeyConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: apiKeyBaseURL,
	}
}

// VertexConfig uses application default credentials. Vertex serves Gemini
// models under the "google/" publisher prefix.
func VertexConfig(ctx context.Context, project, location, model string) (Config, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudScope)
	if err != nil {
		return Config{}, fmt.Errorf("find Google credentials: %w", err)
	}
	return Config{
		Model:       "google/" + model,
		BaseURL:     VertexBaseURL(project, location),
		TokenSource: ts,
	}, nil
}

func VertexBaseURL(project, location string) string {
	host := location + "-aiplatform.googleapis.com"
	if location == "global" {
		host = "aiplatform.googleapis.com"
	}
	return fmt.Sprintf("https://%s/v1beta1/projects/%s/locations/%s/endpoints/openapi", host, project, location)
}

func NewGeminiAdapter(cfg Config) *GeminiAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	var base http.RoundTripper = http.DefaultTransport
	if cfg.TokenSource != nil {
		base = &oauth2.Transport{Source: cfg.TokenSource, Base: base}
	}
	if cfg.Logger != nil {
		base = &loggingTransport{base: base, logger: cfg.Logger}
	}
	config.HTTPClient = &http.Client{Transport: base}

	return &GeminiAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *GeminiAdapter) Model() string {
	return a.model
}

func (a *GeminiAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		chatReq.Tools = tools
		chatReq.ToolChoice = "auto"
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
		Usage: output.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}

		// Content and MultiContent are mutually exclusive on the wire.
		if len(msg.Images) > 0 && msg.Role == entity.RoleUser {
			parts := make([]openai.ChatMessagePart, 0, len(msg.Images)+1)
			if msg.Content != "" {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: msg.Content,
				})
			}
			for _, img := range msg.Images {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(img),
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
			oaiMsg.MultiContent = parts
		} else {
			oaiMsg.Content = msg.Content
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name.String(),
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name.String(),
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.RoleAssistant,
		Content: msg.Content,
	}

	for i, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			// Some Gemini responses omit ids; the tool message must still
			// reference its call.
			id = fmt.Sprintf("call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        id,
			Name:      entity.ToolName(tc.Function.Name),
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}

func dataURL(img entity.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
