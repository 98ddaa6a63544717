package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
	"gui-agent/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Form submitted.",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Form submitted.", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertResponseMessage_WithToolCalls(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role: "assistant",
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_123",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "browser_navigate",
					Arguments: `{"url":"https://example.com"}`,
				},
			},
			{
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "browser_snapshot",
					Arguments: `{}`,
				},
			},
		},
	}

	result := convertResponseMessage(msg)

	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "call_123", result.ToolCalls[0].ID)
	assert.Equal(t, entity.ToolBrowserNavigate, result.ToolCalls[0].Name)
	assert.Equal(t, `{"url":"https://example.com"}`, result.ToolCalls[0].Arguments)
	assert.Equal(t, "call_1", result.ToolCalls[1].ID)
}

func TestConvertMessages(t *testing.T) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: "You fill forms."},
		{Role: entity.RoleUser, Content: "Fill the form"},
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: entity.ToolBrowserClick, Arguments: `{"ref":"e3"}`},
			},
		},
		{Role: entity.RoleTool, Content: "Clicked", ToolCallID: "call_1", Name: "browser_click"},
	}

	result := convertMessages(messages)

	require.Len(t, result, 4)
	assert.Equal(t, "system", result[0].Role)
	assert.Equal(t, "Fill the form", result[1].Content)
	require.Len(t, result[2].ToolCalls, 1)
	assert.Equal(t, "browser_click", result[2].ToolCalls[0].Function.Name)
	assert.Equal(t, openai.ToolTypeFunction, result[2].ToolCalls[0].Type)
	assert.Equal(t, "call_1", result[3].ToolCallID)
	assert.Equal(t, "Clicked", result[3].Content)
}

func TestConvertMessages_UserImages(t *testing.T) {
	messages := []entity.Message{
		{
			Role:    entity.RoleUser,
			Content: "Screenshot from browser_take_screenshot",
			Images:  []entity.Image{{Data: []byte("abc"), MIMEType: "image/jpeg"}},
		},
	}

	result := convertMessages(messages)

	require.Len(t, result, 1)
	assert.Empty(t, result[0].Content)
	require.Len(t, result[0].MultiContent, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, result[0].MultiContent[0].Type)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, result[0].MultiContent[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", result[0].MultiContent[1].ImageURL.URL)
}

func TestConvertTools(t *testing.T) {
	tools := []entity.ToolDefinition{
		{
			Name:        entity.ToolBrowserNavigate,
			Description: "Navigate to a URL",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"url": map[string]any{"type": "string"}},
			},
		},
	}

	result := convertTools(tools)

	require.Len(t, result, 1)
	assert.Equal(t, openai.ToolTypeFunction, result[0].Type)
	assert.Equal(t, "browser_navigate", result[0].Function.Name)
	assert.Equal(t, "Navigate to a URL", result[0].Function.Description)
}

func TestVertexBaseURL(t *testing.T) {
	assert.Equal(t,
		"https://us-central1-aiplatform.googleapis.com/v1beta1/projects/proj/locations/us-central1/endpoints/openapi",
		VertexBaseURL("proj", "us-central1"))
	assert.Equal(t,
		"https://aiplatform.googleapis.com/v1beta1/projects/proj/locations/global/endpoints/openapi",
		VertexBaseURL("proj", "global"))
}

func TestAPIKeyConfig(t *testing.T) {
	cfg := APIKeyConfig("key", "gemini-2.5-flash")

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, apiKeyBaseURL, cfg.BaseURL)
}

func chatServer(t *testing.T, check func(r *http.Request, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		check(r, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp-1",
			"object": "chat.completion",
			"model": "gemini-2.5-flash",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_9",
						"type": "function",
						"function": {"name": "browser_take_screenshot", "arguments": "{\"filename\":\"done.png\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiAdapter_Chat(t *testing.T) {
	srv := chatServer(t, func(r *http.Request, body map[string]any) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "gemini-2.5-flash", body["model"])
		assert.Equal(t, "auto", body["tool_choice"])
		assert.Len(t, body["tools"], 1)
	})

	adapter := NewGeminiAdapter(Config{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: srv.URL,
		Logger:  logger.NewNop(),
	})

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "take a screenshot"}},
		Tools:    []entity.ToolDefinition{{Name: entity.ToolBrowserScreenshot, Parameters: map[string]any{"type": "object"}}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, entity.ToolBrowserScreenshot, resp.Message.ToolCalls[0].Name)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 3, resp.Usage.CompletionTokens)
	assert.Equal(t, "gemini-2.5-flash", adapter.Model())
}

func TestGeminiAdapter_ChatWithoutToolsOmitsToolChoice(t *testing.T) {
	srv := chatServer(t, func(_ *http.Request, body map[string]any) {
		_, hasChoice := body["tool_choice"]
		assert.False(t, hasChoice)
	})

	adapter := NewGeminiAdapter(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestGeminiAdapter_TokenSourceOverridesAuthorization(t *testing.T) {
	srv := chatServer(t, func(r *http.Request, _ map[string]any) {
		assert.Equal(t, "Bearer vertex-token", r.Header.Get("Authorization"))
	})

	adapter := NewGeminiAdapter(Config{
		Model:       "google/gemini-2.5-flash",
		BaseURL:     srv.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "vertex-token"}),
	})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestGeminiAdapter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
	}))
	defer srv.Close()

	adapter := NewGeminiAdapter(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}
