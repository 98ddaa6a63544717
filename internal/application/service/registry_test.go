package service

import (
	"context"
	"testing"

	"gui-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

type stubTool struct {
	name entity.ToolName
}

func (s stubTool) Name() entity.ToolName      { return s.name }
func (s stubTool) Description() string        { return "stub " + s.name.String() }
func (s stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s stubTool) Execute(context.Context, map[string]any) (*entity.ToolResult, error) {
	return &entity.ToolResult{Text: "ok"}, nil
}

func TestToolRegistry_DefinitionsSorted(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: entity.ToolBrowserType})
	r.Register(stubTool{name: entity.ToolBrowserClick})
	r.Register(stubTool{name: entity.ToolBrowserNavigate})

	defs := r.Definitions()

	assert.Len(t, defs, 3)
	assert.Equal(t, entity.ToolBrowserClick, defs[0].Name)
	assert.Equal(t, entity.ToolBrowserNavigate, defs[1].Name)
	assert.Equal(t, entity.ToolBrowserType, defs[2].Name)
	assert.Equal(t, "stub browser_click", defs[0].Description)
}

func TestToolRegistry_GetAndReplace(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: entity.ToolBrowserClick})
	r.Register(stubTool{name: entity.ToolBrowserClick})

	_, ok := r.Get(entity.ToolBrowserClick)
	assert.True(t, ok)
	_, ok = r.Get(entity.ToolBrowserHover)
	assert.False(t, ok)
	assert.Len(t, r.All(), 1)
}
