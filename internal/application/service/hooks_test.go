package service

import (
	"context"
	"sync"
	"testing"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
	"gui-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
)

func appendHook(order *[]string, name string) output.ToolCallHook {
	return output.ToolCallHookFunc(func(_ context.Context, call *entity.ToolInvocation) {
		*order = append(*order, name)
		call.Arguments[name] = true
	})
}

func TestHookChain_PriorityOrder(t *testing.T) {
	chain := NewHookChain(logger.NewNop())
	var order []string

	chain.Register("late", 10, appendHook(&order, "late"))
	chain.Register("early", 0, appendHook(&order, "early"))
	chain.Register("early-2", 0, appendHook(&order, "early-2"))

	call := &entity.ToolInvocation{Name: entity.ToolBrowserClick, Arguments: map[string]any{}}
	chain.BeforeToolCall(context.Background(), call)

	assert.Equal(t, []string{"early", "early-2", "late"}, order)
	assert.Len(t, call.Arguments, 3)
	assert.Equal(t, 3, chain.Len())
}

func TestHookChain_RecoversPanic(t *testing.T) {
	chain := NewHookChain(logger.NewNop())
	var order []string

	chain.Register("boom", 0, output.ToolCallHookFunc(func(context.Context, *entity.ToolInvocation) {
		panic("broken hook")
	}))
	chain.Register("after", 1, appendHook(&order, "after"))

	call := &entity.ToolInvocation{Name: entity.ToolBrowserScreenshot, Arguments: map[string]any{}}
	assert.NotPanics(t, func() { chain.BeforeToolCall(context.Background(), call) })
	assert.Equal(t, []string{"after"}, order)
}

func TestHookChain_Empty(t *testing.T) {
	chain := NewHookChain(logger.NewNop())
	call := &entity.ToolInvocation{Name: entity.ToolBrowserClick, Arguments: map[string]any{"ref": "e1"}}

	chain.BeforeToolCall(context.Background(), call)

	assert.Equal(t, map[string]any{"ref": "e1"}, call.Arguments)
}

func TestHookChain_ConcurrentRegisterAndRun(t *testing.T) {
	chain := NewHookChain(logger.NewNop())
	noop := output.ToolCallHookFunc(func(context.Context, *entity.ToolInvocation) {})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			chain.Register("noop", 0, noop)
		}()
		go func() {
			defer wg.Done()
			chain.BeforeToolCall(context.Background(), &entity.ToolInvocation{Arguments: map[string]any{}})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, chain.Len())
}
