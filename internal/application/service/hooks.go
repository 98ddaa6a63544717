package service

import (
	"context"
	"fmt"
	"sync"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
)

type hookRegistration struct {
	name     string
	priority int
	hook     output.ToolCallHook
}

// HookChain runs pre-call hooks in priority order (lower first, ties in
// registration order). A panicking hook is logged and skipped; the call
// always proceeds.
type HookChain struct {
	mu     sync.RWMutex
	hooks  []hookRegistration
	logger output.LoggerPort
}

func NewHookChain(logger output.LoggerPort) *HookChain {
	return &HookChain{logger: logger}
}

// Register inserts into a fresh slice so BeforeToolCall never observes a
// partial write.
func (c *HookChain) Register(name string, priority int, hook output.ToolCallHook) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := 0
	for i < len(c.hooks) && c.hooks[i].priority <= priority {
		i++
	}
	next := make([]hookRegistration, len(c.hooks)+1)
	copy(next, c.hooks[:i])
	next[i] = hookRegistration{name: name, priority: priority, hook: hook}
	copy(next[i+1:], c.hooks[i:])
	c.hooks = next
}

func (c *HookChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

func (c *HookChain) BeforeToolCall(ctx context.Context, call *entity.ToolInvocation) {
	c.mu.RLock()
	hooks := c.hooks
	c.mu.RUnlock()

	for _, h := range hooks {
		c.run(ctx, h, call)
	}
}

func (c *HookChain) run(ctx context.Context, h hookRegistration, call *entity.ToolInvocation) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Hook panic",
				"hook", h.name,
				"tool", call.Name.String(),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	h.hook.BeforeToolCall(ctx, call)
}
