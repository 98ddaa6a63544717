package output

import (
	"context"

	"gui-agent/internal/domain/entity"
)

// ToolCallHook observes a tool invocation right before dispatch and may
// rewrite its arguments. Hooks cannot cancel a call.
type ToolCallHook interface {
	BeforeToolCall(ctx context.Context, call *entity.ToolInvocation)
}

type ToolCallHookFunc func(ctx context.Context, call *entity.ToolInvocation)

func (f ToolCallHookFunc) BeforeToolCall(ctx context.Context, call *entity.ToolInvocation) {
	f(ctx, call)
}
