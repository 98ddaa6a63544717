package tracing

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"gui-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestBootstrap_DisabledUsesNoopTracer(t *testing.T) {
	b := NewBootstrap(logger.NewNop())
	cfg := DefaultConfig("http://localhost:6006/v1/traces")
	cfg.Enabled = false

	require.NoError(t, b.Init(context.Background(), cfg))

	assert.Equal(t, stateInitialized, b.state)
	assert.False(t, b.Enabled())
	_, span := b.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, b.Flush(context.Background()))
	assert.NoError(t, b.Shutdown(context.Background()))
}

func TestBootstrap_InitIsIdempotent(t *testing.T) {
	first := tracetest.NewInMemoryExporter()
	b := NewBootstrap(logger.NewNop(), WithExporter(first))
	cfg := DefaultConfig("http://localhost:6006/v1/traces")

	require.NoError(t, b.Init(context.Background(), cfg))
	// A second call, even with a different config, keeps the first provider.
	disabled := cfg
	disabled.Enabled = false
	require.NoError(t, b.Init(context.Background(), disabled))

	assert.True(t, b.Enabled())

	_, span := b.Tracer("test").Start(context.Background(), "op")
	span.End()

	assert.Len(t, first.GetSpans(), 1)
}

func TestBootstrap_TracerBeforeInitIsNoop(t *testing.T) {
	b := NewBootstrap(logger.NewNop())

	assert.Equal(t, stateUninitialized, b.state)
	_, span := b.Tracer("test").Start(context.Background(), "early")
	assert.False(t, span.SpanContext().IsValid())
}

func TestBootstrap_ExportsResourceAttributes(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	b := NewBootstrap(logger.NewNop(), WithExporter(exp))
	require.NoError(t, b.Init(context.Background(), DefaultConfig("http://localhost:6006/v1/traces")))

	_, span := b.Tracer("test").Start(context.Background(), "op")
	span.End()
	require.NoError(t, b.Flush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	attrs := spans[0].Resource.Set()
	name, ok := attrs.Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "gui-agent", name.AsString())
	env, ok := attrs.Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "development", env.AsString())
}

func TestBootstrap_ShutdownStopsExport(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	b := NewBootstrap(logger.NewNop(), WithExporter(exp))
	require.NoError(t, b.Init(context.Background(), DefaultConfig("http://localhost:6006/v1/traces")))

	require.NoError(t, b.Shutdown(context.Background()))
	require.NoError(t, b.Shutdown(context.Background()))

	assert.Equal(t, stateShutdown, b.state)
	_, span := b.Tracer("test").Start(context.Background(), "late")
	assert.False(t, span.SpanContext().IsValid())
}

func TestRecordToolCall_TruncatesOutput(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	b := NewBootstrap(logger.NewNop(), WithExporter(exp))
	require.NoError(t, b.Init(context.Background(), DefaultConfig("http://localhost:6006/v1/traces")))

	_, span := b.Tracer("test").Start(context.Background(), "tool")
	RecordToolCall(span, "browser_snapshot", `{}`, strings.Repeat("x", 5000))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	for _, kv := range spans[0].Attributes {
		if kv.Key == "tool.output" {
			assert.Len(t, kv.Value.AsString(), 1000)
			return
		}
	}
	t.Fatal("tool.output attribute missing")
}

func TestAgentAttributes(t *testing.T) {
	attrs := AgentAttributes("form_filling_agent", "", "fill the form")

	assert.Len(t, attrs, 2)
	assert.Equal(t, attribute.String("agent.name", "form_filling_agent"), attrs[0])
	assert.Equal(t, attribute.String("agent.task", "fill the form"), attrs[1])
}

func TestResultAttributes(t *testing.T) {
	attrs := ResultAttributes(strings.Repeat("a", 1500), 4)

	require.Len(t, attrs, 2)
	assert.Len(t, attrs[0].Value.AsString(), 1000)
	assert.Equal(t, attribute.Int("agent.iterations", 4), attrs[1])
}

func TestRecordToolCall_TruncatesOnRuneBoundary(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	b := NewBootstrap(logger.NewNop(), WithExporter(exp))
	require.NoError(t, b.Init(context.Background(), DefaultConfig("http://localhost:6006/v1/traces")))

	_, span := b.Tracer("test").Start(context.Background(), "tool")
	RecordToolCall(span, "browser_snapshot", `{}`, "x"+strings.Repeat("ж", 1000))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	for _, kv := range spans[0].Attributes {
		if kv.Key == "tool.output" {
			out := kv.Value.AsString()
			assert.True(t, utf8.ValidString(out))
			assert.Len(t, out, 999)
			return
		}
	}
	t.Fatal("tool.output attribute missing")
}
