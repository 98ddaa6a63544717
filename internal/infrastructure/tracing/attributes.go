package tracing

import (
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxAttributeLen = 1000

func AgentAttributes(agentName, sessionID, task string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("agent.name", agentName)}
	if sessionID != "" {
		attrs = append(attrs, attribute.String("agent.session_id", sessionID))
	}
	if task != "" {
		attrs = append(attrs, attribute.String("agent.task", task))
	}
	return attrs
}

func ResultAttributes(finalAnswer string, iterations int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("agent.output", truncate(finalAnswer, maxAttributeLen)),
		attribute.Int("agent.iterations", iterations),
	}
}

// RecordToolCall annotates span with a tool call. Output is cut to 1000
// characters.
func RecordToolCall(span trace.Span, toolName, input, output string) {
	span.SetAttributes(
		attribute.String("tool.name", toolName),
		attribute.String("tool.input", input),
	)
	if output != "" {
		span.SetAttributes(attribute.String("tool.output", truncate(output, maxAttributeLen)))
	}
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
