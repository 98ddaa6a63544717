package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gui-agent/internal/application/port/output"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const flushTimeout = 5 * time.Second

type Config struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

func DefaultConfig(endpoint string) Config {
	return Config{
		Enabled:        true,
		Endpoint:       endpoint,
		ServiceName:    "gui-agent",
		ServiceVersion: "0.1.0",
		Environment:    "development",
	}
}

type state int

const (
	stateUninitialized state = iota
	stateInitialized
	stateShutdown
)

// Bootstrap owns the tracer provider. Init moves it from uninitialized to
// initialized exactly once; later calls are no-ops. Until then, and whenever
// tracing is disabled, Tracer hands out no-op tracers.
type Bootstrap struct {
	mu       sync.Mutex
	state    state
	provider *sdktrace.TracerProvider
	exporter sdktrace.SpanExporter
	logger   output.LoggerPort
}

type Option func(*Bootstrap)

// WithExporter replaces the OTLP/HTTP exporter.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(b *Bootstrap) { b.exporter = exp }
}

func NewBootstrap(logger output.LoggerPort, opts ...Option) *Bootstrap {
	b := &Bootstrap{logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bootstrap) Init(ctx context.Context, cfg Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateUninitialized {
		b.logger.Debug("Tracing already initialized")
		return nil
	}

	if !cfg.Enabled {
		b.state = stateInitialized
		b.logger.Info("Tracing disabled")
		return nil
	}

	exporter := b.exporter
	if exporter == nil {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return fmt.Errorf("create OTLP trace exporter: %w", err)
		}
		exporter = exp
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create otel resource: %w", err)
	}

	// Spans are exported synchronously so short CLI runs lose nothing.
	b.provider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	b.state = stateInitialized

	b.logger.Info("Tracing initialized", "endpoint", cfg.Endpoint, "service", cfg.ServiceName)
	return nil
}

// Enabled reports whether spans are actually being exported.
func (b *Bootstrap) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateInitialized && b.provider != nil
}

func (b *Bootstrap) Tracer(name string) trace.Tracer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateInitialized || b.provider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return b.provider.Tracer(name)
}

func (b *Bootstrap) Flush(ctx context.Context) error {
	b.mu.Lock()
	provider := b.provider
	b.mu.Unlock()
	if provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := provider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flush spans: %w", err)
	}
	return nil
}

func (b *Bootstrap) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateInitialized {
		return nil
	}
	b.state = stateShutdown
	if b.provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := b.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	b.logger.Info("Tracing shut down")
	return nil
}
