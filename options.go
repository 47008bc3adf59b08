package hybrid

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-hybrid/pkg/telemetry"
)

type Option func(*options)

type options struct {
	ctx    context.Context
	logger *slog.Logger
	tracer trace.Tracer
	prefix string
}

func makeOptions(maybeOptions []Option) options {
	o := options{
		ctx:    context.Background(),
		logger: slog.Default(),
		tracer: telemetry.Tracer(),
		prefix: "system",
	}
	for _, option := range maybeOptions {
		option(&o)
	}
	return o
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithContext parents the composition spans. Composition itself never blocks.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithNamePrefix sets the prefix of the names Fold gives to intermediate systems.
func WithNamePrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}
