package dynarmic

import (
	"go.uber.org/zap"

	"github.com/wnxd/dynarmic/trace"
)

type config struct {
	engine Engine
	tracer trace.Sink
}

type Option func(*config)

// WithEngine bypasses the process engine selected by Load.
func WithEngine(e Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

func WithTracer(s trace.Sink) Option {
	return func(c *config) {
		c.tracer = s
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.tracer = trace.Zap(l)
	}
}
