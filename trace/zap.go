package trace

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapSink struct {
	l *zap.Logger
}

// Zap returns a Sink writing debug entries to l.
func Zap(l *zap.Logger) Sink {
	if l == nil {
		return Nop
	}
	return zapSink{l.WithOptions(zap.AddCallerSkip(1))}
}

func (s zapSink) Enabled() bool {
	return s.l.Core().Enabled(zapcore.DebugLevel)
}

func (s zapSink) Call(op string, fields ...Field) {
	ce := s.l.Check(zapcore.DebugLevel, op)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = zap.String(f.Key, f.String())
	}
	ce.Write(zf...)
}
