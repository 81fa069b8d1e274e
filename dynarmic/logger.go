package dynarmic

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nopLog = zap.NewNop()
)

// Logger returns the package logger. It is a no-op logger unless SetLogger
// was called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLog
}

// SetLogger replaces the package logger used by contexts created without
// WithTracer or WithLogger. Contexts already created keep their logger. A nil
// l restores the no-op logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
