package dynarmic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wnxd/dynarmic/trace"
)

var (
	ErrEngineLoad      = errors.New("engine load failed")
	ErrAllocation      = errors.New("context allocation failed")
	ErrMemoryMap       = errors.New("memory map failed")
	ErrMemoryUnmap     = errors.New("memory unmap failed")
	ErrMemoryProtect   = errors.New("memory protect failed")
	ErrMemoryRead      = errors.New("memory read failed")
	ErrMemoryWrite     = errors.New("memory write failed")
	ErrRegisterWrite   = errors.New("register write failed")
	ErrRegisterRead    = errors.New("register read failed")
	ErrRun             = errors.New("run failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUninitialized   = errors.New("context uninitialized")
	ErrClosed          = errors.New("context closed")
)

// Error is a non-zero status returned by the engine. Kind is one of the
// Err* sentinels and is what errors.Is matches against.
type Error struct {
	Op     string
	Kind   error
	Status int
	Fields []trace.Field
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("dynarmic: ")
	b.WriteString(e.Op)
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (ret=%d)", e.Status)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ArgumentError reports a call rejected before it reached the engine.
type ArgumentError struct {
	Op     string
	Name   string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("dynarmic: %s %s=%v: %s", e.Op, e.Name, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func engineError(op string, kind error, status int, fields ...trace.Field) error {
	return &Error{Op: op, Kind: kind, Status: status, Fields: fields}
}
