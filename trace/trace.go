// Package trace carries call tracing out of the binding. A Sink receives the
// name of every mutating engine call together with its parameters; the zap
// and logrus adapters emit them at debug level.
package trace

import "strconv"

type Kind int

const (
	KindHex Kind = iota
	KindBin
	KindDec
	KindUint
	KindBool
)

type Field struct {
	Key   string
	Kind  Kind
	Value uint64
}

type Sink interface {
	// Enabled reports whether Call would record anything. Callers use it to
	// skip building fields.
	Enabled() bool
	Call(op string, fields ...Field)
}

func Hex(key string, v uint64) Field {
	return Field{Key: key, Kind: KindHex, Value: v}
}

func Bin(key string, v uint64) Field {
	return Field{Key: key, Kind: KindBin, Value: v}
}

func Int(key string, v int) Field {
	return Field{Key: key, Kind: KindDec, Value: uint64(int64(v))}
}

func Uint(key string, v uint64) Field {
	return Field{Key: key, Kind: KindUint, Value: v}
}

func Bool(key string, v bool) Field {
	f := Field{Key: key, Kind: KindBool}
	if v {
		f.Value = 1
	}
	return f
}

// String renders the value the way the engine's debug log does: 0x-prefixed
// hex for addresses and values, 0b-prefixed binary for permission bits.
func (f Field) String() string {
	switch f.Kind {
	case KindHex:
		return "0x" + strconv.FormatUint(f.Value, 16)
	case KindBin:
		return "0b" + strconv.FormatUint(f.Value, 2)
	case KindUint:
		return strconv.FormatUint(f.Value, 10)
	case KindBool:
		return strconv.FormatBool(f.Value != 0)
	}
	return strconv.FormatInt(int64(f.Value), 10)
}

type nop struct{}

// Nop discards everything.
var Nop Sink = nop{}

func (nop) Enabled() bool { return false }
func (nop) Call(string, ...Field) {}
