// Package dynarmic binds a binary translation engine as a virtual CPU
// context: one guest register file plus one guest address space, driven by
// the host between execution slices.
//
// A Dynarmic is created Live by New and must be closed exactly once. Its
// methods serialize on an internal lock, except Stop which may be called
// while Run is in progress.
package dynarmic

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/wnxd/dynarmic/emulator"
	"github.com/wnxd/dynarmic/trace"
)

type state int

const (
	stateUninitialized state = iota
	stateLive
	stateClosed
)

type Dynarmic struct {
	mu     sync.Mutex
	stopMu sync.RWMutex
	engine Engine
	tracer trace.Sink
	handle uintptr
	state  state
	is64   bool
}

var _ emulator.Emulator = (*Dynarmic)(nil)

// New allocates a context in 64-bit (AArch64) or 32-bit (AArch32) mode. The
// mode is fixed for the context's lifetime.
func New(is64Bit bool, opts ...Option) (*Dynarmic, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		e, err := Load()
		if err != nil {
			return nil, err
		}
		cfg.engine = e
	} else if err := loadEngine(cfg.engine); err != nil {
		return nil, err
	}
	if cfg.tracer == nil {
		cfg.tracer = trace.Zap(Logger())
	}
	if cfg.tracer.Enabled() {
		cfg.tracer.Call("Initialize", trace.Bool("is64Bit", is64Bit))
	}
	handle := cfg.engine.Initialize(is64Bit)
	if handle == 0 {
		return nil, engineError("Initialize", ErrAllocation, 0, trace.Bool("is64Bit", is64Bit))
	}
	return &Dynarmic{
		engine: cfg.engine,
		tracer: cfg.tracer,
		handle: handle,
		state:  stateLive,
		is64:   is64Bit,
	}, nil
}

// With runs fn on a fresh context and closes it on every exit path, panics
// included. A close failure is joined to fn's error.
func With(is64Bit bool, fn func(*Dynarmic) error, opts ...Option) (err error) {
	d, err := New(is64Bit, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(d)
}

// Close releases the engine handle. Only the first call reaches the engine;
// later calls return ErrClosed.
func (d *Dynarmic) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	}
	d.stopMu.Lock()
	handle := d.handle
	d.handle = 0
	d.state = stateClosed
	d.stopMu.Unlock()
	if d.tracer.Enabled() {
		d.tracer.Call("Close")
	}
	d.engine.Destroy(handle)
	return nil
}

func (d *Dynarmic) live() error {
	switch d.state {
	case stateUninitialized:
		return ErrUninitialized
	case stateClosed:
		return ErrClosed
	}
	return nil
}

func (d *Dynarmic) Is64Bit() bool {
	return d.is64
}

func (d *Dynarmic) Arch() emulator.Arch {
	if d.is64 {
		return emulator.ARCH_ARM64
	}
	return emulator.ARCH_ARM
}

func (d *Dynarmic) ByteOrder() emulator.ByteOrder {
	return emulator.BO_LITTLE_ENDIAN
}

func (d *Dynarmic) PageSize() uint64 {
	if d.engine == nil {
		return 0
	}
	return d.engine.PageSize()
}

func memFields(addr, size uint64, prot emulator.MemProt) []trace.Field {
	return []trace.Field{trace.Hex("address", addr), trace.Hex("size", size), trace.Bin("perms", uint64(prot))}
}

// MemMap maps [addr, addr+size) with prot. The range must be page aligned
// and must not overlap an existing mapping; on failure nothing is mapped.
func (d *Dynarmic) MemMap(addr, size uint64, prot emulator.MemProt) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if !prot.Valid() {
		return &ArgumentError{Op: "MemMap", Name: "perms", Value: prot, Reason: "unknown permission bits"}
	}
	if d.tracer.Enabled() {
		d.tracer.Call("MemMap", memFields(addr, size, prot)...)
	}
	if ret := d.engine.MemMap(d.handle, addr, size, int(prot)); ret != 0 {
		return engineError("MemMap", ErrMemoryMap, ret, memFields(addr, size, prot)...)
	}
	return nil
}

// MemUnmap removes [addr, addr+size), which must be entirely mapped. Parts
// of larger mappings may be removed.
func (d *Dynarmic) MemUnmap(addr, size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call("MemUnmap", trace.Hex("address", addr), trace.Hex("size", size))
	}
	if ret := d.engine.MemUnmap(d.handle, addr, size); ret != 0 {
		return engineError("MemUnmap", ErrMemoryUnmap, ret, trace.Hex("address", addr), trace.Hex("size", size))
	}
	return nil
}

// MemProtect changes the permissions of a mapped range. Contents are kept.
func (d *Dynarmic) MemProtect(addr, size uint64, prot emulator.MemProt) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if !prot.Valid() {
		return &ArgumentError{Op: "MemProtect", Name: "perms", Value: prot, Reason: "unknown permission bits"}
	}
	if d.tracer.Enabled() {
		d.tracer.Call("MemProtect", memFields(addr, size, prot)...)
	}
	if ret := d.engine.MemProtect(d.handle, addr, size, int(prot)); ret != 0 {
		return engineError("MemProtect", ErrMemoryProtect, ret, memFields(addr, size, prot)...)
	}
	return nil
}

func (d *Dynarmic) MemRegions() ([]emulator.MemRegion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return nil, err
	}
	regions, ret := d.engine.MemRegions(d.handle)
	if ret != 0 {
		return nil, engineError("MemRegions", ErrMemoryRead, ret)
	}
	return regions, nil
}

// MemRead returns size bytes at addr. The range must be mapped; it is checked
// before the buffer is allocated.
func (d *Dynarmic) MemRead(addr, size uint64) ([]byte, error) {
	var data []byte
	err := d.memRead("MemRead", addr, size, func() ([]byte, error) {
		if !covered(d.engine, d.handle, addr, size) {
			return nil, engineError("MemRead", ErrMemoryRead, 0, trace.Hex("address", addr), trace.Hex("size", size))
		}
		data = make([]byte, size)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (d *Dynarmic) MemReadPtr(addr, size uint64, ptr unsafe.Pointer) error {
	return d.memRead("MemReadPtr", addr, size, func() ([]byte, error) {
		return unsafe.Slice((*byte)(ptr), size), nil
	})
}

func (d *Dynarmic) MemWrite(addr uint64, data []byte) error {
	return d.memWrite("MemWrite", addr, uint64(len(data)), func() []byte {
		return data
	})
}

func (d *Dynarmic) MemWritePtr(addr, size uint64, ptr unsafe.Pointer) error {
	return d.memWrite("MemWritePtr", addr, size, func() []byte {
		return unsafe.Slice((*byte)(ptr), size)
	})
}

// ToPointer returns a guest pointer bound to this context.
func (d *Dynarmic) ToPointer(addr uint64) emulator.Pointer {
	return emulator.ToPointer(d, addr)
}

func checkSpan(op string, addr, size uint64) error {
	if size > math.MaxInt {
		return &ArgumentError{Op: op, Name: "size", Value: fmt.Sprintf("%#x", size), Reason: "exceeds host address space"}
	} else if size != 0 && addr+size < addr {
		return &ArgumentError{Op: op, Name: "size", Value: fmt.Sprintf("%#x", size), Reason: fmt.Sprintf("wraps past end of address space at %#x", addr)}
	}
	return nil
}

// covered reports whether [addr, addr+size) lies entirely inside mapped
// regions.
func covered(e Engine, handle uintptr, addr, size uint64) bool {
	regions, ret := e.MemRegions(handle)
	if ret != 0 {
		return false
	}
	cur, end := addr, addr+size
	for _, r := range regions {
		if cur >= end {
			break
		} else if r.End() <= cur {
			continue
		} else if r.Addr > cur {
			return false
		}
		cur = r.End()
	}
	return cur >= end
}

// memRead checks the context and the range, then asks buf for the
// destination. buf runs under the context lock.
func (d *Dynarmic) memRead(op string, addr, size uint64, buf func() ([]byte, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = checkSpan(op, addr, size); err != nil {
		return err
	}
	b, err := buf()
	if err != nil {
		return err
	}
	if ret := d.engine.MemRead(d.handle, addr, b); ret != 0 {
		return engineError(op, ErrMemoryRead, ret, trace.Hex("address", addr), trace.Hex("size", size))
	}
	return nil
}

func (d *Dynarmic) memWrite(op string, addr, size uint64, data func() []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = checkSpan(op, addr, size); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call(op, trace.Hex("address", addr), trace.Hex("size", size))
	}
	if ret := d.engine.MemWrite(d.handle, addr, data()); ret != 0 {
		return engineError(op, ErrMemoryWrite, ret, trace.Hex("address", addr), trace.Hex("size", size))
	}
	return nil
}
