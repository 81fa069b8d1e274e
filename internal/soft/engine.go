// Package soft is an in-process engine implementing the native entry points
// of the dynarmic binding. It owns handles, register files and guest address
// spaces; instruction semantics come from an optional Executor.
package soft

import (
	"fmt"
	"sync"

	"github.com/wnxd/dynarmic/emulator"
)

const PageSize = 0x1000

type Engine struct {
	pageSize uint64
	exec     Executor
	loadOnce sync.Once
	loadErr  error
	mu       sync.Mutex
	next     uintptr
	cpus     map[uintptr]*cpu
}

type Option func(*Engine)

func WithExecutor(exec Executor) Option {
	return func(e *Engine) {
		e.exec = exec
	}
}

func WithPageSize(size uint64) Option {
	return func(e *Engine) {
		e.pageSize = size
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		pageSize: PageSize,
		cpus:     make(map[uintptr]*cpu),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load validates the configuration once; later calls return the first result.
func (e *Engine) Load() error {
	e.loadOnce.Do(func() {
		if e.pageSize == 0 || e.pageSize&(e.pageSize-1) != 0 {
			e.loadErr = fmt.Errorf("soft: page size %#x is not a power of two", e.pageSize)
		}
	})
	return e.loadErr
}

func (e *Engine) PageSize() uint64 {
	return e.pageSize
}

func (e *Engine) Initialize(is64Bit bool) uintptr {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.cpus[e.next] = newCPU(is64Bit, e.pageSize, e.exec)
	return e.next
}

func (e *Engine) Destroy(handle uintptr) {
	e.mu.Lock()
	c, ok := e.cpus[handle]
	delete(e.cpus, handle)
	e.mu.Unlock()
	if !ok {
		return
	}
	c.stop.Store(true)
	c.mu.Lock()
	c.space.release()
	c.mu.Unlock()
}

// Live reports the number of handles not yet destroyed.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cpus)
}

func (e *Engine) lookup(handle uintptr) *cpu {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cpus[handle]
}

// with runs fn on the cpu behind handle while holding its lock.
func (e *Engine) with(handle uintptr, fn func(c *cpu) int) int {
	c := e.lookup(handle)
	if c == nil {
		return StatusHandle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c)
}

func (e *Engine) MemMap(handle uintptr, addr, size uint64, perms int) int {
	return e.with(handle, func(c *cpu) int {
		return c.space.mapRange(addr, size, emulator.MemProt(perms))
	})
}

func (e *Engine) MemUnmap(handle uintptr, addr, size uint64) int {
	return e.with(handle, func(c *cpu) int {
		return c.space.unmapRange(addr, size)
	})
}

func (e *Engine) MemProtect(handle uintptr, addr, size uint64, perms int) int {
	return e.with(handle, func(c *cpu) int {
		return c.space.protectRange(addr, size, emulator.MemProt(perms))
	})
}

func (e *Engine) MemRegions(handle uintptr) (regions []emulator.MemRegion, status int) {
	status = e.with(handle, func(c *cpu) int {
		regions = c.space.list()
		return StatusOK
	})
	return
}

func (e *Engine) MemRead(handle uintptr, addr uint64, buf []byte) int {
	return e.with(handle, func(c *cpu) int {
		return statusOf(c.space.read(addr, buf, emulator.MEM_PROT_NONE))
	})
}

func (e *Engine) MemWrite(handle uintptr, addr uint64, data []byte) int {
	return e.with(handle, func(c *cpu) int {
		return statusOf(c.space.write(addr, data, emulator.MEM_PROT_NONE))
	})
}

func (e *Engine) RegSetSP(handle uintptr, value uint64) int {
	return e.with(handle, func(c *cpu) int {
		if !c.fits(value) {
			return StatusInvalid
		}
		c.SetSP(value)
		return StatusOK
	})
}

func (e *Engine) RegGetSP(handle uintptr) (value uint64, status int) {
	status = e.with(handle, func(c *cpu) int {
		value = c.SP()
		return StatusOK
	})
	return
}

func (e *Engine) RegSetPC(handle uintptr, value uint64) int {
	return e.with(handle, func(c *cpu) int {
		if !c.fits(value) {
			return StatusInvalid
		}
		c.SetPC(value)
		return StatusOK
	})
}

func (e *Engine) RegGetPC(handle uintptr) (value uint64, status int) {
	status = e.with(handle, func(c *cpu) int {
		value = c.PC()
		return StatusOK
	})
	return
}

func (e *Engine) RegWrite(handle uintptr, index int, value uint64) int {
	return e.with(handle, func(c *cpu) int {
		if index < 0 || index >= c.regCount() {
			return StatusRegister
		} else if !c.fits(value) {
			return StatusInvalid
		}
		c.SetReg(index, value)
		return StatusOK
	})
}

func (e *Engine) RegRead(handle uintptr, index int) (value uint64, status int) {
	status = e.with(handle, func(c *cpu) int {
		if index < 0 || index >= c.regCount() {
			return StatusRegister
		}
		value = c.Reg(index)
		return StatusOK
	})
	return
}

func (e *Engine) Run(handle uintptr, begin, until, count uint64) int {
	return e.with(handle, func(c *cpu) int {
		if !c.fits(begin) {
			return StatusInvalid
		}
		return c.run(begin, until, count)
	})
}

// Stop asks a running slice to return at the next instruction boundary. It
// does not wait for the cpu lock.
func (e *Engine) Stop(handle uintptr) int {
	c := e.lookup(handle)
	if c == nil {
		return StatusHandle
	}
	c.stop.Store(true)
	return StatusOK
}
