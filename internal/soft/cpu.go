package soft

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/wnxd/dynarmic/emulator"
)

const (
	arm64Regs = 31
	armRegs   = 16
	armSP     = 13
	armPC     = 15
)

// Machine is the guest state an Executor operates on while a slice runs.
// Load and Store honour guest permissions.
type Machine interface {
	Is64Bit() bool
	Reg(index int) uint64
	SetReg(index int, value uint64)
	SP() uint64
	SetSP(value uint64)
	Load(addr uint64, buf []byte) error
	Store(addr uint64, data []byte) error
}

// Executor supplies instruction semantics. Step executes the 32-bit word
// fetched at pc and returns the address of the next instruction.
type Executor interface {
	Step(m Machine, pc uint64, insn uint32) (next uint64, err error)
}

type cpu struct {
	mu    sync.Mutex
	is64  bool
	regs  [arm64Regs]uint64
	sp    uint64
	pc    uint64
	space space
	exec  Executor
	stop  atomic.Bool
}

func newCPU(is64Bit bool, pageSize uint64, exec Executor) *cpu {
	c := &cpu{is64: is64Bit, exec: exec}
	c.space.pageSize = pageSize
	if !is64Bit {
		c.space.limit = 1 << 32
	}
	return c
}

func (c *cpu) regCount() int {
	if c.is64 {
		return arm64Regs
	}
	return armRegs
}

func (c *cpu) Is64Bit() bool {
	return c.is64
}

func (c *cpu) Reg(index int) uint64 {
	if index < 0 || index >= c.regCount() {
		return 0
	}
	return c.regs[index]
}

func (c *cpu) SetReg(index int, value uint64) {
	if index < 0 || index >= c.regCount() {
		return
	}
	if !c.is64 {
		value = uint64(uint32(value))
	}
	c.regs[index] = value
}

func (c *cpu) SP() uint64 {
	if c.is64 {
		return c.sp
	}
	return c.regs[armSP]
}

func (c *cpu) SetSP(value uint64) {
	if c.is64 {
		c.sp = value
	} else {
		c.regs[armSP] = uint64(uint32(value))
	}
}

func (c *cpu) PC() uint64 {
	if c.is64 {
		return c.pc
	}
	return c.regs[armPC]
}

func (c *cpu) SetPC(value uint64) {
	if c.is64 {
		c.pc = value
	} else {
		c.regs[armPC] = uint64(uint32(value))
	}
}

func (c *cpu) Load(addr uint64, buf []byte) error {
	return c.space.read(addr, buf, emulator.MEM_PROT_READ)
}

func (c *cpu) Store(addr uint64, data []byte) error {
	return c.space.write(addr, data, emulator.MEM_PROT_WRITE)
}

func (c *cpu) fits(value uint64) bool {
	return c.is64 || value <= math.MaxUint32
}

func (c *cpu) run(begin, until, count uint64) int {
	if c.exec == nil {
		return StatusUnsupported
	}
	c.stop.Store(false)
	c.SetPC(begin)
	var word [4]byte
	for n := uint64(0); count == 0 || n < count; n++ {
		if c.stop.Load() {
			break
		}
		pc := c.PC()
		if pc == until {
			break
		}
		if err := c.space.read(pc, word[:], emulator.MEM_PROT_EXEC); err != nil {
			return StatusFetch
		}
		next, err := c.exec.Step(c, pc, binary.LittleEndian.Uint32(word[:]))
		if err != nil {
			return statusOf(err)
		}
		c.SetPC(next)
	}
	return StatusOK
}
