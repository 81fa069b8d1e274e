package dynarmic

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/wnxd/dynarmic/emulator"
	"github.com/wnxd/dynarmic/emulator/arm"
	"github.com/wnxd/dynarmic/emulator/arm64"
	"github.com/wnxd/dynarmic/trace"
)

const (
	MaxRegIndex64 = 30
	MaxRegIndex32 = 15
)

func (d *Dynarmic) maxIndex() int {
	if d.is64 {
		return MaxRegIndex64
	}
	return MaxRegIndex32
}

func (d *Dynarmic) checkIndex(op string, index int) error {
	if limit := d.maxIndex(); index < 0 || index > limit {
		return &ArgumentError{Op: op, Name: "index", Value: index, Reason: fmt.Sprintf("out of range [0,%d]", limit)}
	}
	return nil
}

func (d *Dynarmic) checkValue(op, name string, value uint64) error {
	if !d.is64 && value > math.MaxUint32 {
		return &ArgumentError{Op: op, Name: name, Value: fmt.Sprintf("%#x", value), Reason: "exceeds 32 bits"}
	}
	return nil
}

// WriteRegister writes general-purpose register index: X0..X30 in 64-bit
// mode, R0..R15 in 32-bit mode. An index outside that range is rejected
// with an *ArgumentError before the engine is called.
func (d *Dynarmic) WriteRegister(index int, value uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = d.checkIndex("WriteRegister", index); err != nil {
		return err
	} else if err = d.checkValue("WriteRegister", "value", value); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call("WriteRegister", trace.Int("index", index), trace.Hex("value", value))
	}
	if ret := d.engine.RegWrite(d.handle, index, value); ret != 0 {
		return engineError("WriteRegister", ErrRegisterWrite, ret, trace.Int("index", index), trace.Hex("value", value))
	}
	return nil
}

func (d *Dynarmic) ReadRegister(index int) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return 0, err
	} else if err = d.checkIndex("ReadRegister", index); err != nil {
		return 0, err
	}
	value, ret := d.engine.RegRead(d.handle, index)
	if ret != 0 {
		return 0, engineError("ReadRegister", ErrRegisterRead, ret, trace.Int("index", index))
	}
	return value, nil
}

func (d *Dynarmic) SetStackPointer(value uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = d.checkValue("SetStackPointer", "value", value); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call("SetStackPointer", trace.Hex("value", value))
	}
	if ret := d.engine.RegSetSP(d.handle, value); ret != 0 {
		return engineError("SetStackPointer", ErrRegisterWrite, ret, trace.Hex("value", value))
	}
	return nil
}

func (d *Dynarmic) StackPointer() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return 0, err
	}
	value, ret := d.engine.RegGetSP(d.handle)
	if ret != 0 {
		return 0, engineError("StackPointer", ErrRegisterRead, ret)
	}
	return value, nil
}

func (d *Dynarmic) SetPC(value uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = d.checkValue("SetPC", "value", value); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call("SetPC", trace.Hex("value", value))
	}
	if ret := d.engine.RegSetPC(d.handle, value); ret != 0 {
		return engineError("SetPC", ErrRegisterWrite, ret, trace.Hex("value", value))
	}
	return nil
}

func (d *Dynarmic) PC() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return 0, err
	}
	value, ret := d.engine.RegGetPC(d.handle)
	if ret != 0 {
		return 0, engineError("PC", ErrRegisterRead, ret)
	}
	return value, nil
}

type regKind int

const (
	regGeneral regKind = iota
	regSP
	regPC
)

// resolve maps an architecture register id onto the engine's entry points.
func (d *Dynarmic) resolve(reg emulator.Reg) (regKind, int, error) {
	if d.is64 {
		switch reg {
		case arm64.ARM64_REG_SP:
			return regSP, 0, nil
		case arm64.ARM64_REG_PC:
			return regPC, 0, nil
		}
		if i, ok := arm64.Index(reg); ok {
			return regGeneral, i, nil
		}
		return 0, 0, emulator.ErrArchMismatch
	}
	switch reg {
	case arm.ARM_REG_SP:
		return regSP, 0, nil
	case arm.ARM_REG_PC:
		return regPC, 0, nil
	}
	if i, ok := arm.Index(reg); ok {
		return regGeneral, i, nil
	}
	return 0, 0, emulator.ErrArchMismatch
}

func (d *Dynarmic) RegRead(reg emulator.Reg) (uint64, error) {
	kind, index, err := d.resolve(reg)
	if err != nil {
		return 0, err
	}
	switch kind {
	case regSP:
		return d.StackPointer()
	case regPC:
		return d.PC()
	}
	return d.ReadRegister(index)
}

func (d *Dynarmic) RegWrite(reg emulator.Reg, value uint64) error {
	kind, index, err := d.resolve(reg)
	if err != nil {
		return err
	}
	switch kind {
	case regSP:
		return d.SetStackPointer(value)
	case regPC:
		return d.SetPC(value)
	}
	return d.WriteRegister(index, value)
}

func (d *Dynarmic) RegReadPtr(reg emulator.Reg, ptr unsafe.Pointer) error {
	value, err := d.RegRead(reg)
	if err != nil {
		return err
	}
	if d.is64 {
		*(*uint64)(ptr) = value
	} else {
		*(*uint32)(ptr) = uint32(value)
	}
	return nil
}

func (d *Dynarmic) RegWritePtr(reg emulator.Reg, ptr unsafe.Pointer) error {
	if d.is64 {
		return d.RegWrite(reg, *(*uint64)(ptr))
	}
	return d.RegWrite(reg, uint64(*(*uint32)(ptr)))
}

func (d *Dynarmic) RegReadBatch(regs ...emulator.Reg) ([]uint64, error) {
	vals := make([]uint64, len(regs))
	for i, reg := range regs {
		value, err := d.RegRead(reg)
		if err != nil {
			return nil, err
		}
		vals[i] = value
	}
	return vals, nil
}

func (d *Dynarmic) RegWriteBatch(regs []emulator.Reg, vals []uint64) error {
	if len(regs) != len(vals) {
		return &ArgumentError{Op: "RegWriteBatch", Name: "vals", Value: len(vals), Reason: fmt.Sprintf("want %d values", len(regs))}
	}
	for i, reg := range regs {
		if err := d.RegWrite(reg, vals[i]); err != nil {
			return err
		}
	}
	return nil
}
