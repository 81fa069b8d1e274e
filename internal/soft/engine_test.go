package soft

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// toy implements three instructions, op<<24 | rd<<16 | imm16:
// 1 adds imm to rd, 2 stores the low word of rd at sp, 3 branches back imm
// words. Anything else is undefined.
type toy struct {
	onStep func(pc uint64)
}

func enc(op, rd, imm uint32) uint32 {
	return op<<24 | rd<<16 | imm&0xFFFF
}

func (x *toy) Step(m Machine, pc uint64, insn uint32) (uint64, error) {
	if x.onStep != nil {
		x.onStep(pc)
	}
	op, rd, imm := insn>>24, int(insn>>16&0xFF), uint64(insn&0xFFFF)
	switch op {
	case 1:
		m.SetReg(rd, m.Reg(rd)+imm)
	case 2:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(m.Reg(rd)))
		if err := m.Store(m.SP(), b[:]); err != nil {
			return 0, err
		}
	case 3:
		return pc - imm*4, nil
	default:
		return 0, errors.New("undefined instruction")
	}
	return pc + 4, nil
}

func writeCode(t *testing.T, e *Engine, h uintptr, addr uint64, words ...uint32) {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	if st := e.MemWrite(h, addr, buf); st != StatusOK {
		t.Fatalf("MemWrite: status %d", st)
	}
}

func newHandle(t *testing.T, e *Engine, is64Bit bool) uintptr {
	t.Helper()
	if err := e.Load(); err != nil {
		t.Fatal(err)
	}
	h := e.Initialize(is64Bit)
	if h == 0 {
		t.Fatal("Initialize returned a zero handle")
	}
	t.Cleanup(func() { e.Destroy(h) })
	return h
}

func TestLoadRejectsPageSize(t *testing.T) {
	e := New(WithPageSize(0x1800))
	first := e.Load()
	if first == nil {
		t.Fatal("Load accepted a page size that is not a power of two")
	}
	if again := e.Load(); again != first {
		t.Fatalf("second Load = %v, want the first result %v", again, first)
	}
}

func TestHandles(t *testing.T) {
	e := New()
	a, b := e.Initialize(true), e.Initialize(false)
	if a == 0 || b == 0 || a == b {
		t.Fatalf("handles %d, %d", a, b)
	}
	if e.Live() != 2 {
		t.Fatalf("live = %d", e.Live())
	}
	e.Destroy(a)
	e.Destroy(a)
	if e.Live() != 1 {
		t.Fatalf("live = %d", e.Live())
	}
	mustStatus(t, e.MemMap(a, 0x1000, 0x1000, int(rw)), StatusHandle)
	mustStatus(t, e.RegWrite(a, 0, 1), StatusHandle)
	mustStatus(t, e.Stop(a), StatusHandle)
	if c := e.Initialize(true); c == a {
		t.Fatal("destroyed handle reused")
	}
}

func TestRegisters64(t *testing.T) {
	e := New()
	h := newHandle(t, e, true)
	for i := 0; i <= 30; i++ {
		mustStatus(t, e.RegWrite(h, i, uint64(i)<<40|0xFFFF), StatusOK)
	}
	for i := 0; i <= 30; i++ {
		v, st := e.RegRead(h, i)
		mustStatus(t, st, StatusOK)
		if want := uint64(i)<<40 | 0xFFFF; v != want {
			t.Fatalf("x%d = %#x, want %#x", i, v, want)
		}
	}
	mustStatus(t, e.RegWrite(h, 31, 0), StatusRegister)
	mustStatus(t, e.RegWrite(h, -1, 0), StatusRegister)
	mustStatus(t, e.RegSetSP(h, math.MaxUint64), StatusOK)
	if v, _ := e.RegGetSP(h); v != math.MaxUint64 {
		t.Fatalf("sp = %#x", v)
	}
}

func TestRegisters32(t *testing.T) {
	e := New()
	h := newHandle(t, e, false)
	mustStatus(t, e.RegWrite(h, 15, 0x1000), StatusOK)
	mustStatus(t, e.RegWrite(h, 16, 0), StatusRegister)
	mustStatus(t, e.RegWrite(h, 0, math.MaxUint32+1), StatusInvalid)
	mustStatus(t, e.RegSetSP(h, 0x7FFF0000), StatusOK)
	if v, _ := e.RegRead(h, armSP); v != 0x7FFF0000 {
		t.Fatalf("r13 = %#x, want sp", v)
	}
	if v, _ := e.RegGetPC(h); v != 0x1000 {
		t.Fatalf("pc = %#x, want r15", v)
	}
}

func TestRunUnsupported(t *testing.T) {
	e := New()
	h := newHandle(t, e, true)
	mustStatus(t, e.Run(h, 0x1000, 0x2000, 0), StatusUnsupported)
}

func TestRunSlices(t *testing.T) {
	e := New(WithExecutor(&toy{}))
	h := newHandle(t, e, true)
	mustStatus(t, e.MemMap(h, 0x10000, 0x1000, int(rx)), StatusOK)
	writeCode(t, e, h, 0x10000,
		enc(1, 0, 1),
		enc(1, 1, 2),
		enc(1, 0, 3),
	)
	mustStatus(t, e.Run(h, 0x10000, 0x1000C, 1), StatusOK)
	if pc, _ := e.RegGetPC(h); pc != 0x10004 {
		t.Fatalf("pc after one instruction = %#x", pc)
	}
	mustStatus(t, e.RegWrite(h, 0, 100), StatusOK)
	pc, _ := e.RegGetPC(h)
	mustStatus(t, e.Run(h, pc, 0x1000C, 0), StatusOK)
	x0, _ := e.RegRead(h, 0)
	x1, _ := e.RegRead(h, 1)
	if x0 != 103 || x1 != 2 {
		t.Fatalf("x0 = %d, x1 = %d", x0, x1)
	}
	if pc, _ := e.RegGetPC(h); pc != 0x1000C {
		t.Fatalf("pc = %#x, want until", pc)
	}
}

func TestRunFaults(t *testing.T) {
	e := New(WithExecutor(&toy{}))
	h := newHandle(t, e, true)
	mustStatus(t, e.MemMap(h, 0x10000, 0x1000, int(rw)), StatusOK)
	mustStatus(t, e.MemMap(h, 0x20000, 0x1000, int(rx)), StatusOK)
	mustStatus(t, e.MemMap(h, 0x30000, 0x1000, int(rx)), StatusOK)
	writeCode(t, e, h, 0x20000, enc(2, 0, 0))
	writeCode(t, e, h, 0x30000, 0xFF000000)

	mustStatus(t, e.Run(h, 0x10000, 0, 1), StatusFetch)
	mustStatus(t, e.Run(h, 0x40000, 0, 1), StatusFetch)

	mustStatus(t, e.RegSetSP(h, 0x30000), StatusOK)
	mustStatus(t, e.Run(h, 0x20000, 0, 1), StatusProtection)
	mustStatus(t, e.RegSetSP(h, 0x10000), StatusOK)
	mustStatus(t, e.RegWrite(h, 0, 0xCAFEBABE), StatusOK)
	mustStatus(t, e.Run(h, 0x20000, 0, 1), StatusOK)
	var b [4]byte
	mustStatus(t, e.MemRead(h, 0x10000, b[:]), StatusOK)
	if v := binary.LittleEndian.Uint32(b[:]); v != 0xCAFEBABE {
		t.Fatalf("stored %#x", v)
	}

	mustStatus(t, e.Run(h, 0x30000, 0, 1), StatusExecFault)
}

func TestStopFromStep(t *testing.T) {
	x := &toy{}
	e := New(WithExecutor(x))
	h := newHandle(t, e, true)
	mustStatus(t, e.MemMap(h, 0x10000, 0x1000, int(rx)), StatusOK)
	writeCode(t, e, h, 0x10000,
		enc(1, 0, 1),
		enc(3, 0, 1),
	)
	steps := 0
	x.onStep = func(uint64) {
		if steps++; steps == 10 {
			e.Stop(h)
		}
	}
	mustStatus(t, e.Run(h, 0x10000, 0, 0), StatusOK)
	if x0, _ := e.RegRead(h, 0); x0 != 5 {
		t.Fatalf("x0 = %d after 10 steps", x0)
	}
}
