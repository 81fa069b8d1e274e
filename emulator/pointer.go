package emulator

import (
	"reflect"
	"slices"
	"unsafe"

	"github.com/modern-go/reflect2"
)

type Uintptr32 = uint32
type Uintptr64 = uint64

type Pointer struct {
	emu  Emulator
	addr uint64
}

func ToPointer(emu Emulator, addr uint64) Pointer {
	return Pointer{emu, addr}
}

func (p Pointer) IsNil() bool {
	return p.addr == 0
}

func (p Pointer) Address() uint64 {
	return p.addr
}

func (p Pointer) Add(offset uint64) Pointer {
	return Pointer{p.emu, p.addr + offset}
}

func (p Pointer) Sub(offset uint64) Pointer {
	return Pointer{p.emu, p.addr - offset}
}

func (p Pointer) MemRead(size uint64) ([]byte, error) {
	return p.emu.MemRead(p.addr, size)
}

func (p Pointer) MemWrite(data []byte) error {
	return p.emu.MemWrite(p.addr, data)
}

func (p Pointer) MemReadPtr(size uint64, ptr unsafe.Pointer) error {
	return p.emu.MemReadPtr(p.addr, size, ptr)
}

func (p Pointer) MemWritePtr(size uint64, ptr unsafe.Pointer) error {
	return p.emu.MemWritePtr(p.addr, size, ptr)
}

func (p Pointer) MemReadString() (string, error) {
	var data []byte
	var buf [0x10]byte
	size := uint64(len(buf))
	for begin := p.addr; ; begin += size {
		err := p.emu.MemReadPtr(begin, size, unsafe.Pointer(unsafe.SliceData(buf[:])))
		if err != nil {
			return "", err
		}
		i := slices.Index(buf[:], 0)
		if i == -1 {
			data = append(data, buf[:]...)
		} else {
			data = append(data, buf[:i]...)
			break
		}
	}
	return string(data), nil
}

func (p Pointer) MemReadPointer() (ptr Pointer, err error) {
	size := p.emu.Arch().PointerSize()
	if size == 0 {
		err = ErrArchUnsupported
		return
	}
	var addr uint64
	err = p.MemReadPtr(size, unsafe.Pointer(&addr))
	if err != nil {
		return
	}
	ptr.emu, ptr.addr = p.emu, addr
	return
}

// Load copies guest memory into the value val points to. The pointee must be
// a fixed-size value without Go pointers (integers, floats, arrays and
// structs of those).
func (p Pointer) Load(val any) error {
	ptr, size, err := rawValue(val)
	if err != nil {
		return err
	}
	return p.emu.MemReadPtr(p.addr, size, ptr)
}

// Store copies the value val points to into guest memory. See Load.
func (p Pointer) Store(val any) error {
	ptr, size, err := rawValue(val)
	if err != nil {
		return err
	}
	return p.emu.MemWritePtr(p.addr, size, ptr)
}

// ReadAt reads guest memory at p+off. The read is all or nothing, so n is
// either len(b) or zero.
func (p Pointer) ReadAt(b []byte, off int64) (n int, err error) {
	if err = p.emu.MemReadPtr(p.addr+uint64(off), uint64(len(b)), unsafe.Pointer(unsafe.SliceData(b))); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p Pointer) WriteAt(b []byte, off int64) (n int, err error) {
	if err = p.emu.MemWritePtr(p.addr+uint64(off), uint64(len(b)), unsafe.Pointer(unsafe.SliceData(b))); err != nil {
		return 0, err
	}
	return len(b), nil
}

func rawValue(val any) (unsafe.Pointer, uint64, error) {
	typ, ok := reflect2.TypeOf(val).(reflect2.PtrType)
	if !ok || reflect2.IsNil(val) {
		return nil, 0, ErrArgumentInvalid
	}
	elem := typ.Elem().Type1()
	if !plain(elem) {
		return nil, 0, ErrArgumentInvalid
	}
	return reflect2.PtrOf(val), uint64(elem.Size()), nil
}

func plain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return plain(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !plain(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}
