package emulator

import "fmt"

type ByteOrder int

const (
	BO_LITTLE_ENDIAN ByteOrder = iota
	BO_BIG_ENDIAN
)

type MemProt int

const (
	MEM_PROT_NONE MemProt = 0
	MEM_PROT_READ MemProt = 1 << (iota - 1)
	MEM_PROT_WRITE
	MEM_PROT_EXEC

	MEM_PROT_ALL = MEM_PROT_READ | MEM_PROT_WRITE | MEM_PROT_EXEC
)

// Valid reports whether prot only carries read, write and execute bits.
func (p MemProt) Valid() bool {
	return p&^MEM_PROT_ALL == 0
}

func (p MemProt) String() string {
	var s [3]byte
	for i, c := range [3]struct {
		bit MemProt
		ch  byte
	}{{MEM_PROT_READ, 'r'}, {MEM_PROT_WRITE, 'w'}, {MEM_PROT_EXEC, 'x'}} {
		if p&c.bit != 0 {
			s[i] = c.ch
		} else {
			s[i] = '-'
		}
	}
	return string(s[:])
}

type MemRegion struct {
	Addr, Size uint64
	Prot       MemProt
}

func (r MemRegion) End() uint64 {
	return r.Addr + r.Size
}

func (r MemRegion) Contains(addr uint64) bool {
	return addr >= r.Addr && addr < r.End()
}

func (r MemRegion) String() string {
	return fmt.Sprintf("%016X-%016X %s", r.Addr, r.End(), r.Prot)
}
