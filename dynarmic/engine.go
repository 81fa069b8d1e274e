package dynarmic

import "github.com/wnxd/dynarmic/emulator"

// Engine is the set of native entry points a binary translation backend
// exports. Handles are opaque; zero means allocation failed. Every int result
// is a status where zero is success and anything else is engine defined.
//
// Load runs before every context is created. An engine does its one-time
// setup on the first call and returns that result from every later call.
type Engine interface {
	Load() error
	PageSize() uint64
	Initialize(is64Bit bool) uintptr
	Destroy(handle uintptr)

	MemMap(handle uintptr, addr, size uint64, perms int) int
	MemUnmap(handle uintptr, addr, size uint64) int
	MemProtect(handle uintptr, addr, size uint64, perms int) int
	MemRegions(handle uintptr) ([]emulator.MemRegion, int)
	MemRead(handle uintptr, addr uint64, buf []byte) int
	MemWrite(handle uintptr, addr uint64, data []byte) int

	RegSetSP(handle uintptr, value uint64) int
	RegGetSP(handle uintptr) (uint64, int)
	RegSetPC(handle uintptr, value uint64) int
	RegGetPC(handle uintptr) (uint64, int)
	RegWrite(handle uintptr, index int, value uint64) int
	RegRead(handle uintptr, index int) (uint64, int)

	Run(handle uintptr, begin, until, count uint64) int
	Stop(handle uintptr) int
}
