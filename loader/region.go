package loader

import (
	"io"

	"github.com/wnxd/dynarmic/emulator"
)

// Region is one loadable segment: Size bytes of guest memory at Addr, the
// first Length of which come from ReaderAt. The rest is zero filled.
type Region struct {
	Addr, Size uint64
	Length     uint64
	Prot       emulator.MemProt
	io.ReaderAt
}

func (r Region) pages(pageSize uint64) (uint64, uint64) {
	begin := emulator.AlignDown(r.Addr, pageSize)
	end := emulator.Align(r.Addr+r.Size, pageSize)
	return begin, end - begin
}
