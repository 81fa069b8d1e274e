package soft

import (
	"slices"
	"sort"

	"github.com/wnxd/dynarmic/emulator"
)

type chunk struct {
	mem  []byte
	live uint64
}

type region struct {
	begin, end uint64
	prot       emulator.MemProt
	chunk      *chunk
	off        uint64
}

// space is a guest address space: regions sorted by begin, never overlapping.
type space struct {
	pageSize uint64
	limit    uint64
	regions  []region
}

func (s *space) checkRange(addr, size uint64) int {
	if size == 0 || !emulator.IsAligned(addr, s.pageSize) || !emulator.IsAligned(size, s.pageSize) {
		return StatusInvalid
	}
	end := addr + size
	if end <= addr || (s.limit != 0 && end > s.limit) {
		return StatusInvalid
	}
	return StatusOK
}

// search returns the index of the first region ending after addr.
func (s *space) search(addr uint64) int {
	return sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].end > addr
	})
}

func (s *space) covered(addr, end uint64) bool {
	cur := addr
	for i := s.search(addr); i < len(s.regions) && cur < end; i++ {
		if s.regions[i].begin > cur {
			return false
		}
		cur = s.regions[i].end
	}
	return cur >= end
}

// split cuts the region straddling at into two, so that at becomes a
// region boundary.
func (s *space) split(at uint64) {
	i := s.search(at)
	if i == len(s.regions) || s.regions[i].begin >= at {
		return
	}
	r := s.regions[i]
	head, tail := r, r
	head.end = at
	tail.begin = at
	tail.off += at - r.begin
	s.regions[i] = head
	s.regions = slices.Insert(s.regions, i+1, tail)
}

// span returns the index range of regions inside [addr, end), assuming both
// are region boundaries.
func (s *space) span(addr, end uint64) (int, int) {
	lo := s.search(addr)
	hi := lo
	for hi < len(s.regions) && s.regions[hi].begin < end {
		hi++
	}
	return lo, hi
}

func (s *space) mapRange(addr, size uint64, prot emulator.MemProt) int {
	if st := s.checkRange(addr, size); st != StatusOK {
		return st
	} else if !prot.Valid() {
		return StatusInvalid
	}
	end := addr + size
	i := s.search(addr)
	if i < len(s.regions) && s.regions[i].begin < end {
		return StatusOverlap
	}
	mem, err := alloc(size)
	if err != nil {
		return StatusNoMemory
	}
	s.regions = slices.Insert(s.regions, i, region{
		begin: addr,
		end:   end,
		prot:  prot,
		chunk: &chunk{mem: mem, live: size},
	})
	return StatusOK
}

func (s *space) unmapRange(addr, size uint64) int {
	if st := s.checkRange(addr, size); st != StatusOK {
		return st
	}
	end := addr + size
	if !s.covered(addr, end) {
		return StatusUnmapped
	}
	s.split(addr)
	s.split(end)
	lo, hi := s.span(addr, end)
	for _, r := range s.regions[lo:hi] {
		r.chunk.live -= r.end - r.begin
		if r.chunk.live == 0 {
			free(r.chunk.mem)
			r.chunk.mem = nil
		}
	}
	s.regions = slices.Delete(s.regions, lo, hi)
	return StatusOK
}

func (s *space) protectRange(addr, size uint64, prot emulator.MemProt) int {
	if st := s.checkRange(addr, size); st != StatusOK {
		return st
	} else if !prot.Valid() {
		return StatusInvalid
	}
	end := addr + size
	if !s.covered(addr, end) {
		return StatusUnmapped
	}
	s.split(addr)
	s.split(end)
	lo, hi := s.span(addr, end)
	for i := lo; i < hi; i++ {
		s.regions[i].prot = prot
	}
	return StatusOK
}

// access walks [addr, addr+n) region by region, requiring every byte to be
// mapped with at least need, and hands each backing slice to fn.
func (s *space) access(addr uint64, n int, need emulator.MemProt, fn func(mem []byte, done int)) error {
	if n == 0 {
		return nil
	}
	end := addr + uint64(n)
	if end <= addr {
		return ErrUnmapped
	}
	if !s.covered(addr, end) {
		return ErrUnmapped
	}
	for i := s.search(addr); i < len(s.regions) && s.regions[i].begin < end; i++ {
		if s.regions[i].prot&need != need {
			return ErrProtection
		}
	}
	cur := addr
	for i := s.search(addr); cur < end; i++ {
		r := s.regions[i]
		stop := min(r.end, end)
		off := r.off + (cur - r.begin)
		fn(r.chunk.mem[off:off+(stop-cur)], int(cur-addr))
		cur = stop
	}
	return nil
}

func (s *space) read(addr uint64, buf []byte, need emulator.MemProt) error {
	return s.access(addr, len(buf), need, func(mem []byte, done int) {
		copy(buf[done:], mem)
	})
}

func (s *space) write(addr uint64, data []byte, need emulator.MemProt) error {
	return s.access(addr, len(data), need, func(mem []byte, done int) {
		copy(mem, data[done:])
	})
}

func (s *space) list() []emulator.MemRegion {
	out := make([]emulator.MemRegion, len(s.regions))
	for i, r := range s.regions {
		out[i] = emulator.MemRegion{Addr: r.begin, Size: r.end - r.begin, Prot: r.prot}
	}
	return out
}

func (s *space) release() {
	for _, r := range s.regions {
		if r.chunk.mem != nil {
			free(r.chunk.mem)
			r.chunk.mem = nil
		}
	}
	s.regions = nil
}
