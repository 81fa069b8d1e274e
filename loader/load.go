// Package loader places segments into a guest address space.
package loader

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/wnxd/dynarmic/emulator"
)

var ErrRegionInvalid = errors.New("region invalid")

// Load maps the pages covered by regions, copies their contents and then
// applies their final protection. Regions may share a page; a shared page
// gets the union of their protections. The returned regions describe the
// resulting protection layout. If any step fails, everything mapped so far
// is unmapped again and the error is returned.
func Load(emu emulator.Emulator, regions ...Region) (layout []emulator.MemRegion, err error) {
	for _, r := range regions {
		if r.Size == 0 || r.Length > r.Size || (r.Length != 0 && r.ReaderAt == nil) || r.Addr+r.Size < r.Addr {
			return nil, fmt.Errorf("%w: addr=%016X size=%d length=%d", ErrRegionInvalid, r.Addr, r.Size, r.Length)
		}
	}
	pageSize := emu.PageSize()
	spans := make([]emulator.MemRegion, len(regions))
	for i, r := range regions {
		addr, size := r.pages(pageSize)
		spans[i] = emulator.MemRegion{Addr: addr, Size: size, Prot: r.Prot}
	}
	slices.SortFunc(spans, func(a, b emulator.MemRegion) int {
		return cmp.Compare(a.Addr, b.Addr)
	})

	var mapped []emulator.MemRegion
	defer func() {
		if err == nil {
			return
		}
		for i := len(mapped) - 1; i >= 0; i-- {
			emu.MemUnmap(mapped[i].Addr, mapped[i].Size)
		}
		layout = nil
	}()
	for _, m := range merge(spans) {
		if err = emu.MemMap(m.Addr, m.Size, emulator.MEM_PROT_READ|emulator.MEM_PROT_WRITE); err != nil {
			return
		}
		mapped = append(mapped, m)
	}
	for _, r := range regions {
		if r.Length == 0 {
			continue
		}
		data := make([]byte, r.Length)
		if _, err = io.ReadFull(io.NewSectionReader(r.ReaderAt, 0, int64(r.Length)), data); err != nil {
			return
		}
		if err = emu.MemWrite(r.Addr, data); err != nil {
			return
		}
	}
	layout = protections(spans)
	for _, p := range layout {
		if err = emu.MemProtect(p.Addr, p.Size, p.Prot); err != nil {
			return
		}
	}
	return
}

// merge joins sorted page spans that share pages into single mappings.
func merge(spans []emulator.MemRegion) []emulator.MemRegion {
	var out []emulator.MemRegion
	for _, s := range spans {
		if n := len(out); n > 0 && s.Addr < out[n-1].End() {
			out[n-1].Size = max(out[n-1].End(), s.End()) - out[n-1].Addr
			continue
		}
		out = append(out, s)
	}
	return out
}

// protections cuts sorted page spans at every span edge and gives each piece
// the union of the protections covering it. Adjacent pieces with equal
// protection are joined.
func protections(spans []emulator.MemRegion) []emulator.MemRegion {
	bounds := make([]uint64, 0, 2*len(spans))
	for _, s := range spans {
		bounds = append(bounds, s.Addr, s.End())
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	var out []emulator.MemRegion
	for i := 0; i+1 < len(bounds); i++ {
		begin, end := bounds[i], bounds[i+1]
		var prot emulator.MemProt
		inside := false
		for _, s := range spans {
			if s.Addr <= begin && s.End() >= end {
				prot |= s.Prot
				inside = true
			}
		}
		if !inside {
			continue
		}
		if n := len(out); n > 0 && out[n-1].End() == begin && out[n-1].Prot == prot {
			out[n-1].Size += end - begin
			continue
		}
		out = append(out, emulator.MemRegion{Addr: begin, Size: end - begin, Prot: prot})
	}
	return out
}
