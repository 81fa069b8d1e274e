//go:build unix

package soft

import (
	"math"

	"golang.org/x/sys/unix"
)

func alloc(size uint64) ([]byte, error) {
	if size > math.MaxInt {
		return nil, unix.ENOMEM
	}
	return unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func free(mem []byte) {
	unix.Munmap(mem)
}
