//go:build !unix

package soft

import (
	"errors"
	"math"
)

func alloc(size uint64) (mem []byte, err error) {
	if size > math.MaxInt {
		return nil, errors.New("out of memory")
	}
	defer func() {
		if recover() != nil {
			mem, err = nil, errors.New("out of memory")
		}
	}()
	return make([]byte, size), nil
}

func free([]byte) {}
