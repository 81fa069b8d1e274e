package soft

import "errors"

// Status codes returned by every engine entry point. Zero is success.
const (
	StatusOK = iota
	StatusInvalid
	StatusOverlap
	StatusUnmapped
	StatusNoMemory
	StatusHandle
	StatusRegister
	StatusProtection
	StatusFetch
	StatusUnsupported
	StatusExecFault
)

var (
	ErrUnmapped   = errors.New("memory unmapped")
	ErrProtection = errors.New("memory protection violation")
)

func statusOf(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnmapped):
		return StatusUnmapped
	case errors.Is(err, ErrProtection):
		return StatusProtection
	}
	return StatusExecFault
}
