package emulator

type Arch int

const (
	ARCH_UNKNOWN Arch = iota
	ARCH_ARM
	ARCH_ARM64
)

func (a Arch) PointerSize() uint64 {
	switch a {
	case ARCH_ARM:
		return 4
	case ARCH_ARM64:
		return 8
	}
	return 0
}

func (a Arch) String() string {
	switch a {
	case ARCH_ARM:
		return "arm"
	case ARCH_ARM64:
		return "arm64"
	}
	return "unknown"
}
