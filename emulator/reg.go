package emulator

// Reg identifies a register within an architecture-specific namespace.
// See the arm and arm64 subpackages.
type Reg int
