package arm

import "github.com/wnxd/dynarmic/emulator"

const (
	ARM_REG_R0 emulator.Reg = iota
	ARM_REG_R1
	ARM_REG_R2
	ARM_REG_R3
	ARM_REG_R4
	ARM_REG_R5
	ARM_REG_R6
	ARM_REG_R7
	ARM_REG_R8
	ARM_REG_R9
	ARM_REG_R10
	ARM_REG_R11
	ARM_REG_R12
	ARM_REG_R13
	ARM_REG_R14
	ARM_REG_R15

	ARM_REG_SP = ARM_REG_R13
	ARM_REG_LR = ARM_REG_R14
	ARM_REG_PC = ARM_REG_R15
)

// Index returns the register number of reg, or false outside the arm namespace.
func Index(reg emulator.Reg) (int, bool) {
	if reg >= ARM_REG_R0 && reg <= ARM_REG_R15 {
		return int(reg - ARM_REG_R0), true
	}
	return 0, false
}
