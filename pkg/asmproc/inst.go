// Package asmproc implements the machine-code procedure representation
// described in spec.md §4.3: an instruction list supporting peephole
// rewriting, branch-range fix-up, absolute→zero-page promotion, pseudo-op
// expansion, relocation, and final byte emission. Grounded on
// original_source/src/asm_proc.cpp.
package asmproc

import (
	"fmt"

	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
	"github.com/00mjk/nesfab/pkg/ssa"
)

// Inst is one instruction slot: an opcode plus its up-to-two operand
// locators (Arg is the operand; absolute operands derive their low/high
// bytes from Arg via WithIs(IsPtrLo/IsPtrHi). Alt is a second, independent
// locator carried only by pseudo-ops and their expansions, such as
// BANKED_Y_JSR/JMP's trampoline entry). SSAOp
// records which SSA operation lowered to this instruction, carried only
// for diagnostics/verification, mirroring asm_inst_t::ssa_op.
type Inst struct {
	Op    asm6502.OpCode
	Arg   locator.Locator
	Alt   locator.Locator
	SSAOp ssa.OpCode
}

// IsReturn reports whether inst ends a procedure's control flow the way
// spec.md's is_return does: an explicit return opcode, or a jump whose
// target isn't a label this proc owns (a tail-call-style jump) that also
// isn't a switch dispatch.
func IsReturn(inst Inst) bool {
	f := asm6502.OpFlags(inst.Op)
	if f&asm6502.FlagReturn != 0 {
		return true
	}
	if f&asm6502.FlagJump != 0 && f&asm6502.FlagSwitch == 0 {
		return inst.Arg.Class() != locator.ClassMinorLabel && inst.Arg.Class() != locator.ClassCFGLabel
	}
	return false
}

func (inst Inst) String() string {
	return fmt.Sprintf("{ %s, %v alt: %v }", asm6502.Mnemonic(inst.Op), inst.Arg, inst.Alt)
}
