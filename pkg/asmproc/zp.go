package asmproc

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

// zpAddressable reports whether l names a byte known, independent of the
// final link pass, to live in the zero page — a concrete hardware/constant
// address under $100. The fuller "pinned zero page" classification
// original_source/src/locator.cpp's mem_zp_only derives from a locator's
// mods/type is out of scope here, matching pkg/locator's own decision to
// not model that system; this covers the directly-checkable case.
func zpAddressable(l locator.Locator) bool {
	if l.Is() != locator.IsNone {
		return false
	}
	switch l.Class() {
	case locator.ClassAddr, locator.ClassConstByte:
		return l.Data() < 0x100
	default:
		return false
	}
}

var zpCounterpart = map[asm6502.Mode]asm6502.Mode{
	asm6502.Absolute:  asm6502.ZeroPage,
	asm6502.AbsoluteX: asm6502.ZeroPageX,
	asm6502.AbsoluteY: asm6502.ZeroPageY,
}

// AbsoluteToZP rewrites every instruction whose operand is known to live in
// the zero page from an absolute addressing mode to its zero-page
// counterpart, when the opcode defines one. AbsoluteY has no zero-page
// counterpart for most opcodes (only LDX/STX use ZeroPageY), so GetOp's
// failure silently leaves those instructions as-is, matching the original's
// "when such a counterpart exists" carve-out.
func AbsoluteToZP(p *Proc) bool {
	changed := false
	for i, inst := range p.Code {
		zpMode, ok := zpCounterpart[asm6502.OpMode(inst.Op)]
		if !ok || !zpAddressable(inst.Arg) {
			continue
		}
		op, ok := asm6502.GetOp(asm6502.OpName(inst.Op), zpMode)
		if !ok {
			continue
		}
		p.Code[i].Op = op
		changed = true
	}
	return changed
}
