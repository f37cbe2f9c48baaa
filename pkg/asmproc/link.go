package asmproc

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/diag"
	"github.com/00mjk/nesfab/pkg/locator"
)

// Link resolves every instruction's operand locators via r (a ROM variant's
// resolver) and bank, then re-runs the optimize pipeline with NOP insertion
// allowed — unless this proc is inline assembly (FnID == 0), whose bytes
// are the user's own and must not be rewritten.
func (p *Proc) Link(r locator.Resolver, bank int) {
	for i, inst := range p.Code {
		p.Code[i].Arg = locator.Link(inst.Arg, r, bank)
		p.Code[i].Alt = locator.Link(inst.Alt, r, bank)
	}
	if p.FnID != 0 {
		Optimize(p, true)
	}
	p.BuildLabelOffsets()
}

// Relocate rewrites every branch and jump targeting a label this proc owns
// into its final form now that the proc's first byte sits at base: relative
// branches become a signed-byte displacement, long branches and absolute
// jumps/calls become a concrete address. Returns a *diag.RelocateError if
// any relative branch's displacement overflows the signed-byte range.
func (p *Proc) Relocate(base int) error {
	p.BuildLabelOffsets()
	offset := 0
	for i, inst := range p.Code {
		size := int(asm6502.OpSize(inst.Op))
		info, ok := p.lookupLabel(inst.Arg)
		if ok {
			switch {
			case asm6502.IsRelativeBranch(inst.Op):
				dist := info.Offset - (offset + size)
				if dist < -128 || dist > 127 {
					return &diag.RelocateError{Locator: inst.Arg, Distance: dist}
				}
				p.Code[i].Arg = locator.ConstByte(uint8(int8(dist)))
			case asm6502.IsLongBranch(inst.Op), asm6502.OpFlags(inst.Op)&asm6502.FlagJump != 0:
				p.Code[i].Arg = locator.Addr(uint32(base + info.Offset))
			}
		}
		offset += size
	}
	return nil
}

// storeFlagExpansion is the fixed trampoline for STORE_C/STORE_Z/STORE_N:
// push processor status, reconstruct the single flag bit being stored into
// A via a bit trick, then store it. target selects which status bit
// (0x01 carry, 0x02 zero, 0x80 negative) the trick isolates.
func storeFlagExpansion(target locator.Locator, bit byte) []Inst {
	insts := []Inst{
		{Op: asm6502.MustGetOp(asm6502.PHP, asm6502.Implied)},
		{Op: asm6502.MustGetOp(asm6502.PLA, asm6502.Implied)},
	}
	switch bit {
	case 0x01: // carry: isolate bit 0 directly.
		insts = append(insts,
			Inst{Op: asm6502.MustGetOp(asm6502.AND, asm6502.Immediate), Arg: locator.ConstByte(0x01)},
		)
	case 0x02: // zero: isolate bit 1, normalize to 0/1 via one right shift.
		insts = append(insts,
			Inst{Op: asm6502.MustGetOp(asm6502.AND, asm6502.Immediate), Arg: locator.ConstByte(0x02)},
			Inst{Op: asm6502.MustGetOp(asm6502.LSR, asm6502.Accumulator)},
		)
	case 0x80: // negative: isolate the sign bit via shift-in-carry, then reload via ROL trick.
		insts = append(insts,
			Inst{Op: asm6502.MustGetOp(asm6502.ASL, asm6502.Accumulator)},
			Inst{Op: asm6502.MustGetOp(asm6502.LDA, asm6502.Immediate), Arg: locator.ConstByte(0)},
			Inst{Op: asm6502.MustGetOp(asm6502.ROL, asm6502.Accumulator)},
		)
	}
	insts = append(insts, Inst{Op: asm6502.MustGetOp(asm6502.STA, asm6502.Absolute), Arg: target})
	return insts
}

// bankedTrampolineExpansion expands BANKED_Y_JSR/JMP: load the 16-bit
// target into A:X (low byte in A, bank/high selector in X, matching the
// runtime trampoline's calling convention), then jump through it.
func bankedTrampolineExpansion(target locator.Locator, trampoline locator.Locator, isJSR bool) []Inst {
	lo := target.WithIs(locator.IsPtrLo)
	hi := target.WithIs(locator.IsPtrHi)
	bank := target.WithIs(locator.IsBank)
	insts := []Inst{
		{Op: asm6502.MustGetOp(asm6502.LDA, asm6502.Immediate), Arg: lo},
		{Op: asm6502.MustGetOp(asm6502.LDX, asm6502.Immediate), Arg: hi, Alt: bank},
	}
	jumpName := asm6502.JMP
	if isJSR {
		jumpName = asm6502.JSR
	}
	insts = append(insts, Inst{Op: asm6502.MustGetOp(jumpName, asm6502.Absolute), Arg: trampoline})
	return insts
}

// switchExpansion expands ASM_X_SWITCH/ASM_Y_SWITCH: load the high and low
// bytes of a jump-table entry addressed by the index register already
// loaded into X or Y (mode selects which), push them in return-address
// order, and RTS into the target (the "RTS trick").
func switchExpansion(table locator.Locator, mode asm6502.Mode) []Inst {
	return []Inst{
		{Op: asm6502.MustGetOp(asm6502.LDA, mode), Arg: table.WithIs(locator.IsPtrHi)},
		{Op: asm6502.MustGetOp(asm6502.PHA, asm6502.Implied)},
		{Op: asm6502.MustGetOp(asm6502.LDA, mode), Arg: table.WithIs(locator.IsPtrLo)},
		{Op: asm6502.MustGetOp(asm6502.PHA, asm6502.Implied)},
		{Op: asm6502.MustGetOp(asm6502.RTS, asm6502.Implied)},
	}
}

// ForEachInst calls fn once per real (non-pseudo) instruction, expanding
// STORE_C/Z/N, BANKED_Y_JSR/JMP, and ASM_X/Y_SWITCH pseudo-ops into their
// concrete instruction sequences. ASM_LABEL and ASM_PRUNED contribute
// nothing.
func (p *Proc) ForEachInst(fn func(Inst)) {
	for _, inst := range p.Code {
		switch inst.Op {
		case asm6502.OpAsmLabel, asm6502.OpAsmPruned:
			continue
		case asm6502.OpStoreC:
			for _, e := range storeFlagExpansion(inst.Arg, 0x01) {
				fn(e)
			}
		case asm6502.OpStoreZ:
			for _, e := range storeFlagExpansion(inst.Arg, 0x02) {
				fn(e)
			}
		case asm6502.OpStoreN:
			for _, e := range storeFlagExpansion(inst.Arg, 0x80) {
				fn(e)
			}
		case asm6502.OpBankedYJSR:
			for _, e := range bankedTrampolineExpansion(inst.Arg, inst.Alt, true) {
				fn(e)
			}
		case asm6502.OpBankedYJMP:
			for _, e := range bankedTrampolineExpansion(inst.Arg, inst.Alt, false) {
				fn(e)
			}
		case asm6502.OpAsmXSwitch:
			for _, e := range switchExpansion(inst.Arg, asm6502.AbsoluteX) {
				fn(e)
			}
		case asm6502.OpAsmYSwitch:
			for _, e := range switchExpansion(inst.Arg, asm6502.AbsoluteY) {
				fn(e)
			}
		default:
			fn(inst)
		}
	}
}

// ForEachLocator yields, for each real instruction, its opcode byte
// followed by its operand bytes in addressing-mode order. A long branch
// yields the inverted branch opcode, +3, the JMP opcode, then the 2-byte
// absolute target — the inverted-branch-over-JMP expansion MODE_LONG
// stands for. Implied/Accumulator instructions yield only the opcode.
func (p *Proc) ForEachLocator(fn func(locator.Locator)) {
	p.ForEachInst(func(inst Inst) {
		if asm6502.IsLongBranch(inst.Op) {
			invName := asm6502.InvertBranch(asm6502.OpName(inst.Op))
			fn(locator.ConstByte(asm6502.OpByte(asm6502.MustGetOp(invName, asm6502.Relative))))
			fn(locator.ConstByte(3))
			fn(locator.ConstByte(asm6502.OpByte(asm6502.MustGetOp(asm6502.JMP, asm6502.Absolute))))
			fn(inst.Arg.WithIs(locator.IsPtrLo))
			fn(inst.Arg.WithIs(locator.IsPtrHi))
			return
		}

		fn(locator.ConstByte(asm6502.OpByte(inst.Op)))
		switch asm6502.OpMode(inst.Op) {
		case asm6502.Implied, asm6502.Accumulator:
		case asm6502.Immediate, asm6502.ZeroPage, asm6502.ZeroPageX, asm6502.ZeroPageY,
			asm6502.Relative, asm6502.IndirectX, asm6502.IndirectY:
			fn(inst.Arg)
		case asm6502.Absolute, asm6502.AbsoluteX, asm6502.AbsoluteY, asm6502.Indirect:
			fn(inst.Arg.WithIs(locator.IsPtrLo))
			fn(inst.Arg.WithIs(locator.IsPtrHi))
		}
	})
}

// LocVec collects ForEachLocator's output into a slice, the form ROM array
// interning and byte emission both consume.
func (p *Proc) LocVec() []locator.Locator {
	var out []locator.Locator
	p.ForEachLocator(func(l locator.Locator) { out = append(out, l) })
	return out
}

// WriteBytes links every locator in LocVec to a concrete byte via
// locator.LinkedToROM and appends it to out, failing loudly (wrapping the
// first unresolved locator) rather than silently emitting a placeholder.
func (p *Proc) WriteBytes(out []byte) ([]byte, error) {
	var linkErr error
	p.ForEachLocator(func(l locator.Locator) {
		if linkErr != nil {
			return
		}
		v, err := locator.LinkedToROM(l, false)
		if err != nil {
			linkErr = err
			return
		}
		out = append(out, byte(v))
	})
	if linkErr != nil {
		return nil, linkErr
	}
	return out, nil
}
