package asmproc

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

// Peephole rewrites p.Code in place per spec.md §4.3's rule table, running
// full sweeps over the instruction list until one makes no change. Each
// rule consumes its matched instructions by setting their opcode to
// OpAsmPruned rather than removing them, so instruction indices (and the
// label map built from them) stay stable. Returns whether anything changed.
func Peephole(p *Proc) bool {
	changedOverall := false
	for {
		sweepChanged := false
		for i := range p.Code {
			for applyPeepholeAt(p, i) {
				sweepChanged = true
			}
		}
		if !sweepChanged {
			break
		}
		changedOverall = true
	}
	return changedOverall
}

func instAt(p *Proc, i int) (Inst, bool) {
	if i < 0 || i >= len(p.Code) {
		return Inst{}, false
	}
	return p.Code[i], true
}

func sameMem(a, b Inst) bool {
	return asm6502.OpMode(a.Op) == asm6502.OpMode(b.Op) && a.Arg == b.Arg
}

func memMode(m asm6502.Mode) bool { return m == asm6502.ZeroPage || m == asm6502.Absolute }

// applyPeepholeAt tries every rule at window position i (a = Code[i], b =
// Code[i+1], c = Code[i+2], each possibly absent at the end of the proc),
// applies the first match, and reports whether it changed anything. The
// window is not label-aware: labels occupy a slot like any instruction, so
// the RTS-label-RTS rule can see one, while every other rule's direct
// opcode/operand equality checks simply fail to fire across one.
func applyPeepholeAt(p *Proc, i int) bool {
	a, ok := instAt(p, i)
	if !ok || a.Op == asm6502.OpAsmPruned {
		return false
	}
	b, hasB := instAt(p, i+1)
	c, hasC := instAt(p, i+2)

	if hasB && peepRMWFuse(p, i, a, b) {
		return true
	}
	if hasB && peepALR(p, i, a, b) {
		return true
	}
	if hasB && peepANC(p, i, a, b) {
		return true
	}
	if hasB && hasC && peepInPlaceRMW(p, i, a, b, c) {
		return true
	}
	if hasB && peepPrepareALR(p, i, a, b) {
		return true
	}
	if hasB && peepLAX(p, i, a, b) {
		return true
	}
	if hasB && peepTransfer(p, i, a, b) {
		return true
	}
	if hasB && hasC && peepRTSLabelRTS(p, i, a, b, c) {
		return true
	}
	return false
}

// peepRMWFuse handles the six "read-modify-write then combine" rules:
// DEC/CMP -> DCP, INC/SBC -> ISC, ROL/AND -> RLA, ROR/ADC -> RRA,
// ASL/ORA -> SLO, LSR/EOR -> SRE.
func peepRMWFuse(p *Proc, i int, a, b Inst) bool {
	rules := []struct {
		rmw, combine, illegal asm6502.Name
	}{
		{asm6502.DEC, asm6502.CMP, asm6502.DCP},
		{asm6502.INC, asm6502.SBC, asm6502.ISC},
		{asm6502.ROL, asm6502.AND, asm6502.RLA},
		{asm6502.ROR, asm6502.ADC, asm6502.RRA},
		{asm6502.ASL, asm6502.ORA, asm6502.SLO},
		{asm6502.LSR, asm6502.EOR, asm6502.SRE},
	}
	if !memMode(asm6502.OpMode(a.Op)) {
		return false
	}
	for _, r := range rules {
		if asm6502.OpName(a.Op) != r.rmw || asm6502.OpName(b.Op) != r.combine {
			continue
		}
		if !sameMem(a, b) {
			continue
		}
		op, ok := asm6502.GetOp(r.illegal, asm6502.OpMode(a.Op))
		if !ok {
			continue
		}
		p.Code[i].Op = op
		p.Code[i+1].Op = asm6502.OpAsmPruned
		return true
	}
	return false
}

// peepALR handles "AND #imm; LSR A -> ALR #imm".
func peepALR(p *Proc, i int, a, b Inst) bool {
	if asm6502.OpName(a.Op) != asm6502.AND || asm6502.OpMode(a.Op) != asm6502.Immediate {
		return false
	}
	if asm6502.OpName(b.Op) != asm6502.LSR || asm6502.OpMode(b.Op) != asm6502.Accumulator {
		return false
	}
	p.Code[i].Op = asm6502.MustGetOp(asm6502.ALR, asm6502.Immediate)
	p.Code[i+1].Op = asm6502.OpAsmPruned
	return true
}

// peepANC handles "ALR #1; ROL A -> ANC #imm" (only when the ALR's
// immediate argument is the constant 1 — the only value for which the
// carry-in to ROL can't affect the observable result, which is what makes
// the AND-then-broadcast-to-carry trick of ANC equivalent).
func peepANC(p *Proc, i int, a, b Inst) bool {
	if asm6502.OpName(a.Op) != asm6502.ALR || a.Arg != locator.ConstByte(1) {
		return false
	}
	if asm6502.OpName(b.Op) != asm6502.ROL || asm6502.OpMode(b.Op) != asm6502.Accumulator {
		return false
	}
	p.Code[i].Op = asm6502.MustGetOp(asm6502.ANC, asm6502.Immediate)
	p.Code[i+1].Op = asm6502.OpAsmPruned
	return true
}

// peepInPlaceRMW handles "LDr m; OPr; STr m -> OP m; LDr m" for r in
// {X,Y} with OP in {INX/DEX, INY/DEY}, and "LDA m; OP A; STA m -> OP m;
// LDA m" for OP in {ASL,LSR,ROL,ROR} on the accumulator.
func peepInPlaceRMW(p *Proc, i int, a, b, c Inst) bool {
	type regRule struct {
		load, reg, store, rmw asm6502.Name
	}
	regRules := []regRule{
		{asm6502.LDX, asm6502.INX, asm6502.STX, asm6502.INC},
		{asm6502.LDX, asm6502.DEX, asm6502.STX, asm6502.DEC},
		{asm6502.LDY, asm6502.INY, asm6502.STY, asm6502.INC},
		{asm6502.LDY, asm6502.DEY, asm6502.STY, asm6502.DEC},
	}
	for _, r := range regRules {
		if asm6502.OpName(a.Op) != r.load || asm6502.OpName(b.Op) != r.reg || asm6502.OpName(c.Op) != r.store {
			continue
		}
		if a.Arg != c.Arg || !memMode(asm6502.OpMode(a.Op)) {
			continue
		}
		op, ok := asm6502.GetOp(r.rmw, asm6502.OpMode(a.Op))
		if !ok {
			continue
		}
		p.Code[i+1].Op = a.Op
		p.Code[i+1].Arg = a.Arg
		p.Code[i].Op = op
		p.Code[i+2].Op = asm6502.OpAsmPruned
		return true
	}

	accRules := []asm6502.Name{asm6502.ASL, asm6502.LSR, asm6502.ROL, asm6502.ROR}
	for _, rmw := range accRules {
		if asm6502.OpName(a.Op) != asm6502.LDA || !memMode(asm6502.OpMode(a.Op)) {
			continue
		}
		if asm6502.OpName(b.Op) != rmw || asm6502.OpMode(b.Op) != asm6502.Accumulator {
			continue
		}
		if asm6502.OpName(c.Op) != asm6502.STA || a.Arg != c.Arg {
			continue
		}
		op, ok := asm6502.GetOp(rmw, asm6502.OpMode(a.Op))
		if !ok {
			continue
		}
		p.Code[i+1].Op = a.Op
		p.Code[i+1].Arg = a.Arg
		p.Code[i].Op = op
		p.Code[i+2].Op = asm6502.OpAsmPruned
		return true
	}
	return false
}

// peepPrepareALR handles "LDA #imm; AND m -> LDA m; AND #imm", a swap that
// does nothing by itself but opens the window for peepALR to fire on the
// next sweep.
func peepPrepareALR(p *Proc, i int, a, b Inst) bool {
	if asm6502.OpName(a.Op) != asm6502.LDA || asm6502.OpMode(a.Op) != asm6502.Immediate {
		return false
	}
	if asm6502.OpName(b.Op) != asm6502.AND || asm6502.OpMode(b.Op) == asm6502.Immediate {
		return false
	}
	ldaOp, ok := asm6502.GetOp(asm6502.LDA, asm6502.OpMode(b.Op))
	if !ok {
		return false
	}
	andImm := asm6502.MustGetOp(asm6502.AND, asm6502.Immediate)
	oldArg := a.Arg
	p.Code[i].Op = ldaOp
	p.Code[i].Arg = b.Arg
	p.Code[i+1].Op = andImm
	p.Code[i+1].Arg = oldArg
	return true
}

// peepLAX handles the special-cased "LDA m; LDX m -> LAX m", strictly
// better than the generic transfer rule since it folds both loads into a
// single memory read.
func peepLAX(p *Proc, i int, a, b Inst) bool {
	if asm6502.OpName(a.Op) != asm6502.LDA || asm6502.OpName(b.Op) != asm6502.LDX {
		return false
	}
	if !sameMem(a, b) || !memMode(asm6502.OpMode(a.Op)) {
		return false
	}
	op, ok := asm6502.GetOp(asm6502.LAX, asm6502.OpMode(a.Op))
	if !ok {
		return false
	}
	p.Code[i].Op = op
	p.Code[i+1].Op = asm6502.OpAsmPruned
	return true
}

// transferName returns the 6502 transfer opcode name moving src's register
// into dst's, or false if no such instruction exists (only combinations
// touching the accumulator are wired on real hardware).
func transferName(src, dst asm6502.Name) (asm6502.Name, bool) {
	switch {
	case src == asm6502.LDA && dst == asm6502.LDX:
		return asm6502.TAX, true
	case src == asm6502.LDA && dst == asm6502.LDY:
		return asm6502.TAY, true
	case src == asm6502.LDX && dst == asm6502.LDA:
		return asm6502.TXA, true
	case src == asm6502.LDY && dst == asm6502.LDA:
		return asm6502.TYA, true
	default:
		return asm6502.NameNone, false
	}
}

// peepTransfer handles "LDx m; LDy m -> LDx m; Tyx" and
// "STx m; LDy m -> STx m; Tyx" for register pairs that have a direct
// transfer instruction.
func peepTransfer(p *Proc, i int, a, b Inst) bool {
	loadNames := map[asm6502.Name]asm6502.Name{asm6502.LDA: asm6502.STA, asm6502.LDX: asm6502.STX, asm6502.LDY: asm6502.STY}
	isLoad := func(n asm6502.Name) bool { _, ok := loadNames[n]; return ok }
	isStoreOf := func(store, load asm6502.Name) bool { return loadNames[load] == store }

	aName, bName := asm6502.OpName(a.Op), asm6502.OpName(b.Op)
	if !isLoad(bName) || !memMode(asm6502.OpMode(b.Op)) || a.Arg != b.Arg {
		return false
	}

	var src asm6502.Name
	switch {
	case isLoad(aName) && aName != bName:
		src = aName
	case isStoreOf(aName, asm6502.LDA) && bName != asm6502.LDA:
		src = asm6502.LDA
	case isStoreOf(aName, asm6502.LDX) && bName != asm6502.LDX:
		src = asm6502.LDX
	case isStoreOf(aName, asm6502.LDY) && bName != asm6502.LDY:
		src = asm6502.LDY
	default:
		return false
	}
	if src == bName {
		return false
	}
	tName, ok := transferName(src, bName)
	if !ok {
		return false
	}
	p.Code[i+1].Op = asm6502.MustGetOp(tName, asm6502.Implied)
	p.Code[i+1].Arg = locator.None()
	return true
}

// peepRTSLabelRTS handles "RTS ; label: ; RTS -> (prune leading RTS)", the
// one rule whose window spans a label.
func peepRTSLabelRTS(p *Proc, i int, a, b, c Inst) bool {
	if asm6502.OpName(a.Op) != asm6502.RTS {
		return false
	}
	if b.Op != asm6502.OpAsmLabel {
		return false
	}
	if asm6502.OpName(c.Op) != asm6502.RTS {
		return false
	}
	p.Code[i].Op = asm6502.OpAsmPruned
	return true
}
