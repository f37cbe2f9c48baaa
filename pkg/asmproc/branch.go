package asmproc

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

// ConvertLongBranchOps promotes relative branches whose displacement
// overflows a signed byte to the Long pseudo-mode (which for_each_locator
// expands into an inverted short branch over an absolute JMP), and demotes
// Long branches that now fit back to Relative. Offsets are recomputed after
// every promotion/demotion since a mode change shifts every later label;
// the pass runs to fixpoint.
func ConvertLongBranchOps(p *Proc) bool {
	changed := false
	for {
		p.BuildLabelOffsets()
		offset := 0
		roundChanged := false
		for i := range p.Code {
			inst := p.Code[i]
			size := int(asm6502.OpSize(inst.Op))
			if asm6502.IsBranch(inst.Op) {
				if info, ok := p.lookupLabel(inst.Arg); ok {
					dist := info.Offset - (offset + size)
					switch {
					case asm6502.IsRelativeBranch(inst.Op) && (dist < -128 || dist > 127):
						p.Code[i].Op = asm6502.MustGetOp(asm6502.OpName(inst.Op), asm6502.Long)
						size = int(asm6502.OpSize(p.Code[i].Op))
						roundChanged = true
					case asm6502.IsLongBranch(inst.Op) && dist >= -128 && dist <= 127:
						p.Code[i].Op = asm6502.MustGetOp(asm6502.OpName(inst.Op), asm6502.Relative)
						size = int(asm6502.OpSize(p.Code[i].Op))
						roundChanged = true
					}
				}
			}
			offset += size
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}

// instBytes returns the concrete bytes inst would emit, or ok=false if any
// operand byte depends on a locator not yet resolvable to a static value —
// the only case OptimizeShortJumps's gap analysis needs to see through.
func instBytes(inst Inst) ([]byte, bool) {
	op := asm6502.OpByte(inst.Op)
	switch asm6502.OpMode(inst.Op) {
	case asm6502.Implied, asm6502.Accumulator:
		return []byte{op}, true
	case asm6502.Immediate, asm6502.ZeroPage, asm6502.ZeroPageX, asm6502.ZeroPageY,
		asm6502.Relative, asm6502.IndirectX, asm6502.IndirectY:
		b, ok := constByte(inst.Arg)
		if !ok {
			return nil, false
		}
		return []byte{op, b}, true
	case asm6502.Absolute, asm6502.AbsoluteX, asm6502.AbsoluteY, asm6502.Indirect:
		addr, ok := constAddr(inst.Arg)
		if !ok {
			return nil, false
		}
		return []byte{op, byte(addr), byte(addr >> 8)}, true
	default:
		return nil, false
	}
}

func constByte(l locator.Locator) (byte, bool) {
	if l.Is() != locator.IsNone || !l.IsConst() {
		return 0, false
	}
	return byte(l.Data()), true
}

func constAddr(l locator.Locator) (uint16, bool) {
	if l.Is() != locator.IsNone || l.Class() != locator.ClassAddr {
		return 0, false
	}
	return uint16(l.Data()), true
}

// gapBytes walks forward from instruction index start, concatenating whole
// instructions' static byte encodings until exactly distance bytes have
// accumulated. It fails (ok=false) if that total is unreachable exactly, a
// label sits in the gap, or any instruction's bytes aren't statically
// known — in every failure case the caller must leave the jump as-is.
func gapBytes(p *Proc, start, distance int) (consumed []int, bytes []byte, ok bool) {
	idx := start
	for len(bytes) < distance {
		if idx >= len(p.Code) {
			return nil, nil, false
		}
		inst := p.Code[idx]
		if inst.Op == asm6502.OpAsmLabel {
			return nil, nil, false
		}
		ib, ok := instBytes(inst)
		if !ok {
			return nil, nil, false
		}
		consumed = append(consumed, idx)
		bytes = append(bytes, ib...)
		idx++
	}
	if len(bytes) != distance {
		return nil, nil, false
	}
	return consumed, bytes, true
}

// unsafeIgnoreHighByte reports whether an IGN's absolute-address high byte
// falls in the $20-$42 page range spec.md flags as a hardware-register read
// risk (PPU/APU/controller registers at $2000-$4017 and neighbors).
func unsafeIgnoreHighByte(hi byte) bool { return hi >= 0x20 && hi <= 0x42 }

// tryElideJump prunes an unconditional JMP whose target is the next
// instruction, or replaces it with SKB/IGN (consuming the now-dead gap
// bytes as a dummy operand) when the gap is 1 or 2 bytes and, for IGN,
// provably doesn't read a hardware register.
func tryElideJump(p *Proc, i, offset, size int, useNops bool) bool {
	inst := p.Code[i]
	info, ok := p.lookupLabel(inst.Arg)
	if !ok {
		return false
	}
	dist := info.Offset - (offset + size)
	if dist == 0 {
		p.Code[i].Op = asm6502.OpAsmPruned
		return true
	}
	if !useNops || dist < 1 || dist > 2 {
		return false
	}
	consumed, bytes, ok := gapBytes(p, i+1, dist)
	if !ok {
		return false
	}
	if dist == 2 && unsafeIgnoreHighByte(bytes[1]) {
		return false
	}
	if dist == 1 {
		p.Code[i].Op = asm6502.MustGetOp(asm6502.SKB, asm6502.Implied)
	} else {
		p.Code[i].Op = asm6502.MustGetOp(asm6502.IGN, asm6502.Implied)
	}
	p.Code[i].Arg = locator.None()
	for _, idx := range consumed {
		p.Code[idx].Op = asm6502.OpAsmPruned
	}
	return true
}

// tryCollapseInverseBranch drops a conditional branch that jumps exactly
// over the following branch when that following branch is the logical
// inverse — the pair is equivalent to the second branch alone.
func tryCollapseInverseBranch(p *Proc, i, offset, size int) bool {
	inst := p.Code[i]
	info, ok := p.lookupLabel(inst.Arg)
	if !ok {
		return false
	}
	if info.Offset-(offset+size) != 2 {
		return false
	}
	j := i + 1
	if j >= len(p.Code) {
		return false
	}
	next := p.Code[j]
	if !asm6502.IsRelativeBranch(next.Op) {
		return false
	}
	if asm6502.OpName(next.Op) != asm6502.InvertBranch(asm6502.OpName(inst.Op)) {
		return false
	}
	p.Code[i].Op = asm6502.OpAsmPruned
	return true
}

// OptimizeShortJumps elides unconditional jumps over dead bytes and
// collapses inverse-matching branch pairs, to fixpoint. useNops gates the
// SKB/IGN substitution (enabled once link-time behavior no longer needs
// the NOP-free form initial_optimize produces).
func OptimizeShortJumps(p *Proc, useNops bool) bool {
	changed := false
	for {
		p.BuildLabelOffsets()
		offset := 0
		roundChanged := false
		for i := range p.Code {
			inst := p.Code[i]
			size := int(asm6502.OpSize(inst.Op))
			switch {
			case asm6502.OpName(inst.Op) == asm6502.JMP && asm6502.OpMode(inst.Op) == asm6502.Absolute:
				if tryElideJump(p, i, offset, size, useNops) {
					roundChanged = true
				}
			case asm6502.IsRelativeBranch(inst.Op):
				if tryCollapseInverseBranch(p, i, offset, size) {
					roundChanged = true
				}
			}
			offset += size
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}
