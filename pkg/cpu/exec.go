package cpu

import (
	"fmt"

	"github.com/00mjk/nesfab/pkg/asm6502"
)

// ErrUnsupportedOp is returned by Exec for any opcode whose semantics
// require real control flow (branches, jumps, calls, returns) or whose
// pseudo-op expansion this straight-line model doesn't carry out. The
// equivalence checker only ever runs control-flow-free peephole windows
// through Exec, so this marks a caller bug, not a modeling gap.
type ErrUnsupportedOp struct{ Op asm6502.OpCode }

func (e ErrUnsupportedOp) Error() string {
	return fmt.Sprintf("cpu: %s has no straight-line execution semantics", asm6502.Mnemonic(e.Op))
}

func effAddr(s *State, mode asm6502.Mode, operand uint8) uint8 {
	switch mode {
	case asm6502.ZeroPageX, asm6502.AbsoluteX, asm6502.IndirectX:
		return operand + s.X
	case asm6502.ZeroPageY, asm6502.AbsoluteY, asm6502.IndirectY:
		return operand + s.Y
	default:
		return operand
	}
}

func load(s *State, mode asm6502.Mode, operand uint8) uint8 {
	if mode == asm6502.Immediate {
		return operand
	}
	return s.Mem[effAddr(s, mode, operand)]
}

func store(s *State, mode asm6502.Mode, operand uint8, v uint8) {
	s.Mem[effAddr(s, mode, operand)] = v
}

// Exec executes one instruction — name, addressing mode, and the resolved
// operand byte (the immediate value, or the base zero-page/absolute address
// before indexing) — against s, modifying it in place. operand's upper bits
// beyond a zero-page address are ignored, matching this model's zero-page
// memory window (spec.md's peephole windows never span a full absolute
// address range within one fused op).
func Exec(s *State, op asm6502.OpCode, operand uint8) error {
	name := asm6502.OpName(op)
	mode := asm6502.OpMode(op)

	switch name {
	case asm6502.LDA:
		s.A = load(s, mode, operand)
		s.P = setNZ(s.P, s.A)
	case asm6502.LDX:
		s.X = load(s, mode, operand)
		s.P = setNZ(s.P, s.X)
	case asm6502.LDY:
		s.Y = load(s, mode, operand)
		s.P = setNZ(s.P, s.Y)
	case asm6502.STA:
		store(s, mode, operand, s.A)
	case asm6502.STX:
		store(s, mode, operand, s.X)
	case asm6502.STY:
		store(s, mode, operand, s.Y)
	case asm6502.INC:
		v := load(s, mode, operand) + 1
		store(s, mode, operand, v)
		s.P = setNZ(s.P, v)
	case asm6502.DEC:
		v := load(s, mode, operand) - 1
		store(s, mode, operand, v)
		s.P = setNZ(s.P, v)
	case asm6502.INX:
		s.X++
		s.P = setNZ(s.P, s.X)
	case asm6502.INY:
		s.Y++
		s.P = setNZ(s.P, s.Y)
	case asm6502.DEX:
		s.X--
		s.P = setNZ(s.P, s.X)
	case asm6502.DEY:
		s.Y--
		s.P = setNZ(s.P, s.Y)
	case asm6502.ADC:
		execAdc(s, load(s, mode, operand))
	case asm6502.SBC:
		execAdc(s, ^load(s, mode, operand))
	case asm6502.AND:
		s.A &= load(s, mode, operand)
		s.P = setNZ(s.P, s.A)
	case asm6502.ORA:
		s.A |= load(s, mode, operand)
		s.P = setNZ(s.P, s.A)
	case asm6502.EOR:
		s.A ^= load(s, mode, operand)
		s.P = setNZ(s.P, s.A)
	case asm6502.ASL:
		v := execShiftLeft(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
	case asm6502.LSR:
		v := execShiftRight(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
	case asm6502.ROL:
		v := execRotateLeft(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
	case asm6502.ROR:
		v := execRotateRight(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
	case asm6502.CMP:
		execCompare(s, s.A, load(s, mode, operand))
	case asm6502.CPX:
		execCompare(s, s.X, load(s, mode, operand))
	case asm6502.CPY:
		execCompare(s, s.Y, load(s, mode, operand))
	case asm6502.BIT:
		v := load(s, mode, operand)
		s.P = (s.P &^ (FlagN | FlagV | FlagZ)) | (v & (FlagN | FlagV))
		if s.A&v == 0 {
			s.P |= FlagZ
		}
	case asm6502.TAX:
		s.X = s.A
		s.P = setNZ(s.P, s.X)
	case asm6502.TAY:
		s.Y = s.A
		s.P = setNZ(s.P, s.Y)
	case asm6502.TXA:
		s.A = s.X
		s.P = setNZ(s.P, s.A)
	case asm6502.TYA:
		s.A = s.Y
		s.P = setNZ(s.P, s.A)
	case asm6502.TSX:
		s.X = s.SP
		s.P = setNZ(s.P, s.X)
	case asm6502.TXS:
		s.SP = s.X
	case asm6502.CLC:
		s.P &^= FlagC
	case asm6502.SEC:
		s.P |= FlagC
	case asm6502.CLI:
		s.P &^= FlagI
	case asm6502.SEI:
		s.P |= FlagI
	case asm6502.CLD:
		s.P &^= FlagD
	case asm6502.SED:
		s.P |= FlagD
	case asm6502.CLV:
		s.P &^= FlagV
	case asm6502.NOP, asm6502.SKB, asm6502.IGN:
		// SKB/IGN read and discard a byte; no register/memory effect follows.

	// Illegal fusions asmproc's peephole rewriter produces — each is the
	// read-modify-write half of a legal op (once) followed by the paired
	// ALU op, both against the same effective address/accumulator.
	case asm6502.DCP:
		v := load(s, mode, operand) - 1
		store(s, mode, operand, v)
		execCompare(s, s.A, v)
	case asm6502.ISC:
		v := load(s, mode, operand) + 1
		store(s, mode, operand, v)
		execAdc(s, ^v)
	case asm6502.RLA:
		v := execRotateLeft(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
		s.A &= v
		s.P = setNZ(s.P, s.A)
	case asm6502.RRA:
		v := execRotateRight(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
		execAdc(s, v)
	case asm6502.SLO:
		v := execShiftLeft(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
		s.A |= v
		s.P = setNZ(s.P, s.A)
	case asm6502.SRE:
		v := execShiftRight(s, load(s, mode, operand))
		writeBack(s, mode, operand, v)
		s.A ^= v
		s.P = setNZ(s.P, s.A)
	case asm6502.ALR:
		s.A &= load(s, mode, operand)
		s.A = execShiftRight(s, s.A)
	case asm6502.ANC:
		s.A &= load(s, mode, operand)
		s.P = setNZ(s.P, s.A)
		if s.A&0x80 != 0 {
			s.P |= FlagC
		} else {
			s.P &^= FlagC
		}
	case asm6502.LAX:
		s.A = load(s, mode, operand)
		s.X = s.A
		s.P = setNZ(s.P, s.A)

	default:
		return ErrUnsupportedOp{Op: op}
	}
	return nil
}

// writeBack stores v for a read-modify-write instruction: to memory for any
// addressed mode, or back into A for Accumulator mode.
func writeBack(s *State, mode asm6502.Mode, operand uint8, v uint8) {
	if mode == asm6502.Accumulator {
		s.A = v
		return
	}
	store(s, mode, operand, v)
}

func execAdc(s *State, v uint8) {
	carry := uint16(0)
	if s.P&FlagC != 0 {
		carry = 1
	}
	sum := uint16(s.A) + uint16(v) + carry
	result := uint8(sum)

	if sum > 0xFF {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	if (s.A^result)&(v^result)&0x80 != 0 {
		s.P |= FlagV
	} else {
		s.P &^= FlagV
	}
	s.A = result
	s.P = setNZ(s.P, s.A)
}

func execCompare(s *State, reg, v uint8) {
	result := reg - v
	if reg >= v {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	s.P = setNZ(s.P, result)
}

func execShiftLeft(s *State, v uint8) uint8 {
	if v&0x80 != 0 {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	result := v << 1
	s.P = setNZ(s.P, result)
	return result
}

func execShiftRight(s *State, v uint8) uint8 {
	if v&0x01 != 0 {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	result := v >> 1
	s.P = setNZ(s.P, result)
	return result
}

func execRotateLeft(s *State, v uint8) uint8 {
	oldCarry := s.P & FlagC
	if v&0x80 != 0 {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	result := (v << 1) | oldCarry
	s.P = setNZ(s.P, result)
	return result
}

func execRotateRight(s *State, v uint8) uint8 {
	oldCarry := s.P & FlagC
	if v&0x01 != 0 {
		s.P |= FlagC
	} else {
		s.P &^= FlagC
	}
	result := (v >> 1) | (oldCarry << 7)
	s.P = setNZ(s.P, result)
	return result
}
