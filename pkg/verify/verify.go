// Package verify proves that a peephole-rewritten instruction window is
// behaviorally equivalent to the window it replaced, by executing both
// through pkg/cpu's 6502 model across a fixed set of representative states
// (QuickCheck) and, when that passes, every combination of A, the carry flag
// and, when a window addresses memory, the zero-page byte at $10
// (ExhaustiveCheck); X, Y, SP and the other flags are not swept. A
// fixed-vector-then-exhaustive-sweep
// verifier, narrowed from a Z80 core's register-pair sweeps down to the
// 6502's single accumulator plus one zero-page memory operand.
package verify

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/cpu"
)

// Step is one instruction in a window under test: an opcode plus its
// resolved operand byte, the same shape pkg/cpu.Exec consumes.
type Step struct {
	Op      asm6502.OpCode
	Operand uint8
}

// FlagMask marks processor-status bits that are "dead" (unobserved by
// anything downstream of the window) and so may be ignored during an
// equivalence check.
type FlagMask = uint8

const (
	DeadNone  FlagMask = 0x00
	DeadUndoc FlagMask = cpu.Flag5 // bit 5 always reads 1 on real hardware; never meaningful
	DeadAll   FlagMask = 0xFF
)

// TestVectors are fixed starting states QuickCheck runs every window
// against, chosen to cover zero/all-ones/alternating-bit/sign-boundary
// inputs across A, X, Y, SP, the carry flag, and one memory operand byte.
var TestVectors = []cpu.State{
	{A: 0x00, X: 0x00, Y: 0x00, SP: 0x00, P: 0x00},
	{A: 0xFF, X: 0xFF, Y: 0xFF, SP: 0xFF, P: 0xFF},
	{A: 0x01, X: 0x02, Y: 0x03, SP: 0x04, P: 0x00},
	{A: 0x80, X: 0x40, Y: 0x20, SP: 0x10, P: cpu.FlagC},
	{A: 0x55, X: 0xAA, Y: 0x55, SP: 0xAA, P: 0x00},
	{A: 0xAA, X: 0x55, Y: 0xAA, SP: 0x55, P: cpu.FlagC},
	{A: 0x7F, X: 0x80, Y: 0x7F, SP: 0x80, P: cpu.FlagC},
	{A: 0x0F, X: 0xF0, Y: 0x0F, SP: 0xF0, P: 0x00},
}

func init() {
	for i := range TestVectors {
		TestVectors[i].Mem[0x10] = uint8(i * 0x11)
	}
}

// ExecSeq runs seq starting from initial and returns the resulting state.
// Returns the first error Exec reports (e.g. a control-flow opcode in the
// window, which this straight-line model can't execute).
func ExecSeq(initial cpu.State, seq []Step) (cpu.State, error) {
	s := initial
	for _, step := range seq {
		if err := cpu.Exec(&s, step.Op, step.Operand); err != nil {
			return s, err
		}
	}
	return s, nil
}

func statesEqualMasked(a, b cpu.State, dead FlagMask) bool {
	a.P &^= dead
	b.P &^= dead
	return a == b
}

// QuickCheck reports whether target and candidate agree on every fixed
// TestVectors entry — cheap enough to run on every peephole rewrite before
// falling back to ExhaustiveCheck.
func QuickCheck(target, candidate []Step) (bool, error) {
	return QuickCheckMasked(target, candidate, DeadNone)
}

// QuickCheckMasked is QuickCheck ignoring the flag bits set in dead.
func QuickCheckMasked(target, candidate []Step, dead FlagMask) (bool, error) {
	for _, v := range TestVectors {
		tOut, err := ExecSeq(v, target)
		if err != nil {
			return false, err
		}
		cOut, err := ExecSeq(v, candidate)
		if err != nil {
			return false, err
		}
		if !statesEqualMasked(tOut, cOut, dead) {
			return false, nil
		}
	}
	return true, nil
}

// readsMemory reports whether any step addresses the zero-page window
// (versus operating purely on registers/immediates).
func readsMemory(seq []Step) bool {
	for _, step := range seq {
		switch asm6502.OpMode(step.Op) {
		case asm6502.Immediate, asm6502.Implied, asm6502.Accumulator:
		default:
			return true
		}
	}
	return false
}

// ExhaustiveCheck sweeps A (0..255) and the carry flag (0/1), plus the
// window's zero-page operand byte when either sequence reads memory —
// the 6502 analogue of a regsRead-driven register sweep,
// simplified to the one memory cell this model's window can address.
func ExhaustiveCheck(target, candidate []Step) (bool, error) {
	return ExhaustiveCheckMasked(target, candidate, DeadNone)
}

// ExhaustiveCheckMasked is ExhaustiveCheck ignoring the flag bits set in dead.
func ExhaustiveCheckMasked(target, candidate []Step, dead FlagMask) (bool, error) {
	sweepMem := readsMemory(target) || readsMemory(candidate)
	for a := 0; a < 256; a++ {
		for carry := uint8(0); carry <= 1; carry++ {
			var base cpu.State
			base.A = uint8(a)
			if carry == 1 {
				base.P |= cpu.FlagC
			}
			if !sweepMem {
				ok, err := compareOne(base, target, candidate, dead)
				if err != nil || !ok {
					return ok, err
				}
				continue
			}
			for m := 0; m < 256; m++ {
				s := base
				s.Mem[0x10] = uint8(m)
				ok, err := compareOne(s, target, candidate, dead)
				if err != nil || !ok {
					return ok, err
				}
			}
		}
	}
	return true, nil
}

func compareOne(s cpu.State, target, candidate []Step, dead FlagMask) (bool, error) {
	tOut, err := ExecSeq(s, target)
	if err != nil {
		return false, err
	}
	cOut, err := ExecSeq(s, candidate)
	if err != nil {
		return false, err
	}
	return statesEqualMasked(tOut, cOut, dead), nil
}

// FlagDiff runs every TestVectors entry and returns the OR of every flag bit
// that ever differed between target and candidate, given their non-flag
// state always agreed — a caller can feed this back in as a FlagMask to
// accept a rewrite that's equivalent modulo flags nothing downstream reads.
// Returns 0 if any non-flag state differed (not a flags-only divergence).
func FlagDiff(target, candidate []Step) (FlagMask, error) {
	var diff FlagMask
	for _, v := range TestVectors {
		tOut, err := ExecSeq(v, target)
		if err != nil {
			return 0, err
		}
		cOut, err := ExecSeq(v, candidate)
		if err != nil {
			return 0, err
		}
		if tOut.A != cOut.A || tOut.X != cOut.X || tOut.Y != cOut.Y || tOut.SP != cOut.SP || tOut.Mem != cOut.Mem {
			return 0, nil
		}
		diff |= tOut.P ^ cOut.P
	}
	return diff, nil
}
