// Package cpu implements a 6502 register/flag/memory model sufficient to
// execute one linked asmproc.Proc and compare two procs for behavioral
// equivalence — the engine pkg/verify drives to prove a peephole rewrite
// preserved semantics. Modeled register-for-register on the 6502's A/X/Y/SP/P
// set plus a zero-page byte array standing in for the bus.
package cpu

// State is the full machine state one instruction execution reads and
// writes: the three general registers, stack pointer, processor status
// flags, and a zero-page window standing in for RAM (every addressing mode
// asmproc emits for a linked proc resolves to either an immediate or a
// zero-page/absolute byte offset small enough to fit this window).
type State struct {
	A, X, Y, SP, P uint8
	Mem            [256]uint8
}

// Equal reports whether two states are identical in every register and
// memory cell.
func (s State) Equal(o State) bool {
	return s == o
}
