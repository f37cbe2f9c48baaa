// Package ssa is the minimal external-collaborator surface pkg/constraints
// and pkg/schedule operate over: an arena-indexed SSA node/block graph. It
// intentionally does not implement a parser, evaluator, or IR builder —
// per spec.md §1 those remain external collaborators that deliver an
// already-built CFG of SSA nodes. This package exists only so the lattice
// and scheduler have a concrete node type to consume and be tested against.
package ssa

import "github.com/00mjk/nesfab/pkg/fixed"

// OpCode is the closed set of SSA opcodes the constraint lattice and
// scheduler care about, named after spec.md §4.1's transfer-function list
// and original_source/src/constraints.cpp's ABSTRACT/NARROW table.
type OpCode uint8

const (
	OpUninitialized OpCode = iota
	OpReadGlobal
	OpFnCall
	OpCast
	OpPhi
	OpAdd
	OpAnd
	OpOr
	OpXor
	OpEq
	OpNotEq
	OpLt
	OpLte
	OpIf
	OpInitArray
)

// OpFlags mirrors the original's per-opcode flag table (SSAF_CLOBBERS_CARRY
// and friends) consulted by pkg/schedule when building the carry-clobberers
// bitset.
type OpFlags uint8

const (
	FlagClobbersCarry OpFlags = 1 << iota
	FlagWriteGlobals
)

var flagTable = map[OpCode]OpFlags{
	OpAdd: FlagClobbersCarry,
	// Every other opcode this core models is carry-neutral; and/or/xor are
	// defined by spec.md §4.1 to reset carry to ⊥ on output, but they do
	// not *consume* a live carry input, so they are not clobberers of a
	// carry another node is depending on being preserved across them isn't
	// modeled — only true carry-bearing ops (add/adc-family) are.
}

// Flags returns the op-flags for an opcode.
func Flags(op OpCode) OpFlags { return flagTable[op] }

// Handle is a 32-bit arena index — never an owning pointer, per spec.md §9's
// "Arena + handle graph" note.
type Handle uint32

// InvalidHandle is the zero-value sentinel meaning "no node".
const InvalidHandle Handle = 0

// OutputEdge names one (consumer, input-index) backward edge. IsLink marks
// an edge carrying a "link" value per spec.md §4.2(e) — pkg/schedule must
// place the consumer immediately after the producer whenever it does.
type OutputEdge struct {
	Consumer Handle
	Input    int
	IsLink   bool
}

// Node is one SSA value: its opcode, its input list, its output-edge list
// (backward), its containing block, its optional daisy-chain predecessor
// (the side-effect-ordering overlay spec.md's GLOSSARY describes), and its
// result type.
type Node struct {
	Op      OpCode
	Inputs  []Handle
	Outputs []OutputEdge
	Block   Handle
	Daisy   Handle // InvalidHandle if none
	Type    fixed.Type

	// WritesLocatorKey names the locator this node's result is written to,
	// empty if none; pkg/schedule's dependency-augmentation pass (spec.md
	// §4.2's "locator-write ordering") consults it. Carried as a plain string
	// key here rather than a full locator.Locator to keep this package's
	// import surface minimal.
	WritesLocatorKey string

	// IsConst and ConstValue hold a compile-time-known byte value for leaf
	// nodes the evaluator has already folded — the only shape
	// pkg/rom.LocateArrays needs to inspect an OpInitArray's inputs
	// (constant, or OpUninitialized; anything else disqualifies the array).
	IsConst    bool
	ConstValue uint8
}

// Block is one basic block: an ordered arena of SSA node handles (the
// construction order, not yet the scheduled order) plus its terminator.
type Block struct {
	Nodes      []Handle
	Terminator Handle // InvalidHandle if the block falls through
}

// CFG is a control-flow graph: the node arena plus the block list. Built
// and owned by the external evaluator; pkg/schedule and pkg/constraints
// only read it.
type CFG struct {
	Nodes  map[Handle]*Node
	Blocks []*Block
}

// NewCFG returns an empty graph ready for a builder (typically a test, or
// the external evaluator) to populate.
func NewCFG() *CFG {
	return &CFG{Nodes: make(map[Handle]*Node)}
}

// Add inserts n under handle h, overwriting any previous node at h.
func (g *CFG) Add(h Handle, n *Node) {
	g.Nodes[h] = n
}

// Node looks up a node by handle.
func (g *CFG) Node(h Handle) *Node {
	return g.Nodes[h]
}
