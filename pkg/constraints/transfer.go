package constraints

import (
	"math/bits"

	"github.com/00mjk/nesfab/pkg/ssa"
)

// Abstract computes the forward abstract transfer function for op: given
// the live-bit mask and the operand constraints in SSA-input order, it
// returns the constraint describing every possible result. Unlisted
// opcodes (branches, array init — nothing in ssa.OpCode produces a scalar
// lattice value for them) fall back to Bottom(mask), the unconstrained
// default, matching the original's behavior for ops it never registered a
// transfer function for.
func Abstract(op ssa.OpCode, mask uint64, in []Constraint) Constraint {
	if fn, ok := abstractFns[op]; ok {
		return fn(mask, in)
	}
	return Bottom(mask)
}

// Narrow computes the backward narrowing transfer function: given the
// already-computed (and possibly further-normalized) result constraint, it
// refines each operand's constraint in place. Unlisted opcodes are a no-op.
func Narrow(op ssa.OpCode, mask uint64, result Constraint, in []Constraint) {
	if fn, ok := narrowFns[op]; ok {
		fn(mask, result, in)
	}
}

var abstractFns = map[ssa.OpCode]func(mask uint64, in []Constraint) Constraint{
	ssa.OpPhi:           abstractPhi,
	ssa.OpReadGlobal:    abstractBottom,
	ssa.OpFnCall:        abstractBottom,
	ssa.OpUninitialized: abstractBottom,
	ssa.OpCast:          abstractCast,
	ssa.OpAdd:           abstractAdd,
	ssa.OpAnd:           abstractAnd,
	ssa.OpOr:            abstractOr,
	ssa.OpXor:           abstractXor,
	ssa.OpEq:            abstractEq,
	ssa.OpNotEq:         abstractNotEq,
	ssa.OpLt:            abstractLt,
	ssa.OpLte:           abstractLte,
}

var narrowFns = map[ssa.OpCode]func(mask uint64, result Constraint, in []Constraint){
	ssa.OpPhi:           narrowPhi,
	ssa.OpUninitialized: narrowUninitialized,
	ssa.OpCast:          narrowCast,
	ssa.OpAdd:           narrowAdd,
	ssa.OpAnd:           narrowAnd,
	ssa.OpOr:            narrowOr,
	ssa.OpXor:           narrowXor,
	ssa.OpEq:            narrowEq,
	ssa.OpNotEq:         narrowNotEq,
	ssa.OpLt:            narrowLt,
	ssa.OpLte:           narrowLte,
}

func abstractBottom(mask uint64, in []Constraint) Constraint { return Bottom(mask) }

func abstractPhi(mask uint64, in []Constraint) Constraint {
	ret := Top()
	for _, c := range in {
		ret = ret.Union(c)
	}
	return ret
}

func narrowPhi(mask uint64, result Constraint, in []Constraint) {
	for i := range in {
		in[i] = in[i].Intersect(result)
	}
}

func narrowUninitialized(mask uint64, result Constraint, in []Constraint) {
	// No inputs to narrow; present for symmetry with the original's table.
}

func abstractCast(mask uint64, in []Constraint) Constraint {
	return in[0].ApplyMask(mask)
}

func narrowCast(mask uint64, result Constraint, in []Constraint) {
	in[0] = result
}

// wholeConst builds a 1-bit boolean constraint naming exactly v (0 or 1)
// with the given carry value.
func wholeConst(v uint64, carry Carry) Constraint {
	return Constraint{Bounds: Bounds{Min: v, Max: v}, Bits: BitsFromConst(v, 1), Carry: carry}
}

// anyBool is the fully-unconstrained 1-bit boolean, produced when a
// comparison can't be resolved statically.
func anyBool(carry Carry) Constraint {
	return Constraint{Bounds: Bounds{Min: 0, Max: 1}, Bits: BitsBottom(1), Carry: carry}
}

func abstractAnd(mask uint64, in []Constraint) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	bits := KnownBits{
		Known0: (a.Bits.Known0 | b.Bits.Known0) | ^mask,
		Known1: (a.Bits.Known1 & b.Bits.Known1) & mask,
	}
	return Constraint{Bounds: bits.ToBounds(mask), Bits: bits, Carry: CarryTop}
}

func narrowAnd(mask uint64, result Constraint, in []Constraint) {
	if result.IsTop() {
		return
	}
	a, b := &in[0], &in[1]
	a.Bits.Known1 |= result.Bits.Known1
	b.Bits.Known1 |= result.Bits.Known1
	a.Bits.Known0 |= result.Bits.Known0 & b.Bits.Known1
	b.Bits.Known0 |= result.Bits.Known0 & a.Bits.Known1
}

func abstractOr(mask uint64, in []Constraint) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	bits := KnownBits{
		Known0: (a.Bits.Known0 & b.Bits.Known0) | ^mask,
		Known1: (a.Bits.Known1 | b.Bits.Known1) & mask,
	}
	return Constraint{Bounds: bits.ToBounds(mask), Bits: bits, Carry: CarryTop}
}

func narrowOr(mask uint64, result Constraint, in []Constraint) {
	if result.IsTop() {
		return
	}
	a, b := &in[0], &in[1]
	a.Bits.Known0 |= result.Bits.Known0
	b.Bits.Known0 |= result.Bits.Known0
	a.Bits.Known1 |= result.Bits.Known1 & b.Bits.Known0
	b.Bits.Known1 |= result.Bits.Known1 & a.Bits.Known0
}

func abstractXor(mask uint64, in []Constraint) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	known := a.Bits.Known() & b.Bits.Known() & mask
	x := a.Bits.Known1 ^ b.Bits.Known1
	bits := KnownBits{Known0: (^x & known) | ^mask, Known1: x & known}
	return Constraint{Bounds: bits.ToBounds(mask), Bits: bits, Carry: CarryTop}
}

func narrowXor(mask uint64, result Constraint, in []Constraint) {
	if result.IsTop() {
		return
	}
	a, b := &in[0], &in[1]
	a.Bits.Known0 |= result.Bits.Known0 & b.Bits.Known0
	b.Bits.Known0 |= result.Bits.Known0 & a.Bits.Known0
	a.Bits.Known1 |= result.Bits.Known0 & b.Bits.Known1
	b.Bits.Known1 |= result.Bits.Known0 & a.Bits.Known1
	a.Bits.Known0 |= result.Bits.Known1 & b.Bits.Known1
	b.Bits.Known0 |= result.Bits.Known1 & a.Bits.Known1
	a.Bits.Known1 |= result.Bits.Known1 & b.Bits.Known0
	b.Bits.Known1 |= result.Bits.Known1 & a.Bits.Known0
}

func abstractEq(mask uint64, in []Constraint) Constraint {
	return compareEqNotEq(in, true)
}

func abstractNotEq(mask uint64, in []Constraint) Constraint {
	return compareEqNotEq(in, false)
}

func compareEqNotEq(in []Constraint, eq bool) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	falseVal, trueVal := uint64(0), uint64(1)
	if !eq {
		falseVal, trueVal = 1, 0
	}
	if a.Bits.Known0&b.Bits.Known1 != 0 || a.Bits.Known1&b.Bits.Known0 != 0 {
		return wholeConst(falseVal, CarryTop)
	}
	if a.Bounds.Min > b.Bounds.Max || a.Bounds.Max < b.Bounds.Min {
		return wholeConst(falseVal, CarryTop)
	}
	if a.IsConst() && b.IsConst() && a.ConstValue() == b.ConstValue() {
		return wholeConst(trueVal, CarryTop)
	}
	return anyBool(CarryTop)
}

// narrowEq is shared by SSA_eq and SSA_not_eq: eq is true for SSA_eq.
func narrowEqImpl(result Constraint, in []Constraint, eq bool) {
	if !result.IsConst() {
		return
	}
	isEqResult := result.ConstValue() == 1
	if isEqResult != eq {
		// Known to differ: if either side pins a concrete value, exclude
		// that value from the other side's interval endpoint.
		for i := 0; i < 2; i++ {
			if in[i].IsConst() {
				o := 1 - i
				c := in[i].ConstValue()
				if in[o].Bounds.Min == c {
					in[o].Bounds.Min++
				}
				if in[o].Bounds.Max == c {
					in[o].Bounds.Max--
				}
			}
		}
	} else {
		merged := in[0].Intersect(in[1])
		in[0], in[1] = merged, merged
	}
}

func narrowEq(mask uint64, result Constraint, in []Constraint)    { narrowEqImpl(result, in, true) }
func narrowNotEq(mask uint64, result Constraint, in []Constraint) { narrowEqImpl(result, in, false) }

func abstractLt(mask uint64, in []Constraint) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	if a.Bounds.Max < b.Bounds.Min {
		return wholeConst(1, CarryTop)
	}
	if b.Bounds.Max <= a.Bounds.Min {
		return wholeConst(0, CarryTop)
	}
	return anyBool(CarryTop)
}

func narrowLt(mask uint64, result Constraint, in []Constraint) {
	if !result.IsConst() {
		return
	}
	a, b := &in[0], &in[1]
	if result.ConstValue() == 0 {
		if b.Bounds.Min > a.Bounds.Min {
			a.Bounds.Min = b.Bounds.Min
		}
		if a.Bounds.Max < b.Bounds.Max {
			b.Bounds.Max = a.Bounds.Max
		}
	} else {
		if b.Bounds.Max-1 < a.Bounds.Max {
			a.Bounds.Max = b.Bounds.Max - 1
		}
		if a.Bounds.Min+1 > b.Bounds.Min {
			b.Bounds.Min = a.Bounds.Min + 1
		}
	}
}

func abstractLte(mask uint64, in []Constraint) Constraint {
	a, b := in[0], in[1]
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	if a.Bounds.Max <= b.Bounds.Min {
		return wholeConst(1, CarryTop)
	}
	if b.Bounds.Max < a.Bounds.Min {
		return wholeConst(0, CarryTop)
	}
	return anyBool(CarryTop)
}

func narrowLte(mask uint64, result Constraint, in []Constraint) {
	if !result.IsConst() {
		return
	}
	a, b := &in[0], &in[1]
	if result.ConstValue() == 0 {
		if b.Bounds.Min+1 > a.Bounds.Min {
			a.Bounds.Min = b.Bounds.Min + 1
		}
		if a.Bounds.Max-1 < b.Bounds.Max {
			b.Bounds.Max = a.Bounds.Max - 1
		}
	} else {
		if b.Bounds.Max < a.Bounds.Max {
			a.Bounds.Max = b.Bounds.Max
		}
		if a.Bounds.Min > b.Bounds.Min {
			b.Bounds.Min = a.Bounds.Min
		}
	}
}

// --- SSA_add: ternary bit-by-bit ripple add --------------------------------
//
// The original scans two trits at a time through a precomputed 1024-entry
// lookup table (an index-generator for that table was never captured in
// original_source — only its `extern` declaration was). This reimplements
// the same "slow but accurate" technique it describes in comments: treat
// each bit of each operand as a trit (0, 1, or unknown) and ripple a
// three-state carry through a brute-force per-bit full adder. One bit at a
// time instead of two is the same algorithm without the lookup-table
// micro-optimization; see DESIGN.md.

type trit uint8

const (
	tritZero trit = iota
	tritOne
	tritUnknown
)

func bitTrit(k KnownBits, bit uint64) trit {
	switch {
	case k.Known1&bit != 0:
		return tritOne
	case k.Known0&bit != 0:
		return tritZero
	default:
		return tritUnknown
	}
}

func tritPossibilities(t trit) [2]uint64 {
	switch t {
	case tritZero:
		return [2]uint64{0, 0}
	case tritOne:
		return [2]uint64{1, 1}
	default:
		return [2]uint64{0, 1}
	}
}

func carryPossibilities(c Carry) [2]uint64 {
	switch c {
	case CarryClear:
		return [2]uint64{0, 0}
	case CarrySet:
		return [2]uint64{1, 1}
	default: // CarryTop: unconstrained
		return [2]uint64{0, 1}
	}
}

// fullAdderTrit brute-forces one bit position's sum trit and carry-out
// lattice value over every concrete assignment consistent with l, r, and
// carryIn.
func fullAdderTrit(l, r trit, carryIn Carry) (trit, Carry) {
	lv := tritPossibilities(l)
	rv := tritPossibilities(r)
	cv := carryPossibilities(carryIn)

	var sawSum, sawCarry [2]bool
	for _, a := range dedup(lv) {
		for _, b := range dedup(rv) {
			for _, c := range dedup(cv) {
				s := (a ^ b ^ c) & 1
				cout := (a & b) | (c & (a ^ b))
				sawSum[s] = true
				sawCarry[cout] = true
			}
		}
	}
	return reduceTrit(sawSum), reduceCarry(sawCarry)
}

func dedup(v [2]uint64) []uint64 {
	if v[0] == v[1] {
		return v[:1]
	}
	return v[:]
}

func reduceTrit(saw [2]bool) trit {
	if saw[0] && saw[1] {
		return tritUnknown
	}
	if saw[0] {
		return tritZero
	}
	return tritOne
}

func reduceCarry(saw [2]bool) Carry {
	if saw[0] && saw[1] {
		return CarryTop
	}
	if saw[0] {
		return CarryClear
	}
	return CarrySet
}

// addKnownBits ripples a ternary full-adder across every live bit of mask,
// returning the result's known bits and outgoing carry.
func addKnownBits(mask uint64, lhs, rhs KnownBits, carryIn Carry) (KnownBits, Carry) {
	var known0, known1 uint64
	carry := carryIn
	for bit := uint64(1); bit != 0 && bit <= mask; bit <<= 1 {
		l := bitTrit(lhs, bit)
		r := bitTrit(rhs, bit)
		var sum trit
		sum, carry = fullAdderTrit(l, r, carry)
		switch sum {
		case tritZero:
			known0 |= bit
		case tritOne:
			known1 |= bit
		}
	}
	return KnownBits{Known0: known0, Known1: known1}.Apply(mask), carry
}

func abstractAdd(mask uint64, in []Constraint) Constraint {
	carryIn, lhs, rhs := in[0], in[1], in[2]
	if lhs.IsTop() || rhs.IsTop() || carryIn.IsTop() {
		return Top()
	}

	resultBits, carryOut := addKnownBits(mask, lhs.Bits, rhs.Bits, carryIn.Carry)
	ret := Constraint{Bits: resultBits, Carry: carryOut}

	cMin, cMax := uint64(0), uint64(1)
	switch carryIn.Carry {
	case CarryClear:
		cMax = 0
	case CarrySet:
		cMin = 1
	}

	sumMax, carryBit := bits.Add64(lhs.Bounds.Max, rhs.Bounds.Max, cMax)
	if carryBit != 0 {
		// Overflowed the full 64-bit domain: fall back to the interval
		// implied purely by the computed bits.
		ret.Bounds = ret.Bits.ToBounds(mask)
		return Normalize(ret, mask)
	}

	ret.Bounds = Bounds{Min: lhs.Bounds.Min + rhs.Bounds.Min + cMin, Max: sumMax}.ApplyMask(mask)
	ret.Bits = ret.Bits.Intersect(ret.Bounds.ToBits(mask))
	return Normalize(ret, mask)
}

// narrowAdd solves L[i] ^ R[i] ^ carry[i] = result[i] for each bit at which
// two of the three are known, then tightens bounds from the narrowed bits.
// A best-effort narrowing heuristic, not required to be complete.
func narrowAdd(mask uint64, result Constraint, in []Constraint) {
	if result.IsTop() {
		return
	}
	c, l, r := &in[0], &in[1], &in[2]

	carry0 := (l.Bits.Known0 & r.Bits.Known0) << 1
	carry1 := (l.Bits.Known1 & r.Bits.Known1) << 1

	carryI := uint64(1)
	if ^mask != 0 {
		carryI = (mask | (mask >> 1)) ^ mask
	}

	if result.Bits.Known()&l.Bits.Known()&r.Bits.Known()&carryI != 0 {
		if (result.Bits.Known1^l.Bits.Known1^r.Bits.Known1)&carryI != 0 {
			c.Carry = CarrySet
		} else {
			c.Carry = CarryClear
		}
	}

	switch c.Carry {
	case CarryTop:
		// Unconstrained: contributes nothing.
	case CarryClear:
		carry0 |= 0
	case CarrySet:
		carry1 |= 1
	case CarryBottom:
		return
	}

	solvable := result.Bits.Known() & (carry0 | carry1)
	lSolvable := r.Bits.Known() & solvable
	rSolvable := l.Bits.Known() & solvable

	l.Bits.Known1 |= (carry1 ^ r.Bits.Known1 ^ result.Bits.Known1) & lSolvable
	r.Bits.Known1 |= (carry1 ^ l.Bits.Known1 ^ result.Bits.Known1) & rSolvable
	l.Bits.Known0 |= ^l.Bits.Known1 & lSolvable
	r.Bits.Known0 |= ^r.Bits.Known1 & rSolvable

	l.Bounds = l.Bounds.Intersect(l.Bits.ToBounds(mask))
	r.Bounds = r.Bounds.Intersect(r.Bits.ToBounds(mask))

	maxSum, carryBit := bits.Add64(l.Bounds.Max, r.Bounds.Max, 0)
	if carryBit != 0 {
		return
	}

	if maxSum > mask {
		minSum := l.Bounds.Min + r.Bounds.Min
		span := maxSum - minSum
		maskedMinSum := minSum & mask
		if maskedMinSum+span > mask {
			return
		}
		maskedDiff := minSum - maskedMinSum
		result.Bounds.Min += maskedDiff
		result.Bounds.Max += maskedDiff
	}

	if result.Bounds.Max-r.Bounds.Min < l.Bounds.Max {
		l.Bounds.Max = result.Bounds.Max - r.Bounds.Min
	}
	if result.Bounds.Max-l.Bounds.Min < r.Bounds.Max {
		r.Bounds.Max = result.Bounds.Max - l.Bounds.Min
	}
	if result.Bounds.Min > r.Bounds.Max && result.Bounds.Min-r.Bounds.Max > l.Bounds.Min {
		l.Bounds.Min = result.Bounds.Min - r.Bounds.Max
	}
	if result.Bounds.Min > r.Bounds.Max && result.Bounds.Min-l.Bounds.Max > r.Bounds.Min {
		r.Bounds.Min = result.Bounds.Min - l.Bounds.Max
	}
}
