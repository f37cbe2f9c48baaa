package constraints

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/ssa"
)

const testMask = uint64(0xF) // 4-bit domain keeps brute-force enumeration cheap.

// concreteValues enumerates every value in [0, mask] consistent with c's
// bounds and known-bits fields.
func concreteValues(c Constraint, mask uint64) []uint64 {
	if c.IsTop() {
		return nil
	}
	var out []uint64
	for v := c.Bounds.Min; v <= c.Bounds.Max && v <= mask; v++ {
		if v&c.Bits.Known0 != 0 {
			continue
		}
		if (^v)&c.Bits.Known1&mask != 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

func carryValuesFor(c Carry) []uint64 {
	switch c {
	case CarryClear:
		return []uint64{0}
	case CarrySet:
		return []uint64{1}
	case CarryTop:
		return []uint64{0, 1}
	default:
		return nil
	}
}

// sampleConstraints returns a handful of representative, non-top
// constraints over testMask: a fully unconstrained one, an exact constant,
// and a partially-known interval.
func sampleConstraints() []Constraint {
	return []Constraint{
		Bottom(testMask),
		FromConst(3, testMask),
		FromConst(10, testMask),
		Normalize(Constraint{Bounds: Bounds{Min: 2, Max: 9}, Bits: KnownBits{Known0: 0x1}, Carry: CarryTop}, testMask),
		Normalize(Constraint{Bounds: Bounds{Min: 0, Max: 15}, Bits: KnownBits{Known1: 0x2}, Carry: CarryTop}, testMask),
	}
}

func sampleCarryConstraints() []Constraint {
	return []Constraint{
		{Bounds: Bounds{Min: 0, Max: 0}, Bits: BitsFromConst(0, 1), Carry: CarryClear},
		{Bounds: Bounds{Min: 1, Max: 1}, Bits: BitsFromConst(1, 1), Carry: CarrySet},
		{Bounds: Bounds{Min: 0, Max: 1}, Bits: BitsBottom(1), Carry: CarryTop},
	}
}

// Property 3: abstract(mask, ins) dominates every concrete evaluation drawn
// from ins's concrete members.
func TestAbstractAddSoundness(t *testing.T) {
	for _, carryC := range sampleCarryConstraints() {
		for _, lhs := range sampleConstraints() {
			for _, rhs := range sampleConstraints() {
				ret := Abstract(ssa.OpAdd, testMask, []Constraint{carryC, lhs, rhs})
				for _, cv := range carryValuesFor(carryC.Carry) {
					for _, lv := range concreteValues(lhs, testMask) {
						for _, rv := range concreteValues(rhs, testMask) {
							total := lv + rv + cv
							sum := total & testMask
							carryOut := uint64(0)
							if total > testMask {
								carryOut = 1
							}
							if ret.IsTop() {
								t.Fatalf("abstract add returned Top() but concrete inputs l=%d r=%d c=%d exist", lv, rv, cv)
							}
							if sum < ret.Bounds.Min || sum > ret.Bounds.Max {
								t.Fatalf("sum %d outside abstract bounds %+v (l=%d r=%d c=%d)", sum, ret.Bounds, lv, rv, cv)
							}
							if sum&ret.Bits.Known0 != 0 || (^sum)&ret.Bits.Known1&testMask != 0 {
								t.Fatalf("sum %d inconsistent with abstract bits %+v", sum, ret.Bits)
							}
							switch ret.Carry {
							case CarryClear:
								if carryOut != 0 {
									t.Fatalf("abstract carry=clear but concrete carry=%d", carryOut)
								}
							case CarrySet:
								if carryOut != 1 {
									t.Fatalf("abstract carry=set but concrete carry=%d", carryOut)
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestAbstractBitwiseSoundness(t *testing.T) {
	ops := map[ssa.OpCode]func(a, b uint64) uint64{
		ssa.OpAnd: func(a, b uint64) uint64 { return a & b },
		ssa.OpOr:  func(a, b uint64) uint64 { return a | b },
		ssa.OpXor: func(a, b uint64) uint64 { return a ^ b },
	}
	for op, eval := range ops {
		for _, a := range sampleConstraints() {
			for _, b := range sampleConstraints() {
				ret := Abstract(op, testMask, []Constraint{a, b})
				for _, av := range concreteValues(a, testMask) {
					for _, bv := range concreteValues(b, testMask) {
						got := eval(av, bv)
						if got < ret.Bounds.Min || got > ret.Bounds.Max {
							t.Fatalf("op %v: result %d outside bounds %+v", op, got, ret.Bounds)
						}
						if got&ret.Bits.Known0 != 0 || (^got)&ret.Bits.Known1&testMask != 0 {
							t.Fatalf("op %v: result %d inconsistent with bits %+v", op, got, ret.Bits)
						}
					}
				}
			}
		}
	}
}

func TestAbstractComparisonSoundness(t *testing.T) {
	type cmp struct {
		op   ssa.OpCode
		eval func(a, b uint64) uint64
	}
	cmps := []cmp{
		{ssa.OpEq, func(a, b uint64) uint64 { return boolU64(a == b) }},
		{ssa.OpNotEq, func(a, b uint64) uint64 { return boolU64(a != b) }},
		{ssa.OpLt, func(a, b uint64) uint64 { return boolU64(a < b) }},
		{ssa.OpLte, func(a, b uint64) uint64 { return boolU64(a <= b) }},
	}
	for _, c := range cmps {
		for _, a := range sampleConstraints() {
			for _, b := range sampleConstraints() {
				ret := Abstract(c.op, testMask, []Constraint{a, b})
				for _, av := range concreteValues(a, testMask) {
					for _, bv := range concreteValues(b, testMask) {
						got := c.eval(av, bv)
						if ret.IsConst() && ret.ConstValue() != got {
							t.Fatalf("op %v: claimed const %d but concrete gives %d (a=%d b=%d)", c.op, ret.ConstValue(), got, av, bv)
						}
					}
				}
			}
		}
	}
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Property 4, first half: narrow never enlarges an input. Monotonicity in
// result is not checked here.
func TestNarrowNeverEnlarges(t *testing.T) {
	ops := []ssa.OpCode{ssa.OpAnd, ssa.OpOr, ssa.OpXor, ssa.OpEq, ssa.OpNotEq, ssa.OpLt, ssa.OpLte}
	for _, op := range ops {
		for _, a := range sampleConstraints() {
			for _, b := range sampleConstraints() {
				result := Abstract(op, testMask, []Constraint{a, b})
				in := []Constraint{a, b}
				Narrow(op, testMask, result, in)
				if !in[0].IsSubset(a) {
					t.Fatalf("op %v: narrowed input[0] %+v not subset of original %+v", op, in[0], a)
				}
				if !in[1].IsSubset(b) {
					t.Fatalf("op %v: narrowed input[1] %+v not subset of original %+v", op, in[1], b)
				}
			}
		}
	}
}
