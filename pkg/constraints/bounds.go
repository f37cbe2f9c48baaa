// Package constraints implements the abstract-interpretation lattice over
// fixed-point values described in spec.md §3/§4.1, ground-truthed against
// original_source/src/constraints.cpp: a per-value triple (Bounds,
// KnownBits, Carry) with meet/join/normalize and per-SSA-opcode Abstract
// (forward) / Narrow (backward) transfer function pairs.
package constraints

// Bounds is an inclusive interval [Min, Max] over the unsigned 64-bit
// domain. Min > Max encodes ⊤ (unreachable), matching spec.md §3.
type Bounds struct {
	Min, Max uint64
}

// BoundsTop is the unreachable/impossible interval.
func BoundsTop() Bounds { return Bounds{Min: 1, Max: 0} }

// BoundsFull is the unconstrained interval within mask.
func BoundsFull(mask uint64) Bounds { return Bounds{Min: 0, Max: mask} }

// IsTop reports whether b is the impossible interval.
func (b Bounds) IsTop() bool { return b.Min > b.Max }

// Intersect is the lattice meet (⊓): the interval consistent with both.
func (a Bounds) Intersect(b Bounds) Bounds {
	if a.IsTop() || b.IsTop() {
		return BoundsTop()
	}
	lo := a.Min
	if b.Min > lo {
		lo = b.Min
	}
	hi := a.Max
	if b.Max < hi {
		hi = b.Max
	}
	if lo > hi {
		return BoundsTop()
	}
	return Bounds{Min: lo, Max: hi}
}

// Union is the lattice join (⊔): the smallest interval covering both.
func (a Bounds) Union(b Bounds) Bounds {
	if a.IsTop() {
		return b
	}
	if b.IsTop() {
		return a
	}
	lo := a.Min
	if b.Min < lo {
		lo = b.Min
	}
	hi := a.Max
	if b.Max > hi {
		hi = b.Max
	}
	return Bounds{Min: lo, Max: hi}
}

// IsSubset reports whether a's concrete set is contained in b's
// (pointwise lattice order: a has at least as much information as b).
func (a Bounds) IsSubset(b Bounds) bool {
	if a.IsTop() {
		return true
	}
	if b.IsTop() {
		return false
	}
	return a.Min >= b.Min && a.Max <= b.Max
}

// ToBits derives the known-bit information implied purely by the interval:
// bits above the highest position where Min and Max differ are known equal
// to those shared high bits; everything at or below that position is
// unknown. Mirrors the original's bounds-to-bits half of normalize.
func (b Bounds) ToBits(mask uint64) KnownBits {
	if b.IsTop() {
		return BitsTop()
	}
	if b.Min == b.Max {
		return BitsFromConst(b.Min, mask)
	}
	diff := (b.Min ^ b.Max) & mask
	// Highest differing bit; everything strictly above it is shared.
	highDiff := bitLen64(diff)
	if highDiff == 0 {
		return BitsFromConst(b.Min, mask)
	}
	sharedMask := mask &^ ((uint64(1) << highDiff) - 1)
	shared := b.Min & sharedMask
	return KnownBits{
		Known0: (^shared) & sharedMask,
		Known1: shared,
	}
}

func bitLen64(v uint64) uint8 {
	n := uint8(0)
	for v != 0 {
		v >>= 1
		n++
	}
	return n
}

// tightenLow finds the smallest value >= lo consistent with k within mask,
// returning ok=false if no such value exists (i.e. the constraint is ⊤).
// A reformulation of the original's "scan known bits, bump the moving
// endpoint" tighten_bounds: it resolves from the highest bit where lo
// conflicts with k, using a free-bit increment instead of a bit-by-bit scan.
func tightenLow(lo uint64, k KnownBits, mask uint64) (uint64, bool) {
	free := mask &^ (k.Known0 | k.Known1)
	forced := k.Known1 & mask
	candidate := forced | (lo & free)
	if candidate == lo {
		return candidate, true
	}
	h := uint64(1) << (bitLen64(candidate^lo) - 1)
	below := h - 1
	if candidate > lo {
		// h is a known-1 bit lo lacks: keep the prefix, minimize below h.
		return (candidate &^ below) | (forced & below), true
	}
	// h is a known-0 bit lo has: bump the lowest free 0 bit above h.
	y, ok := incrementWithinMask((lo&free&^below)|(free&below), free)
	if !ok {
		return 0, false
	}
	return forced | y, true
}

// tightenHigh is the symmetric search for the largest value <= hi.
func tightenHigh(hi uint64, k KnownBits, mask uint64) (uint64, bool) {
	free := mask &^ (k.Known0 | k.Known1)
	forced := k.Known1 & mask
	candidate := forced | (hi & free)
	if candidate == hi {
		return candidate, true
	}
	h := uint64(1) << (bitLen64(candidate^hi) - 1)
	below := h - 1
	if candidate < hi {
		// h is a known-0 bit hi has: keep the prefix, maximize below h.
		return (candidate &^ below) | ((forced | free) & below), true
	}
	// h is a known-1 bit hi lacks: drop the lowest free 1 bit above h.
	y, ok := decrementWithinMask(hi&free&^below, free)
	if !ok {
		return 0, false
	}
	return forced | y, true
}

// incrementWithinMask adds 1 to y, treating only the bits set in free as
// significant (a ripple-carry restricted to those bit positions).
func incrementWithinMask(y, free uint64) (uint64, bool) {
	for bit := uint64(1); bit != 0; bit <<= 1 {
		if free&bit == 0 {
			continue
		}
		if y&bit == 0 {
			y |= bit
			y &^= (bit - 1) & free
			return y, true
		}
	}
	return 0, false
}

// decrementWithinMask subtracts 1 from y within the free bit positions.
func decrementWithinMask(y, free uint64) (uint64, bool) {
	for bit := uint64(1); bit != 0; bit <<= 1 {
		if free&bit == 0 {
			continue
		}
		if y&bit != 0 {
			y &^= bit
			y |= (bit - 1) & free
			return y, true
		}
	}
	return 0, false
}

// ApplyMask clamps b into [0, mask], preserving its span where possible and
// falling back to the full [0, mask] range when the span can't be
// represented post-mask. Mirrors the original's apply_mask(bounds_t).
func (b Bounds) ApplyMask(mask uint64) Bounds {
	if b.IsTop() {
		return BoundsTop()
	}
	if b.Max > mask {
		span := b.Max - b.Min
		min := b.Min & mask
		max := min + span
		if max > mask {
			return Bounds{Min: 0, Max: mask}
		}
		return Bounds{Min: min, Max: max}
	}
	return b
}

// Tighten narrows b to the smallest sub-interval consistent with k,
// returning Top() if no value in b satisfies k.
func (b Bounds) Tighten(k KnownBits, mask uint64) Bounds {
	if b.IsTop() || k.IsTop() {
		return BoundsTop()
	}
	lo, ok := tightenLow(b.Min, k, mask)
	if !ok || lo > b.Max {
		return BoundsTop()
	}
	hi, ok := tightenHigh(b.Max, k, mask)
	if !ok || hi < lo {
		return BoundsTop()
	}
	return Bounds{Min: lo, Max: hi}
}
