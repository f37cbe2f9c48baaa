package constraints

// Constraint is the triple (Bounds, Bits, Carry) from spec.md §3/§4.1.
type Constraint struct {
	Bounds Bounds
	Bits   KnownBits
	Carry  Carry
}

// Top is the impossible constraint.
func Top() Constraint {
	return Constraint{Bounds: BoundsTop(), Bits: BitsTop(), Carry: CarryBottom}
}

// Bottom is the unconstrained constraint within mask.
func Bottom(mask uint64) Constraint {
	return Constraint{Bounds: BoundsFull(mask), Bits: BitsBottom(mask), Carry: CarryTop}
}

// FromConst builds the constraint naming exactly one concrete value.
func FromConst(v, mask uint64) Constraint {
	return Constraint{Bounds: Bounds{Min: v & mask, Max: v & mask}, Bits: BitsFromConst(v, mask), Carry: CarryTop}
}

// ApplyMask clamps every component of c into the live bit range. Carry is
// untouched — it isn't a bit-range value and the original's apply_mask
// passes it through unchanged.
func (c Constraint) ApplyMask(mask uint64) Constraint {
	return Constraint{Bounds: c.Bounds.ApplyMask(mask), Bits: c.Bits.Apply(mask), Carry: c.Carry}
}

// IsConst reports whether c names exactly one concrete value.
func (c Constraint) IsConst() bool { return c.Bounds.Min == c.Bounds.Max }

// ConstValue returns the single value named by c. Only meaningful when
// IsConst reports true.
func (c Constraint) ConstValue() uint64 { return c.Bounds.Min }

// IsTop reports whether c is the impossible constraint — checked across all
// three components since any one of them reaching ⊤ makes the whole triple
// unreachable (spec.md §4.1, "Failure semantics").
func (c Constraint) IsTop() bool {
	return c.Bounds.IsTop() || c.Bits.IsTop() || c.Carry.IsBottom()
}

// Intersect is the lattice meet (⊓), applied component-wise.
func (a Constraint) Intersect(b Constraint) Constraint {
	r := Constraint{
		Bounds: a.Bounds.Intersect(b.Bounds),
		Bits:   a.Bits.Intersect(b.Bits),
		Carry:  a.Carry.Meet(b.Carry),
	}
	if r.Bounds.IsTop() || r.Bits.IsTop() || r.Carry.IsBottom() {
		return Top()
	}
	return r
}

// Union is the lattice join (⊔), applied component-wise.
func (a Constraint) Union(b Constraint) Constraint {
	if a.IsTop() {
		return b
	}
	if b.IsTop() {
		return a
	}
	return Constraint{
		Bounds: a.Bounds.Union(b.Bounds),
		Bits:   a.Bits.Union(b.Bits),
		Carry:  a.Carry.Join(b.Carry),
	}
}

// IsSubset is the pointwise lattice order.
func (a Constraint) IsSubset(b Constraint) bool {
	if a.IsTop() {
		return true
	}
	if b.IsTop() {
		return false
	}
	return a.Bounds.IsSubset(b.Bounds) && a.Bits.IsSubset(b.Bits) && a.Carry.IsSubset(b.Carry)
}

// Normalize computes the shared fixpoint of bounds and bits (spec.md §4.1):
// bounds is tightened by bits, then bits is tightened by bounds, and that
// pair of steps runs exactly twice — the original documents the fixpoint as
// reached within two passes, so no further pass or convergence check is
// made. Returns Top() on any contradiction.
func Normalize(c Constraint, mask uint64) Constraint {
	if c.IsTop() {
		return Top()
	}

	bounds := c.Bounds.Intersect(c.Bits.ToBounds(mask))
	bits := c.Bits.Intersect(bounds.ToBits(mask))
	bounds = bounds.Tighten(bits, mask)
	if bounds.IsTop() {
		return Top()
	}
	bits = bits.Intersect(bounds.ToBits(mask))
	if bits.IsTop() {
		return Top()
	}

	// Second pass: spec.md guarantees convergence in <=2 passes; apply it
	// once more. Nothing here checks that a third pass would change nothing;
	// TestNormalizeIdempotent covers that law (property 1).
	bounds2 := bounds.Tighten(bits, mask)
	if bounds2.IsTop() {
		return Top()
	}
	bits2 := bits.Intersect(bounds2.ToBits(mask))
	if bits2.IsTop() {
		return Top()
	}

	return Constraint{Bounds: bounds2, Bits: bits2, Carry: c.Carry}
}
