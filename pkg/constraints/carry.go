package constraints

// Carry is the four-valued lattice {⊥, clear, set, ⊤} from spec.md §3.
// Encoding: bit0 means "clear is excluded", bit1 means "set is excluded".
// ⊤ (00) excludes nothing; clear (10) excludes set; set (01) excludes
// clear; ⊥ (11) excludes both (impossible). Under this encoding meet is
// bitwise-OR (combining exclusions from two sources) and join is
// bitwise-AND (only what both exclude survives) — exactly the bitmask
// relationship spec.md §3 specifies, with ⊥ = clear ⊓ set = (10)|(01) = 11.
type Carry uint8

const (
	CarryTop   Carry = 0b00
	CarrySet   Carry = 0b01
	CarryClear Carry = 0b10
	CarryBottom Carry = 0b11
)

// Meet is the lattice ⊓.
func (c Carry) Meet(o Carry) Carry { return c | o }

// Join is the lattice ⊔.
func (c Carry) Join(o Carry) Carry { return c & o }

// IsBottom reports the impossible carry value.
func (c Carry) IsBottom() bool { return c == CarryBottom }

// IsSubset reports whether c carries at least as much information as o.
func (c Carry) IsSubset(o Carry) bool { return c.Meet(o) == c }

// KnownClear/KnownSet report a definite value.
func (c Carry) KnownClear() bool { return c == CarryClear }
func (c Carry) KnownSet() bool   { return c == CarrySet }
