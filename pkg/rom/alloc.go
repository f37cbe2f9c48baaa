package rom

import "math/bits"

// AllocKind tags rom_alloc_ht's three alternatives, per spec.md §4.5: a
// static allocation always present in every bank (ROMA_STATIC), one
// duplicated into a fixed set of banks (ROMA_MANY), and one placed in
// exactly one bank, chosen once by the allocator (ROMA_ONCE).
type AllocKind uint8

const (
	AllocStatic AllocKind = iota
	AllocMany
	AllocOnce
)

// BankAssignment is the result of the bank allocator deciding where a piece
// of Data lives. Which fields are meaningful depends on Kind, mirroring the
// original's rom_static_t/rom_many_t/rom_once_t union members.
type BankAssignment struct {
	Kind AllocKind
	Data Data

	DesiredAlignment uint32

	// InBanks is the bitset of banks holding a copy, meaningful only when
	// Kind == AllocMany.
	InBanks uint64

	// Bank and Spanned are meaningful only when Kind == AllocOnce: Bank is
	// the chosen bank once Spanned is true; before that, the allocation has
	// not yet been placed.
	Bank    int
	Spanned bool
}

// StaticAlloc builds a ROMA_STATIC assignment: present identically in every
// bank, so it always resolves to bank 0 (the original's convention for "any
// bank will do").
func StaticAlloc(d Data, align uint32) BankAssignment {
	return BankAssignment{Kind: AllocStatic, Data: d, DesiredAlignment: align}
}

// ManyAlloc builds a ROMA_MANY assignment duplicated into every bank named
// by inBanks.
func ManyAlloc(d Data, align uint32, inBanks uint64) BankAssignment {
	return BankAssignment{Kind: AllocMany, Data: d, DesiredAlignment: align, InBanks: inBanks}
}

// OnceAlloc builds an unplaced ROMA_ONCE assignment. Call Place once the
// allocator has chosen its bank.
func OnceAlloc(d Data, align uint32) BankAssignment {
	return BankAssignment{Kind: AllocOnce, Data: d, DesiredAlignment: align, Bank: -1}
}

// Place records the bank a ROMA_ONCE assignment was placed in.
func (a *BankAssignment) Place(bank int) {
	a.Bank = bank
	a.Spanned = true
}

// FirstBank returns the lowest-numbered bank holding this allocation, or -1
// if a ROMA_ONCE allocation hasn't been placed yet. Mirrors rom_alloc_ht's
// first_bank() dispatch.
func (a BankAssignment) FirstBank() int {
	switch a.Kind {
	case AllocStatic:
		return 0
	case AllocMany:
		if a.InBanks == 0 {
			return -1
		}
		return bits.TrailingZeros64(a.InBanks)
	case AllocOnce:
		if !a.Spanned {
			return -1
		}
		return a.Bank
	default:
		return -1
	}
}
