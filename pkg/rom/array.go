// Package rom implements the ROM data model described in spec.md §4.5: a
// content-hash-interned pool of constant byte arrays and procedures, the
// tagged unions describing how each is eventually assigned to a bank, and
// the iNES 2.0 header / mapper layer from spec.md §6. Grounded on
// original_source/src/rom.cpp (rom_array_t::make, locate_rom_arrays,
// rom_data_ht, rom_alloc_ht) and original_source/src/mapper.cpp (mapper_t's
// factory functions and write_ines_header).
package rom

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/00mjk/nesfab/pkg/locator"
)

// AllocRule names how aggressively an array's placement constraints must be
// honored. Values merge monotonically (the higher survives) whenever two
// equal arrays are interned from different call sites, mirroring the
// original's "rule intensity" field.
type AllocRule uint8

const (
	RuleNormal AllocRule = iota
	RuleDPCM             // sample data: must land on a sample-aligned boundary
)

// Array is one interned ROM byte array: its payload (one locator per byte —
// almost always const_byte, occasionally a reference needing late linking),
// plus the placement metadata accumulated across every intern call that
// produced an identical payload.
type Array struct {
	ID    uint32
	Data  []locator.Locator
	Align uint32
	Rule  AllocRule

	// GroupUses is a bitset of the group indices that reference this array,
	// OR'd in on every intern call — the original's "group-uses bitset".
	GroupUses uint64
}

// MaxSize is the array's byte length.
func (a *Array) MaxSize() int { return len(a.Data) }

// ForEachLocator calls fn once per locator the array's payload references
// (every element, including plain const bytes).
func (a *Array) ForEachLocator(fn func(locator.Locator)) {
	for _, l := range a.Data {
		fn(l)
	}
}

// Pool is the process-wide intern table for ROM arrays, guarded by a mutex
// so that pkg/compile's parallel per-function workers may all contribute
// arrays concurrently (spec.md §5's "protected by a mutex" resource rule).
type Pool struct {
	mu     sync.Mutex
	byHash map[[32]byte][]*Array
	arrays []*Array
}

// NewPool returns an empty intern pool.
func NewPool() *Pool {
	return &Pool{byHash: make(map[[32]byte][]*Array)}
}

func hashLocVec(data []locator.Locator) [32]byte {
	h := sha256.New()
	var buf [8]byte
	for _, l := range data {
		binary.LittleEndian.PutUint64(buf[:], uint64(l))
		h.Write(buf[:])
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func locVecEqual(a, b []locator.Locator) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Intern returns the pool's canonical *Array for data, creating one if no
// equal array has been interned before. On a repeat intern, align/rule/
// group-uses are merged monotonically into the existing array rather than
// replacing it — matching rom_array_t::make's "post-creation mutation is
// restricted to monotonic set bits" rule (spec.md §4.5).
func (p *Pool) Intern(data []locator.Locator, align uint32, rule AllocRule, group uint32) *Array {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := hashLocVec(data)
	for _, cand := range p.byHash[h] {
		if locVecEqual(cand.Data, data) {
			if align > cand.Align {
				cand.Align = align
			}
			if rule > cand.Rule {
				cand.Rule = rule
			}
			cand.GroupUses |= uint64(1) << group
			return cand
		}
	}

	arr := &Array{
		ID:        uint32(len(p.arrays)),
		Data:      data,
		Align:     align,
		Rule:      rule,
		GroupUses: uint64(1) << group,
	}
	p.byHash[h] = append(p.byHash[h], arr)
	p.arrays = append(p.arrays, arr)
	return arr
}

// Arrays returns every array interned so far, in intern order (stable ID
// order). Used by the linker to walk the full data set once compilation
// finishes.
func (p *Pool) Arrays() []*Array {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Array, len(p.arrays))
	copy(out, p.arrays)
	return out
}

// Array looks up a previously-interned array by its ID (the handle a
// locator.ROMArray locator carries as Data()).
func (p *Pool) Array(id uint32) *Array {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(id) >= len(p.arrays) {
		return nil
	}
	return p.arrays[id]
}
