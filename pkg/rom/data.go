package rom

import "github.com/00mjk/nesfab/pkg/locator"

// Proc is one compiled procedure's ROM-facing view: its final byte length
// and the locators its instruction stream references (operands still
// needing link-time resolution). pkg/asmproc owns the instruction list
// itself; Proc is the thin handle rom_data_ht and the linker need, mirroring
// rom_proc_t's relationship to asm_proc_t.
type Proc struct {
	Size      int
	Locators  []locator.Locator
	GroupUses uint64
}

// Assign records the group that referenced this procedure, OR'd into
// GroupUses — mirroring rom_proc_t::assign.
func (p *Proc) Assign(group uint32) {
	p.GroupUses |= uint64(1) << group
}

// UsesGroups reports whether any of the groups named by mask reference p.
func (p *Proc) UsesGroups(mask uint64) bool { return p.GroupUses&mask != 0 }

// ForEachGroupTest calls fn once per group index p references.
func (p *Proc) ForEachGroupTest(fn func(group uint32)) {
	uses := p.GroupUses
	for group := uint32(0); uses != 0; group++ {
		if uses&1 != 0 {
			fn(group)
		}
		uses >>= 1
	}
}

// ForEachLocator calls fn once per locator p's instruction stream references.
func (p *Proc) ForEachLocator(fn func(locator.Locator)) {
	for _, l := range p.Locators {
		fn(l)
	}
}

// DataKind tags rom_data_ht's two alternatives.
type DataKind uint8

const (
	DataArray DataKind = iota
	DataProc
)

func (k DataKind) String() string {
	if k == DataProc {
		return "proc"
	}
	return "array"
}

// Data is the tagged union of the two things that occupy ROM space: an
// interned byte array, or a compiled procedure. Mirrors rom_data_ht's
// ROMD_ARRAY/ROMD_PROC dispatch.
type Data struct {
	Kind  DataKind
	Array *Array
	Proc  *Proc
}

// ArrayData wraps a as Data.
func ArrayData(a *Array) Data { return Data{Kind: DataArray, Array: a} }

// ProcData wraps p as Data.
func ProcData(p *Proc) Data { return Data{Kind: DataProc, Proc: p} }

// MaxSize returns the byte length of whichever alternative is held.
func (d Data) MaxSize() int {
	switch d.Kind {
	case DataArray:
		return d.Array.MaxSize()
	case DataProc:
		return d.Proc.Size
	default:
		return 0
	}
}

// GroupUses returns the group-uses bitset of whichever alternative is held.
func (d Data) GroupUses() uint64 {
	switch d.Kind {
	case DataArray:
		return d.Array.GroupUses
	case DataProc:
		return d.Proc.GroupUses
	default:
		return 0
	}
}

// ForEachLocator dispatches to whichever alternative is held.
func (d Data) ForEachLocator(fn func(locator.Locator)) {
	switch d.Kind {
	case DataArray:
		d.Array.ForEachLocator(fn)
	case DataProc:
		d.Proc.ForEachLocator(fn)
	}
}
