package asmproc

import (
	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/diag"
	"github.com/00mjk/nesfab/pkg/locator"
)

// IsLabel reports whether l names a procedure-local label, the only
// locator class push_inst recognizes as needing a label-map entry.
func IsLabel(l locator.Locator) bool { return l.Class() == locator.ClassMinorLabel }

func labelKey(l locator.Locator) locator.Locator { return l.WithOffset(0) }

// labelInfo is one label's position, filled in by RebuildLabelMap
// (instruction index) and BuildLabelOffsets (byte offset).
type labelInfo struct {
	Index  int
	Offset int
}

// Proc is one compiled procedure: its instruction list plus a label map
// built from it. Mirrors asm_proc_t.
type Proc struct {
	FnID       uint32 // 0 if this proc has no owning function (e.g. inline asm)
	EntryLabel locator.Locator
	Code       []Inst

	labels map[locator.Locator]*labelInfo
}

// NewProc builds a Proc from a freshly-assembled instruction list and
// rebuilds its label map.
func NewProc(fnID uint32, entryLabel locator.Locator, code []Inst) *Proc {
	p := &Proc{FnID: fnID, EntryLabel: entryLabel, Code: code}
	p.RebuildLabelMap()
	return p
}

// RebuildLabelMap discards and recomputes the label→instruction-index map
// from Code. Panics on a duplicate label, matching push_inst's assertion.
func (p *Proc) RebuildLabelMap() {
	p.labels = make(map[locator.Locator]*labelInfo)
	for i, inst := range p.Code {
		if inst.Op == asm6502.OpAsmLabel && IsLabel(inst.Arg) {
			key := labelKey(inst.Arg)
			if _, dup := p.labels[key]; dup {
				panic(diag.NewInternalError("duplicate label %v", inst.Arg))
			}
			p.labels[key] = &labelInfo{Index: i}
		}
	}
}

// BuildLabelOffsets recomputes every label's byte offset by walking Code in
// order and summing instruction sizes.
func (p *Proc) BuildLabelOffsets() {
	offset := 0
	for _, inst := range p.Code {
		if inst.Op == asm6502.OpAsmLabel && IsLabel(inst.Arg) {
			p.labels[labelKey(inst.Arg)].Offset = offset
		}
		offset += int(asm6502.OpSize(inst.Op))
	}
}

// lookupLabel returns the label info for l without panicking, for passes
// that only rewrite operands known to target a label this proc owns (an
// external call target, for instance, legitimately has none).
func (p *Proc) lookupLabel(l locator.Locator) (*labelInfo, bool) {
	info, ok := p.labels[labelKey(l)]
	return info, ok
}

// getLabel returns the label info for l, panicking if the label is
// unknown — mirrors the original's passert-guarded get_label, reached only
// once earlier passes have established every referenced label exists.
func (p *Proc) getLabel(l locator.Locator) *labelInfo {
	info, ok := p.labels[labelKey(l)]
	if !ok {
		panic(diag.NewInternalError("missing label %v during link", l))
	}
	return info
}

// Size is the procedure's total byte length.
func (p *Proc) Size() int {
	total := 0
	for _, inst := range p.Code {
		total += int(asm6502.OpSize(inst.Op))
	}
	return total
}

// BytesBetween returns the signed byte distance from the start of
// instruction ai to the start of instruction bi.
func (p *Proc) BytesBetween(ai, bi int) int {
	if bi < ai {
		return -p.BytesBetween(bi, ai)
	}
	bytes := 0
	for i := ai; i < bi; i++ {
		bytes += int(asm6502.OpSize(p.Code[i].Op))
	}
	return bytes
}

// PushInst appends inst, recording it in the label map if it's a label —
// and panicking on a duplicate, matching push_inst's uniqueness assertion.
func (p *Proc) PushInst(inst Inst) {
	if inst.Op == asm6502.OpAsmLabel && IsLabel(inst.Arg) {
		key := labelKey(inst.Arg)
		if p.labels == nil {
			p.labels = make(map[locator.Locator]*labelInfo)
		}
		if _, dup := p.labels[key]; dup {
			panic(diag.NewInternalError("duplicate label %v", inst.Arg))
		}
		p.labels[key] = &labelInfo{Index: len(p.Code)}
	}
	p.Code = append(p.Code, inst)
}

// Append concatenates other's instructions onto p via PushInst, so labels
// are re-validated for uniqueness — mirrors asm_proc_t::append (minus the
// pstring-table renumbering, which belongs to the parser/diagnostics
// collaborator this module doesn't model).
func (p *Proc) Append(other *Proc) {
	for _, inst := range other.Code {
		p.PushInst(inst)
	}
}

// NextLabelID returns one past the highest minor-label id used so far, for
// minting a fresh, proc-unique label.
func (p *Proc) NextLabelID() uint32 {
	var next uint32
	for _, inst := range p.Code {
		if inst.Op == asm6502.OpAsmLabel && inst.Arg.Class() == locator.ClassMinorLabel {
			if d := inst.Arg.Data(); d+1 > next {
				next = d + 1
			}
		}
	}
	return next
}
