package asmproc

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

// fakeResolver is a minimal locator.Resolver stub for exercising Link and
// WriteBytes without a real ROM/bank allocator.
type fakeResolver struct {
	romAddrs map[locator.Locator]uint16
}

func (r fakeResolver) LabelOffset(l locator.Locator) (int, bool) { return 0, false }

func (r fakeResolver) ROMAddr(l locator.Locator) (uint16, int, bool) {
	addr, ok := r.romAddrs[l.WithOffset(0)]
	return addr + uint16(l.Offset()), 0, ok
}

func (r fakeResolver) RuntimeAddr(l locator.Locator) (uint16, bool) { return 0, false }

func (r fakeResolver) LateBound(l locator.Locator) (locator.Locator, bool) {
	return locator.Locator(0), false
}

func TestLinkResolvesOperandsAndReoptimizes(t *testing.T) {
	g := locator.GMember(7)
	r := fakeResolver{romAddrs: map[locator.Locator]uint16{g: 0x10}}

	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: g},
	})
	p.Link(r, 0)

	if p.Code[0].Arg.Class() != locator.ClassAddr || p.Code[0].Arg.Data() != 0x10 {
		t.Fatalf("arg = %v, want resolved addr 0x10", p.Code[0].Arg)
	}
	// Link re-runs Optimize, which includes AbsoluteToZP: 0x10 is zero page.
	if asm6502.OpMode(p.Code[0].Op) != asm6502.ZeroPage {
		t.Fatalf("mode = %v, want ZeroPage after re-optimize", asm6502.OpMode(p.Code[0].Op))
	}
}

func TestLinkLeavesInlineAsmUnoptimized(t *testing.T) {
	g := locator.GMember(7)
	r := fakeResolver{romAddrs: map[locator.Locator]uint16{g: 0x10}}

	p := NewProc(0, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: g},
	})
	p.Link(r, 0)

	if asm6502.OpMode(p.Code[0].Op) != asm6502.Absolute {
		t.Fatal("inline asm (FnID 0) must not be re-optimized by Link")
	}
}

func TestRelocateSetsRelativeDisplacement(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.BEQ, asm6502.Relative), Arg: target},
		{Op: mustOp(t, asm6502.NOP, asm6502.Implied)},
		{Op: asm6502.OpAsmLabel, Arg: target},
	})
	if err := p.Relocate(0x8000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Code[0].Arg != locator.ConstByte(1) {
		t.Fatalf("displacement = %v, want 1", p.Code[0].Arg)
	}
}

func TestRelocateFailsOutOfRange(t *testing.T) {
	target := locator.MinorLabel(0)
	code := []Inst{
		{Op: mustOp(t, asm6502.BEQ, asm6502.Relative), Arg: target},
	}
	for i := 0; i < 200; i++ {
		code = append(code, Inst{Op: mustOp(t, asm6502.NOP, asm6502.Implied)})
	}
	code = append(code, Inst{Op: asm6502.OpAsmLabel, Arg: target})
	p := NewProc(1, locator.None(), code)

	if err := p.Relocate(0x8000); err == nil {
		t.Fatal("expected a relocate error for an out-of-range displacement")
	}
}

func TestRelocateSetsAbsoluteJumpTarget(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.JMP, asm6502.Absolute), Arg: target},
		{Op: mustOp(t, asm6502.NOP, asm6502.Implied)},
		{Op: asm6502.OpAsmLabel, Arg: target},
	})
	if err := p.Relocate(0x8000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := locator.Addr(0x8004)
	if p.Code[0].Arg != want {
		t.Fatalf("target = %v, want %v", p.Code[0].Arg, want)
	}
}

func TestWriteBytesEmitsOpcodeThenOperand(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Immediate), Arg: locator.ConstByte(0x42)},
		{Op: mustOp(t, asm6502.RTS, asm6502.Implied)},
	})
	out, err := p.WriteBytes(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xA9, 0x42, 0x60}
	if len(out) != len(want) {
		t.Fatalf("out = % x, want % x", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], want[i])
		}
	}
}

func TestWriteBytesFailsOnUnresolvedLocator(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: locator.GMember(3)},
	})
	if _, err := p.WriteBytes(nil); err == nil {
		t.Fatal("expected an error for an un-linked symbolic operand")
	}
}

func TestForEachInstExpandsStoreC(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: asm6502.OpStoreC, Arg: locator.GMember(1)},
	})
	var names []asm6502.Name
	p.ForEachInst(func(inst Inst) { names = append(names, asm6502.OpName(inst.Op)) })
	want := []asm6502.Name{asm6502.PHP, asm6502.PLA, asm6502.AND, asm6502.STA}
	if len(names) != len(want) {
		t.Fatalf("expanded to %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("inst %d = %v, want %v", i, names[i], want[i])
		}
	}
}

func TestForEachInstSkipsLabelsAndPrunedOps(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: asm6502.OpAsmLabel, Arg: locator.MinorLabel(0)},
		{Op: asm6502.OpAsmPruned},
		{Op: mustOp(t, asm6502.NOP, asm6502.Implied)},
	})
	var count int
	p.ForEachInst(func(inst Inst) { count++ })
	if count != 1 {
		t.Fatalf("visited %d instructions, want 1", count)
	}
}
