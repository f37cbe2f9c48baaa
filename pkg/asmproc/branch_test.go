package asmproc

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

func TestConvertLongBranchOpsPromotesOutOfRange(t *testing.T) {
	target := locator.MinorLabel(0)
	code := []Inst{
		{Op: mustOp(t, asm6502.BEQ, asm6502.Relative), Arg: target},
	}
	// Pad with 200 bytes of filler so the branch displacement overflows.
	for i := 0; i < 200; i++ {
		code = append(code, Inst{Op: mustOp(t, asm6502.NOP, asm6502.Implied)})
	}
	code = append(code, Inst{Op: asm6502.OpAsmLabel, Arg: target})
	p := NewProc(1, locator.None(), code)

	if !ConvertLongBranchOps(p) {
		t.Fatal("expected a change")
	}
	if !asm6502.IsLongBranch(p.Code[0].Op) {
		t.Fatalf("mode = %v, want the long pseudo-mode", asm6502.OpMode(p.Code[0].Op))
	}
	if asm6502.OpName(p.Code[0].Op) != asm6502.BEQ {
		t.Fatal("promotion must preserve the branch condition")
	}

	if ConvertLongBranchOps(p) {
		t.Fatal("should already be stable")
	}
}

func TestConvertLongBranchOpsDemotesWhenItFits(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.BEQ, asm6502.Long), Arg: target},
		{Op: asm6502.OpAsmLabel, Arg: target},
	})
	if !ConvertLongBranchOps(p) {
		t.Fatal("expected a change")
	}
	if asm6502.OpMode(p.Code[0].Op) != asm6502.Relative {
		t.Fatalf("mode = %v, want Relative", asm6502.OpMode(p.Code[0].Op))
	}
}

func TestOptimizeShortJumpsPrunesJumpToNextInstruction(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.JMP, asm6502.Absolute), Arg: target},
		{Op: asm6502.OpAsmLabel, Arg: target},
		{Op: mustOp(t, asm6502.RTS, asm6502.Implied)},
	})
	if !OptimizeShortJumps(p, true) {
		t.Fatal("expected a change")
	}
	if p.Code[0].Op != asm6502.OpAsmPruned {
		t.Fatal("jump to the very next instruction should be pruned")
	}
}

func TestOptimizeShortJumpsElidesOneByteGapWithSKB(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.JMP, asm6502.Absolute), Arg: target},
		{Op: mustOp(t, asm6502.NOP, asm6502.Implied)}, // 1-byte dead filler
		{Op: asm6502.OpAsmLabel, Arg: target},
	})
	if !OptimizeShortJumps(p, true) {
		t.Fatal("expected a change")
	}
	if asm6502.OpName(p.Code[0].Op) != asm6502.SKB {
		t.Fatalf("slot 0 = %v, want SKB", asm6502.OpName(p.Code[0].Op))
	}
	if p.Code[1].Op != asm6502.OpAsmPruned {
		t.Fatal("the consumed filler instruction should be pruned")
	}
}

func TestOptimizeShortJumpsWithoutNopsLeavesJumpAlone(t *testing.T) {
	target := locator.MinorLabel(0)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.JMP, asm6502.Absolute), Arg: target},
		{Op: mustOp(t, asm6502.NOP, asm6502.Implied)},
		{Op: asm6502.OpAsmLabel, Arg: target},
	})
	if OptimizeShortJumps(p, false) {
		t.Fatal("expected no change when NOP insertion is disabled")
	}
	if asm6502.OpName(p.Code[0].Op) != asm6502.JMP {
		t.Fatal("jump must be left intact")
	}
}

func TestOptimizeShortJumpsCollapsesInverseBranchPair(t *testing.T) {
	innerTarget := locator.MinorLabel(0)
	outerTarget := locator.MinorLabel(1)
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.BEQ, asm6502.Relative), Arg: innerTarget},
		{Op: mustOp(t, asm6502.BNE, asm6502.Relative), Arg: outerTarget},
		{Op: asm6502.OpAsmLabel, Arg: innerTarget},
		{Op: mustOp(t, asm6502.RTS, asm6502.Implied)},
		{Op: asm6502.OpAsmLabel, Arg: outerTarget},
	})
	if !OptimizeShortJumps(p, false) {
		t.Fatal("expected a change")
	}
	if p.Code[0].Op != asm6502.OpAsmPruned {
		t.Fatal("the redundant leading branch should be pruned")
	}
	if asm6502.OpName(p.Code[1].Op) != asm6502.BNE {
		t.Fatal("the surviving branch should be untouched")
	}
}
