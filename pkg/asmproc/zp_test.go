package asmproc

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/locator"
)

func TestAbsoluteToZPPromotesKnownLowAddress(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: locator.Addr(0x80)},
	})
	if !AbsoluteToZP(p) {
		t.Fatal("expected a change")
	}
	if asm6502.OpMode(p.Code[0].Op) != asm6502.ZeroPage {
		t.Fatalf("mode = %v, want ZeroPage", asm6502.OpMode(p.Code[0].Op))
	}
}

func TestAbsoluteToZPLeavesHighAddressAlone(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: locator.Addr(0x2000)},
	})
	if AbsoluteToZP(p) {
		t.Fatal("expected no change for a hardware-range address")
	}
}

func TestAbsoluteToZPSkipsWhenNoCounterpartExists(t *testing.T) {
	// AbsoluteY has no zero-page counterpart for LDA (only ZeroPageX exists).
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.AbsoluteY), Arg: locator.Addr(0x10)},
	})
	if AbsoluteToZP(p) {
		t.Fatal("expected no change: LDA has no ZeroPageY form")
	}
}

func TestAbsoluteToZPLeavesUnresolvedOperandAlone(t *testing.T) {
	p := NewProc(1, locator.None(), []Inst{
		{Op: mustOp(t, asm6502.LDA, asm6502.Absolute), Arg: locator.GMember(5)},
	})
	if AbsoluteToZP(p) {
		t.Fatal("expected no change for a not-yet-linked symbolic operand")
	}
}
