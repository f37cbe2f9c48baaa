package asm6502

import "testing"

func TestGetOpRoundTrip(t *testing.T) {
	op, ok := GetOp(LDA, Immediate)
	if !ok {
		t.Fatal("expected LDA immediate to be defined")
	}
	if OpName(op) != LDA || OpMode(op) != Immediate {
		t.Fatalf("got name=%v mode=%v", OpName(op), OpMode(op))
	}
	if OpSize(op) != 2 {
		t.Fatalf("expected size 2, got %d", OpSize(op))
	}
}

func TestGetOpMissingCombination(t *testing.T) {
	if _, ok := GetOp(LDA, Implied); ok {
		t.Fatal("LDA has no implied addressing mode")
	}
}

func TestInvertBranchIsInvolution(t *testing.T) {
	for _, n := range []Name{BEQ, BNE, BCC, BCS, BPL, BMI, BVC, BVS} {
		if InvertBranch(InvertBranch(n)) != n {
			t.Fatalf("InvertBranch not involutive for %v", n)
		}
	}
}

func TestLongBranchSizeIsFive(t *testing.T) {
	op, ok := GetOp(BEQ, Long)
	if !ok {
		t.Fatal("expected BEQ long form")
	}
	// inverted-branch(2) + JMP opcode+lo+hi(3) = 5, matching asm_proc.cpp's
	// MODE_LONG emission: inverted-opcode, +3, JMP, lo, hi.
	if OpSize(op) != 5 {
		t.Fatalf("expected long branch size 5, got %d", OpSize(op))
	}
}

func TestDisassembleImmediate(t *testing.T) {
	op, _ := GetOp(LDA, Immediate)
	got := Disassemble(op, 0x0F)
	want := "LDA #$0F"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
