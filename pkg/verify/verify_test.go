package verify

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/asm6502"
)

func mustOp(t *testing.T, n asm6502.Name, m asm6502.Mode) asm6502.OpCode {
	t.Helper()
	op, ok := asm6502.GetOp(n, m)
	if !ok {
		t.Fatalf("no opcode for %v/%v", n, m)
	}
	return op
}

func TestQuickCheckMaskedAndVsAnc(t *testing.T) {
	// AND #0xFF leaves carry untouched; ANC #0xFF (the illegal fusion) sets
	// carry from the result's sign bit. Same accumulator result, different
	// flags — analogous to LD A,0 vs XOR A on the Z80.
	target := []Step{{Op: mustOp(t, asm6502.AND, asm6502.Immediate), Operand: 0xFF}}
	candidate := []Step{{Op: mustOp(t, asm6502.ANC, asm6502.Immediate), Operand: 0xFF}}

	if ok, err := QuickCheck(target, candidate); err != nil || ok {
		t.Fatalf("QuickCheck should fail: AND and ANC disagree on carry (ok=%v err=%v)", ok, err)
	}
	ok, err := QuickCheckMasked(target, candidate, DeadAll)
	if err != nil || !ok {
		t.Fatalf("QuickCheckMasked(DeadAll) should pass: registers are identical (ok=%v err=%v)", ok, err)
	}
}

func TestQuickCheckMaskedDeadNoneMatchesQuickCheck(t *testing.T) {
	target := []Step{{Op: mustOp(t, asm6502.LDA, asm6502.Immediate), Operand: 5}}
	candidate := []Step{{Op: mustOp(t, asm6502.LDA, asm6502.Immediate), Operand: 5}}

	full, err := QuickCheck(target, candidate)
	if err != nil {
		t.Fatal(err)
	}
	masked, err := QuickCheckMasked(target, candidate, DeadNone)
	if err != nil {
		t.Fatal(err)
	}
	if full != masked {
		t.Fatalf("DeadNone should match QuickCheck: full=%v masked=%v", full, masked)
	}
}

func TestExhaustiveCheckConfirmsDcpEqualsDecThenCmp(t *testing.T) {
	dec := mustOp(t, asm6502.DEC, asm6502.ZeroPage)
	cmp := mustOp(t, asm6502.CMP, asm6502.ZeroPage)
	dcp := mustOp(t, asm6502.DCP, asm6502.ZeroPage)

	target := []Step{{Op: dec, Operand: 0x10}, {Op: cmp, Operand: 0x10}}
	candidate := []Step{{Op: dcp, Operand: 0x10}}

	ok, err := ExhaustiveCheck(target, candidate)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("DCP should be exhaustively equivalent to DEC followed by CMP against the decremented value")
	}
}

func TestExhaustiveCheckCatchesARealDivergence(t *testing.T) {
	target := []Step{{Op: mustOp(t, asm6502.INC, asm6502.ZeroPage), Operand: 0x10}}
	candidate := []Step{{Op: mustOp(t, asm6502.DEC, asm6502.ZeroPage), Operand: 0x10}}

	ok, err := ExhaustiveCheck(target, candidate)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("INC and DEC must not be reported equivalent")
	}
}

func TestFlagDiffReturnsZeroWhenRegistersDisagree(t *testing.T) {
	target := []Step{{Op: mustOp(t, asm6502.INC, asm6502.ZeroPage), Operand: 0x10}}
	candidate := []Step{{Op: mustOp(t, asm6502.DEC, asm6502.ZeroPage), Operand: 0x10}}

	diff, err := FlagDiff(target, candidate)
	if err != nil {
		t.Fatal(err)
	}
	if diff != 0 {
		t.Fatal("FlagDiff must report 0 when non-flag state diverges")
	}
}

func TestExecSeqReportsUnsupportedControlFlow(t *testing.T) {
	seq := []Step{{Op: mustOp(t, asm6502.BEQ, asm6502.Relative)}}
	if _, err := ExecSeq(TestVectors[0], seq); err == nil {
		t.Fatal("branches have no straight-line semantics and must error")
	}
}
