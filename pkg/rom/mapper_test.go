package rom

import "testing"

func TestNROMDefaults(t *testing.T) {
	m, err := NROM(Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Num32KBanks != 1 || m.Num8KCHRROM != 1 {
		t.Fatalf("defaults = %+v, want 1 PRG bank, 1 CHR bank", m)
	}
	if m.Mirroring != MirrorV {
		t.Fatalf("default mirroring = %v, want vertical", m.Mirroring)
	}
}

func TestNROMRejectsOversizedPRG(t *testing.T) {
	if _, err := NROM(Params{PRGSize: 64}); err == nil {
		t.Fatal("expected error: NROM PRG is fixed at 32K")
	}
}

func TestNROMRejectsFourScreenMirroring(t *testing.T) {
	if _, err := NROM(Params{Mirroring: Mirror4}); err == nil {
		t.Fatal("expected error: NROM doesn't support four-screen mirroring")
	}
}

func TestANROMRejectsExplicitMirroring(t *testing.T) {
	if _, err := ANROM(Params{Mirroring: MirrorH}); err == nil {
		t.Fatal("expected error: ANROM's mirroring is fixed by the board, not selectable")
	}
}

func TestANROMBankScaling(t *testing.T) {
	m, err := ANROM(Params{PRGSize: 256})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Num32KBanks != 8 {
		t.Fatalf("num32KBanks = %d, want 8", m.Num32KBanks)
	}
}

func TestANROMRejectsNonMultipleOf32(t *testing.T) {
	if _, err := ANROM(Params{PRGSize: 40}); err == nil {
		t.Fatal("expected error: 40 isn't a multiple of 32")
	}
}

func TestGTROMRequiresFourScreenOrNone(t *testing.T) {
	if _, err := GTROM(Params{Mirroring: MirrorV}); err == nil {
		t.Fatal("expected error: GTROM always wires four-screen mirroring")
	}
	m, err := GTROM(Params{})
	if err != nil || m.Mirroring != Mirror4 {
		t.Fatalf("GTROM default mirroring = %v, %v, want Mirror4, nil", m.Mirroring, err)
	}
}

func TestCNROMCHRScaling(t *testing.T) {
	m, err := CNROM(Params{CHRSize: 64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Num8KCHRROM != 8 {
		t.Fatalf("num8KCHRROM = %d, want 8", m.Num8KCHRROM)
	}
}

func TestCNROMRejectsCHRBelowMinimum(t *testing.T) {
	if _, err := CNROM(Params{CHRSize: 4}); err == nil {
		t.Fatal("expected error: CHR size below the 8K minimum")
	}
}
