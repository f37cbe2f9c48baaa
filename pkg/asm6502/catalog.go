package asm6502

// Info is the per-opcode metadata row, analogous to an instruction-set
// catalog entry, keyed by OpCode instead of by Z80 mnemonic.
type Info struct {
	Op       OpCode
	Name     Name
	Mode     Mode
	Mnemonic string
	Opcode   byte // the real 6502 encoding byte; 0 for pseudo-ops
	Size     uint8
	Flags    Flags
}

var catalog []Info

func info(op OpCode) Info {
	if int(op) >= len(catalog) {
		panic("asm6502: opcode out of range")
	}
	return catalog[op]
}

func OpName(op OpCode) Name      { return info(op).Name }
func OpMode(op OpCode) Mode      { return info(op).Mode }
func OpSize(op OpCode) uint8     { return info(op).Size }
func OpFlags(op OpCode) Flags    { return info(op).Flags }
func OpByte(op OpCode) byte      { return info(op).Opcode }
func Mnemonic(op OpCode) string  { return info(op).Mnemonic }

func modeSize(m Mode) uint8 {
	switch m {
	case Implied, Accumulator:
		return 1
	case Immediate, ZeroPage, ZeroPageX, ZeroPageY, Relative, IndirectX, IndirectY:
		return 2
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	case Long:
		return 5
	default:
		return 0
	}
}

func init() {
	reg := func(n Name, m Mode, mnem string, code byte) {
		define(n, m, mnem, code, modeSize(m), 0)
	}

	// Loads / stores.
	reg(LDA, Immediate, "LDA", 0xA9)
	reg(LDA, ZeroPage, "LDA", 0xA5)
	reg(LDA, ZeroPageX, "LDA", 0xB5)
	reg(LDA, Absolute, "LDA", 0xAD)
	reg(LDA, AbsoluteX, "LDA", 0xBD)
	reg(LDA, AbsoluteY, "LDA", 0xB9)
	reg(LDA, IndirectX, "LDA", 0xA1)
	reg(LDA, IndirectY, "LDA", 0xB1)

	reg(LDX, Immediate, "LDX", 0xA2)
	reg(LDX, ZeroPage, "LDX", 0xA6)
	reg(LDX, ZeroPageY, "LDX", 0xB6)
	reg(LDX, Absolute, "LDX", 0xAE)
	reg(LDX, AbsoluteY, "LDX", 0xBE)

	reg(LDY, Immediate, "LDY", 0xA0)
	reg(LDY, ZeroPage, "LDY", 0xA4)
	reg(LDY, ZeroPageX, "LDY", 0xB4)
	reg(LDY, Absolute, "LDY", 0xAC)
	reg(LDY, AbsoluteX, "LDY", 0xBC)

	reg(STA, ZeroPage, "STA", 0x85)
	reg(STA, ZeroPageX, "STA", 0x95)
	reg(STA, Absolute, "STA", 0x8D)
	reg(STA, AbsoluteX, "STA", 0x9D)
	reg(STA, AbsoluteY, "STA", 0x99)
	reg(STA, IndirectX, "STA", 0x81)
	reg(STA, IndirectY, "STA", 0x91)

	reg(STX, ZeroPage, "STX", 0x86)
	reg(STX, ZeroPageY, "STX", 0x96)
	reg(STX, Absolute, "STX", 0x8E)

	reg(STY, ZeroPage, "STY", 0x84)
	reg(STY, ZeroPageX, "STY", 0x94)
	reg(STY, Absolute, "STY", 0x8C)

	// Read-modify-write.
	reg(INC, ZeroPage, "INC", 0xE6)
	reg(INC, ZeroPageX, "INC", 0xF6)
	reg(INC, Absolute, "INC", 0xEE)
	reg(INC, AbsoluteX, "INC", 0xFE)

	reg(DEC, ZeroPage, "DEC", 0xC6)
	reg(DEC, ZeroPageX, "DEC", 0xD6)
	reg(DEC, Absolute, "DEC", 0xCE)
	reg(DEC, AbsoluteX, "DEC", 0xDE)

	reg(ASL, Accumulator, "ASL", 0x0A)
	reg(ASL, ZeroPage, "ASL", 0x06)
	reg(ASL, ZeroPageX, "ASL", 0x16)
	reg(ASL, Absolute, "ASL", 0x0E)
	reg(ASL, AbsoluteX, "ASL", 0x1E)

	reg(LSR, Accumulator, "LSR", 0x4A)
	reg(LSR, ZeroPage, "LSR", 0x46)
	reg(LSR, ZeroPageX, "LSR", 0x56)
	reg(LSR, Absolute, "LSR", 0x4E)
	reg(LSR, AbsoluteX, "LSR", 0x5E)

	reg(ROL, Accumulator, "ROL", 0x2A)
	reg(ROL, ZeroPage, "ROL", 0x26)
	reg(ROL, ZeroPageX, "ROL", 0x36)
	reg(ROL, Absolute, "ROL", 0x2E)
	reg(ROL, AbsoluteX, "ROL", 0x3E)

	reg(ROR, Accumulator, "ROR", 0x6A)
	reg(ROR, ZeroPage, "ROR", 0x66)
	reg(ROR, ZeroPageX, "ROR", 0x76)
	reg(ROR, Absolute, "ROR", 0x6E)
	reg(ROR, AbsoluteX, "ROR", 0x7E)

	// ALU.
	for _, f := range []struct {
		n    Name
		mnem string
		imm, zp, zpx, abs, absx, absy, indx, indy byte
	}{
		{ADC, "ADC", 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71},
		{SBC, "SBC", 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1},
		{AND, "AND", 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31},
		{ORA, "ORA", 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11},
		{EOR, "EOR", 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51},
		{CMP, "CMP", 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1},
	} {
		reg(f.n, Immediate, f.mnem, f.imm)
		reg(f.n, ZeroPage, f.mnem, f.zp)
		reg(f.n, ZeroPageX, f.mnem, f.zpx)
		reg(f.n, Absolute, f.mnem, f.abs)
		reg(f.n, AbsoluteX, f.mnem, f.absx)
		reg(f.n, AbsoluteY, f.mnem, f.absy)
		reg(f.n, IndirectX, f.mnem, f.indx)
		reg(f.n, IndirectY, f.mnem, f.indy)
	}

	reg(CPX, Immediate, "CPX", 0xE0)
	reg(CPX, ZeroPage, "CPX", 0xE4)
	reg(CPX, Absolute, "CPX", 0xEC)

	reg(CPY, Immediate, "CPY", 0xC0)
	reg(CPY, ZeroPage, "CPY", 0xC4)
	reg(CPY, Absolute, "CPY", 0xCC)

	reg(BIT, ZeroPage, "BIT", 0x24)
	reg(BIT, Absolute, "BIT", 0x2C)

	// Implied single-register ops.
	for _, f := range []struct {
		n    Name
		mnem string
		code byte
	}{
		{INX, "INX", 0xE8}, {INY, "INY", 0xC8}, {DEX, "DEX", 0xCA}, {DEY, "DEY", 0x88},
		{TAX, "TAX", 0xAA}, {TAY, "TAY", 0xA8}, {TXA, "TXA", 0x8A}, {TYA, "TYA", 0x98},
		{TSX, "TSX", 0xBA}, {TXS, "TXS", 0x9A},
		{PHP, "PHP", 0x08}, {PHA, "PHA", 0x48}, {PLP, "PLP", 0x28}, {PLA, "PLA", 0x68},
		{CLC, "CLC", 0x18}, {SEC, "SEC", 0x38}, {CLI, "CLI", 0x58}, {SEI, "SEI", 0x78},
		{CLD, "CLD", 0xD8}, {SED, "SED", 0xF8}, {CLV, "CLV", 0xB8},
		{NOP, "NOP", 0xEA}, {BRK, "BRK", 0x00}, {RTI, "RTI", 0x40},
	} {
		define(f.n, Implied, f.mnem, f.code, 1, 0)
	}

	define(RTS, Implied, "RTS", 0x60, 1, FlagReturn)

	define(JMP, Absolute, "JMP", 0x4C, 3, FlagJump)
	define(JMP, Indirect, "JMP", 0x6C, 3, FlagJump)
	define(JSR, Absolute, "JSR", 0x20, 3, 0)

	// Relative branches, plus their MODE_LONG promoted form.
	for _, f := range []struct {
		n    Name
		mnem string
		code byte
	}{
		{BEQ, "BEQ", 0xF0}, {BNE, "BNE", 0xD0}, {BCC, "BCC", 0x90}, {BCS, "BCS", 0xB0},
		{BPL, "BPL", 0x10}, {BMI, "BMI", 0x30}, {BVC, "BVC", 0x50}, {BVS, "BVS", 0x70},
	} {
		define(f.n, Relative, f.mnem, f.code, 2, FlagBranch)
		define(f.n, Long, f.mnem, 0, 5, FlagBranch)
	}

	// Illegal / undocumented opcodes the peephole rewriter produces.
	reg(DCP, ZeroPage, "DCP", 0xC7)
	reg(DCP, Absolute, "DCP", 0xCF)
	reg(ISC, ZeroPage, "ISC", 0xE7)
	reg(ISC, Absolute, "ISC", 0xEF)
	reg(RLA, ZeroPage, "RLA", 0x27)
	reg(RLA, Absolute, "RLA", 0x2F)
	reg(RRA, ZeroPage, "RRA", 0x67)
	reg(RRA, Absolute, "RRA", 0x6F)
	reg(SLO, ZeroPage, "SLO", 0x07)
	reg(SLO, Absolute, "SLO", 0x0F)
	reg(SRE, ZeroPage, "SRE", 0x47)
	reg(SRE, Absolute, "SRE", 0x4F)
	define(ALR, Immediate, "ALR", 0x4B, 2, 0)
	define(ANC, Immediate, "ANC", 0x0B, 2, 0)
	reg(LAX, ZeroPage, "LAX", 0xA7)
	reg(LAX, Absolute, "LAX", 0xAF)
	define(SKB, Implied, "SKB", 0x80, 2, FlagFake)
	define(IGN, Implied, "IGN", 0x0C, 3, FlagFake)

	// Structural / pseudo ops. None of these carries a real 6502 encoding;
	// ASM_LABEL has size 0 per spec.md §3 ("Labels are instructions with
	// opcode ASM_LABEL and size 0"). ASM_PRUNED is the peephole "delete
	// marker"; size 0 so a pruned instruction contributes nothing to
	// offsets without needing a separate removal pass.
	OpAsmLabel = define(AsmLabel, Implied, "LABEL", 0, 0, FlagFake)
	OpAsmPruned = define(AsmPruned, Implied, "PRUNED", 0, 0, FlagFake)
	OpAsmData = define(AsmData, Implied, "DATA", 0, 1, FlagFake)

	OpStoreC = define(StoreC, Absolute, "STORE_C", 0, 10, FlagFake)
	OpStoreZ = define(StoreZ, Absolute, "STORE_Z", 0, 11, FlagFake)
	OpStoreN = define(StoreN, Absolute, "STORE_N", 0, 12, FlagFake)
	OpBankedYJSR = define(BankedYJSR, Implied, "BANKED_Y_JSR", 0, 7, FlagFake|FlagJump)
	OpBankedYJMP = define(BankedYJMP, Implied, "BANKED_Y_JMP", 0, 7, FlagFake|FlagJump|FlagReturn)
	OpAsmXSwitch = define(AsmXSwitch, Implied, "ASM_X_SWITCH", 0, 9, FlagFake|FlagSwitch|FlagJump)
	OpAsmYSwitch = define(AsmYSwitch, Implied, "ASM_Y_SWITCH", 0, 9, FlagFake|FlagSwitch|FlagJump)
}

// OpAsmLabel, OpAsmPruned, OpAsmData, and the pseudo-op expansion targets
// below are the concrete OpCodes for asm6502's structural/pseudo Names —
// resolved once at init time so pkg/asmproc can compare against them
// directly instead of re-deriving (Name, Mode) pairs at every call site.
var (
	OpAsmLabel    OpCode
	OpAsmPruned   OpCode
	OpAsmData     OpCode
	OpStoreC      OpCode
	OpStoreZ      OpCode
	OpStoreN      OpCode
	OpBankedYJSR  OpCode
	OpBankedYJMP  OpCode
	OpAsmXSwitch  OpCode
	OpAsmYSwitch  OpCode
)

// IsBranch reports whether op is a conditional branch (short or long form).
func IsBranch(op OpCode) bool { return OpFlags(op)&FlagBranch != 0 }

// IsRelativeBranch reports the short (2-byte, signed-displacement) form.
func IsRelativeBranch(op OpCode) bool { return IsBranch(op) && OpMode(op) == Relative }

// IsLongBranch reports the promoted pseudo-mode form.
func IsLongBranch(op OpCode) bool { return IsBranch(op) && OpMode(op) == Long }

// InvertBranch returns the logically-negated branch mnemonic, used when
// promoting a branch to its long (inverted-branch-over-JMP) form.
func InvertBranch(n Name) Name {
	switch n {
	case BEQ:
		return BNE
	case BNE:
		return BEQ
	case BCC:
		return BCS
	case BCS:
		return BCC
	case BPL:
		return BMI
	case BMI:
		return BPL
	case BVC:
		return BVS
	case BVS:
		return BVC
	default:
		return n
	}
}

// Disassemble renders a single instruction as "MNEM $ARG"-style text,
// enough for diagnostics and write_assembly-style dumps.
func Disassemble(op OpCode, arg uint16) string {
	i := info(op)
	switch i.Mode {
	case Implied, Accumulator:
		return i.Mnemonic
	case Immediate:
		return i.Mnemonic + " #$" + hex8(uint8(arg))
	case ZeroPage:
		return i.Mnemonic + " $" + hex8(uint8(arg))
	case ZeroPageX:
		return i.Mnemonic + " $" + hex8(uint8(arg)) + ",X"
	case ZeroPageY:
		return i.Mnemonic + " $" + hex8(uint8(arg)) + ",Y"
	case Relative, Long:
		return i.Mnemonic + " $" + hex16(arg)
	case Absolute:
		return i.Mnemonic + " $" + hex16(arg)
	case AbsoluteX:
		return i.Mnemonic + " $" + hex16(arg) + ",X"
	case AbsoluteY:
		return i.Mnemonic + " $" + hex16(arg) + ",Y"
	case Indirect:
		return i.Mnemonic + " ($" + hex16(arg) + ")"
	case IndirectX:
		return i.Mnemonic + " ($" + hex8(uint8(arg)) + ",X)"
	case IndirectY:
		return i.Mnemonic + " ($" + hex8(uint8(arg)) + "),Y"
	default:
		return i.Mnemonic
	}
}

const hexDigits = "0123456789ABCDEF"

func hex8(v uint8) string {
	return string([]byte{hexDigits[v>>4], hexDigits[v&0xF]})
}

func hex16(v uint16) string {
	return hex8(uint8(v>>8)) + hex8(uint8(v))
}
