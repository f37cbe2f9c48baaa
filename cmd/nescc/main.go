// Command nescc is a small developer CLI over the backend packages: header
// layout, peephole rewriting, and instruction-sequence equivalence checking.
// Built as a cobra root command with one subcommand per concern, parsing
// colon-separated assembly text the same way a Z80 superoptimizer's
// enumerate/target/stoke commands would, re-targeted to this backend's
// header/peephole/verify commands.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/00mjk/nesfab/pkg/asm6502"
	"github.com/00mjk/nesfab/pkg/asmproc"
	"github.com/00mjk/nesfab/pkg/locator"
	"github.com/00mjk/nesfab/pkg/rom"
	"github.com/00mjk/nesfab/pkg/verify"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nescc",
		Short: "NES backend developer CLI — header, peephole, verify",
	}

	rootCmd.AddCommand(newHeaderCmd(), newPeepholeCmd(), newVerifyCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newHeaderCmd() *cobra.Command {
	var mapperName string
	var mirroring string
	var prgKB, chrKB uint

	cmd := &cobra.Command{
		Use:   "header",
		Short: "Build and print an iNES 2.0 header for a mapper configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMirroring(mirroring)
			if err != nil {
				return err
			}
			params := rom.Params{Mirroring: mode, PRGSize: prgKB, CHRSize: chrKB}

			factory, err := mapperFactory(mapperName)
			if err != nil {
				return err
			}
			m, err := factory(params)
			if err != nil {
				return fmt.Errorf("invalid mapper configuration: %w", err)
			}

			buf := make([]byte, 16)
			if err := rom.WriteINESHeader(buf, m); err != nil {
				return err
			}
			fmt.Printf("mapper: %s\n", mapperName)
			fmt.Printf("header: % 02X\n", buf)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapperName, "mapper", "nrom", "Mapper: nrom, cnrom, anrom, bnrom, gnrom, gtrom")
	cmd.Flags().StringVar(&mirroring, "mirroring", "none", "Mirroring: none, h, v, four")
	cmd.Flags().UintVar(&prgKB, "prg", 0, "PRG-ROM size in KiB (0 = mapper default)")
	cmd.Flags().UintVar(&chrKB, "chr", 0, "CHR-ROM size in KiB (0 = mapper default)")
	return cmd
}

func mapperFactory(name string) (func(rom.Params) (rom.Mapper, error), error) {
	switch strings.ToLower(name) {
	case "nrom":
		return rom.NROM, nil
	case "cnrom":
		return rom.CNROM, nil
	case "anrom":
		return rom.ANROM, nil
	case "bnrom":
		return rom.BNROM, nil
	case "gnrom":
		return rom.GNROM, nil
	case "gtrom":
		return rom.GTROM, nil
	default:
		return nil, fmt.Errorf("unknown mapper %q", name)
	}
}

func parseMirroring(s string) (rom.MirrorMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return rom.MirrorNone, nil
	case "h":
		return rom.MirrorH, nil
	case "v":
		return rom.MirrorV, nil
	case "four":
		return rom.Mirror4, nil
	default:
		return 0, fmt.Errorf("unknown mirroring %q: use none, h, v, or four", s)
	}
}

func newPeepholeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peephole [instructions]",
		Short: "Run peephole rewriting to fixpoint over a colon-separated instruction list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseAssembly(strings.Join(args, " "))
			if err != nil {
				return err
			}
			before := asmproc.NewProc(1, locator.None(), code)
			fmt.Printf("before (%d bytes): %s\n", before.Size(), disasmProc(before))

			asmproc.Peephole(before)
			fmt.Printf("after  (%d bytes): %s\n", before.Size(), disasmProc(before))
			return nil
		},
	}
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var deadFlagsStr string
	cmd := &cobra.Command{
		Use:   "verify [target] -- [candidate]",
		Short: "Check two colon-separated instruction sequences for equivalence",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// cobra drops the "--" itself and records where it stood.
			sep := cmd.ArgsLenAtDash()
			if sep < 0 {
				return fmt.Errorf("expected target and candidate separated by --")
			}
			target, err := parseStepSeq(strings.Join(args[:sep], " "))
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			candidate, err := parseStepSeq(strings.Join(args[sep:], " "))
			if err != nil {
				return fmt.Errorf("candidate: %w", err)
			}
			dead, err := parseDeadFlags(deadFlagsStr)
			if err != nil {
				return err
			}

			quick, err := verify.QuickCheckMasked(target, candidate, dead)
			if err != nil {
				return err
			}
			if !quick {
				fmt.Println("NOT EQUIVALENT (failed on fixed test vectors)")
				return nil
			}
			ok, err := verify.ExhaustiveCheckMasked(target, candidate, dead)
			if err != nil {
				return err
			}
			if ok {
				fmt.Println("EQUIVALENT")
			} else {
				fmt.Println("NOT EQUIVALENT (failed exhaustive sweep)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deadFlagsStr, "dead-flags", "none", "Dead flags mask: none, undoc, all, or hex")
	return cmd
}

func parseDeadFlags(s string) (verify.FlagMask, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return verify.DeadNone, nil
	case "undoc":
		return verify.DeadUndoc, nil
	case "all":
		return verify.DeadAll, nil
	default:
		s = strings.TrimPrefix(strings.ToLower(s), "0x")
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid --dead-flags value %q: use none, undoc, all, or hex", s)
		}
		return verify.FlagMask(v), nil
	}
}

// parseAssembly converts "LDA #$05 : STA $10 : RTS" into an asmproc.Inst
// list. Each instruction is MNEMONIC, optionally followed by an operand:
// "#$NN" for immediate, "$NN" for zero page, "$NNNN" for absolute.
func parseAssembly(text string) ([]asmproc.Inst, error) {
	var code []asmproc.Inst
	for _, part := range strings.Split(text, ":") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		inst, err := parseInst(part)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q: %w", part, err)
		}
		code = append(code, inst)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no instructions parsed from %q", text)
	}
	return code, nil
}

func parseInst(text string) (asmproc.Inst, error) {
	fields := strings.Fields(text)
	name, ok := mnemonicToName(fields[0])
	if !ok {
		return asmproc.Inst{}, fmt.Errorf("unknown mnemonic %q", fields[0])
	}

	operand := ""
	if len(fields) > 1 {
		operand = strings.Join(fields[1:], "")
	}
	mode, value, err := parseOperand(operand)
	if err != nil {
		return asmproc.Inst{}, err
	}

	op, ok := asm6502.GetOp(name, mode)
	if !ok {
		return asmproc.Inst{}, fmt.Errorf("%s has no %v addressing mode", fields[0], mode)
	}

	var arg locator.Locator
	switch mode {
	case asm6502.Immediate:
		arg = locator.ConstByte(uint8(value))
	case asm6502.ZeroPage, asm6502.ZeroPageX, asm6502.ZeroPageY, asm6502.Absolute, asm6502.AbsoluteX, asm6502.AbsoluteY:
		arg = locator.Addr(uint32(value))
	}
	return asmproc.Inst{Op: op, Arg: arg}, nil
}

func parseOperand(s string) (asm6502.Mode, int, error) {
	if s == "" {
		return asm6502.Implied, 0, nil
	}
	if strings.HasPrefix(s, "#$") {
		v, err := strconv.ParseInt(s[2:], 16, 32)
		return asm6502.Immediate, int(v), err
	}
	if strings.HasPrefix(s, "$") {
		hex := s[1:]
		mode := asm6502.ZeroPage
		if len(hex) > 2 {
			mode = asm6502.Absolute
		}
		v, err := strconv.ParseInt(hex, 16, 32)
		return mode, int(v), err
	}
	return asm6502.Implied, 0, fmt.Errorf("unrecognized operand %q", s)
}

func mnemonicToName(s string) (asm6502.Name, bool) {
	names := map[string]asm6502.Name{
		"LDA": asm6502.LDA, "LDX": asm6502.LDX, "LDY": asm6502.LDY,
		"STA": asm6502.STA, "STX": asm6502.STX, "STY": asm6502.STY,
		"INC": asm6502.INC, "DEC": asm6502.DEC,
		"INX": asm6502.INX, "INY": asm6502.INY, "DEX": asm6502.DEX, "DEY": asm6502.DEY,
		"ADC": asm6502.ADC, "SBC": asm6502.SBC,
		"AND": asm6502.AND, "ORA": asm6502.ORA, "EOR": asm6502.EOR,
		"ASL": asm6502.ASL, "LSR": asm6502.LSR, "ROL": asm6502.ROL, "ROR": asm6502.ROR,
		"CMP": asm6502.CMP, "CPX": asm6502.CPX, "CPY": asm6502.CPY, "BIT": asm6502.BIT,
		"JMP": asm6502.JMP, "JSR": asm6502.JSR, "RTS": asm6502.RTS, "RTI": asm6502.RTI,
		"PHP": asm6502.PHP, "PHA": asm6502.PHA, "PLP": asm6502.PLP, "PLA": asm6502.PLA,
		"TAX": asm6502.TAX, "TAY": asm6502.TAY, "TXA": asm6502.TXA, "TYA": asm6502.TYA,
		"TSX": asm6502.TSX, "TXS": asm6502.TXS,
		"CLC": asm6502.CLC, "SEC": asm6502.SEC, "CLI": asm6502.CLI, "SEI": asm6502.SEI,
		"CLD": asm6502.CLD, "SED": asm6502.SED, "CLV": asm6502.CLV,
		"NOP": asm6502.NOP, "BRK": asm6502.BRK,
		"BEQ": asm6502.BEQ, "BNE": asm6502.BNE, "BCC": asm6502.BCC, "BCS": asm6502.BCS,
		"BPL": asm6502.BPL, "BMI": asm6502.BMI, "BVC": asm6502.BVC, "BVS": asm6502.BVS,
	}
	n, ok := names[strings.ToUpper(s)]
	return n, ok
}

func disasmProc(p *asmproc.Proc) string {
	var b strings.Builder
	for i, inst := range p.Code {
		if i > 0 {
			b.WriteString(" : ")
		}
		b.WriteString(asm6502.Disassemble(inst.Op, uint16(inst.Arg.Data())))
	}
	return b.String()
}

// parseStepSeq converts assembly text into verify.Step values, resolving
// each instruction's operand byte directly (verify operates on
// already-linked windows, not symbolic locators).
func parseStepSeq(text string) ([]verify.Step, error) {
	code, err := parseAssembly(text)
	if err != nil {
		return nil, err
	}
	steps := make([]verify.Step, len(code))
	for i, inst := range code {
		steps[i] = verify.Step{Op: inst.Op, Operand: uint8(inst.Arg.Data())}
	}
	return steps, nil
}
