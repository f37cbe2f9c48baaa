package locator

import "fmt"

// Resolver supplies the link-time facts a Locator can't carry on its own:
// resolved label offsets, ROM allocations, runtime addresses, and late-bound
// expression evaluation. One Resolver is built per ROM variant (romv) by
// the linker.
type Resolver interface {
	// LabelOffset returns the byte offset of a named or fn-entry label
	// within its owning procedure, as recorded by pkg/asmproc's link pass.
	LabelOffset(l Locator) (offset int, ok bool)

	// ROMAddr returns the address and first bank assigned to the ROM
	// allocation holding l's referent (a const, PAA, ROM array, or fn).
	ROMAddr(l Locator) (addr uint16, bank int, ok bool)

	// RuntimeAddr resolves LOC_RUNTIME_ROM / LOC_RUNTIME_RAM ids to a fixed
	// hardware or runtime-support address.
	RuntimeAddr(l Locator) (addr uint16, ok bool)

	// LateBound evaluates an LT_EXPR locator's selected byte, memoized per
	// ROM variant by the implementation.
	LateBound(l Locator) (Locator, bool)
}

// Link replaces a symbolic locator with a concrete one, per spec.md §4.4:
// named labels and fn-entries resolve via their owning procedure's label
// map; consts/PAAs resolve to their allocated ROM array's span; late-bound
// expressions recurse through LateBound; the bank selector (Is=IsBank)
// returns the allocation's first bank as a constant byte; pointer-hi/lo
// selectors return the high/low byte of the resolved address. A locator
// that can't yet be resolved is returned unchanged.
func Link(l Locator, r Resolver, bank int) Locator {
	switch l.Class() {
	case ClassThisBank:
		if bank >= 0 && bank < 256 {
			return ConstByte(uint8(bank))
		}
		return l

	case ClassLTExpr:
		if resolved, ok := r.LateBound(l); ok {
			return resolved
		}
		return l

	case ClassRuntimeROM, ClassRuntimeRAM:
		if l.Is() == IsBank {
			return ConstByte(0)
		}
		if addr, ok := r.RuntimeAddr(l); ok {
			return fromAddr(l, uint32(addr))
		}
		return l

	case ClassNamedLabel, ClassFnEntry:
		if offset, ok := r.LabelOffset(l); ok {
			return linkFromAlloc(l, r, offset)
		}
		return l

	case ClassGConst, ClassDPCM, ClassROMArray, ClassGMember, ClassArg,
		ClassReturn, ClassLocalVar, ClassSSA, ClassPhi, ClassNMIIndex:
		return linkFromAlloc(l, r, 0)

	case ClassAddr:
		// Offset already folded into the address; clear it.
		return Addr(uint32(int32(l.Data()) + l.Offset())).WithIs(l.Is())

	default:
		return l
	}
}

func linkFromAlloc(l Locator, r Resolver, spanOffset int) Locator {
	if l.Is() == IsBank {
		if _, bankNum, ok := r.ROMAddr(l); ok {
			if bankNum < 0 || bankNum >= 256 {
				return l
			}
			return ConstByte(uint8(bankNum))
		}
		return l
	}
	addr, _, ok := r.ROMAddr(l)
	if !ok {
		return l
	}
	return fromAddr(l, uint32(addr)+uint32(spanOffset)+uint32(l.Offset()))
}

func fromAddr(l Locator, addr uint32) Locator {
	if l.Is() == IsBank {
		return l
	}
	return Addr(addr).WithIs(l.Is())
}

// LinkedToROM converts an already-linked, address-class locator into its
// concrete 16-bit value: the full address, or its high byte when
// Is()==IsPtrHi. Locators that are not const-classed, or that still select
// a bank, can't be reduced to a plain number and return an error unless
// ignoreErrors is set (matching the original's ignore_errors fallback of
// returning 0).
func LinkedToROM(l Locator, ignoreErrors bool) (uint16, error) {
	if !l.IsConst() || l.Is() == IsBank {
		if ignoreErrors {
			return 0, nil
		}
		return 0, fmt.Errorf("locator: unable to link %v to a ROM value", l)
	}
	data := uint16(l.Data())
	if l.Is() == IsPtrHi {
		data >>= 8
	}
	return data, nil
}
