package rom

import (
	"sort"

	"github.com/00mjk/nesfab/pkg/locator"
	"github.com/00mjk/nesfab/pkg/ssa"
)

// ArrayResult is one SSA init_array node that LocateArrays turned into an
// interned ROM array, paired with the locator that should replace the
// node's uses. LocateArrays only inspects the CFG; rewiring the graph
// (splicing Locator into every consumer of Handle) is left to the caller,
// since that rewrite also touches pkg/asmproc's lowering and doesn't belong
// to the ROM data model itself.
type ArrayResult struct {
	Handle  ssa.Handle
	Locator locator.Locator
	Array   *Array
}

// LocateArrays walks every SSA_init_array node in cfg, per spec.md §4.5:
// nodes whose inputs aren't all constants-or-uninitialized are skipped;
// surviving nodes are trimmed of leading and trailing uninitialized slots,
// interned into pool, and reported with a ROM-array locator offset by the
// negative of the leading trim — so indexing through the original,
// untrimmed extent still lands on the right byte.
func LocateArrays(cfg *ssa.CFG, pool *Pool, group uint32, align uint32, rule AllocRule) []ArrayResult {
	var results []ArrayResult
	for h, n := range cfg.Nodes {
		if n.Op != ssa.OpInitArray {
			continue
		}
		data, begin, ok := trimInitArray(cfg, n.Inputs)
		if !ok || len(data) == 0 {
			continue
		}
		arr := pool.Intern(data, align, rule, group)
		loc := locator.ROMArray(arr.ID).WithOffset(-int32(begin))
		results = append(results, ArrayResult{Handle: h, Locator: loc, Array: arr})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Handle < results[j].Handle })
	return results
}

// trimInitArray validates that every input is either a constant byte or
// SSA_uninitialized, then strips leading/trailing uninitialized runs.
// begin is the count of leading uninitialized slots trimmed away.
func trimInitArray(cfg *ssa.CFG, inputs []ssa.Handle) (data []locator.Locator, begin int, ok bool) {
	full := make([]locator.Locator, len(inputs))
	isUninit := make([]bool, len(inputs))

	for i, h := range inputs {
		in := cfg.Node(h)
		if in == nil {
			return nil, 0, false
		}
		switch {
		case in.Op == ssa.OpUninitialized:
			isUninit[i] = true
		case in.IsConst:
			full[i] = locator.ConstByte(in.ConstValue)
		default:
			return nil, 0, false
		}
	}

	n := len(full)
	lo := 0
	for lo < n && isUninit[lo] {
		lo++
	}
	if lo == n {
		// Entirely uninitialized: nothing to locate.
		return nil, 0, false
	}
	hi := n
	for hi > lo && isUninit[hi-1] {
		hi--
	}

	return full[lo:hi], lo, true
}
