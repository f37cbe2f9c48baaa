package schedule

import "github.com/00mjk/nesfab/pkg/ssa"

// scheduleLocatorWrites implements cg_schedule.cpp's second dependency pass:
// a node whose result is eventually written to a named locator should come
// after the most recent prior daisy-chained node flagged FlagWriteGlobals
// under that same locator key; daisy-chained reads are not matched. In the
// original this sits after an unconditional return and
// never executes; per the documented decision in DESIGN.md it is kept here,
// fully implemented, but unreachable from Run — a future maintainer can
// wire it in by calling this after buildGraph.
func scheduleLocatorWrites(g *graph) {
	for idx, h := range g.order {
		node := g.cfg.Node(h)
		if node == nil || node.WritesLocatorKey == "" {
			continue
		}

		for daisy := node.Daisy; daisy != ssa.InvalidHandle; {
			daisyNode := g.cfg.Node(daisy)
			if daisyNode == nil {
				break
			}
			if ssa.Flags(daisyNode.Op)&ssa.FlagWriteGlobals != 0 &&
				daisyNode.WritesLocatorKey == node.WritesLocatorKey {

				di, ok := g.index[daisy]
				if !ok {
					break
				}
				if g.deps[di].test(idx) {
					break // would create a cycle
				}
				g.deps[idx].set(di)
				g.deps[idx].or(g.deps[di])
				propagateDepsChange(g, idx)
				break
			}
			daisy = daisyNode.Daisy
		}
	}
}
