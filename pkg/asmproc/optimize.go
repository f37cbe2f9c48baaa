package asmproc

// Optimize runs the four-phase rewrite pipeline: peephole, absolute-to-zp
// promotion, short-jump elision, and branch-range resolution. useNops
// controls whether short-jump elision may substitute SKB/IGN (link still
// ahead, so later passes can keep shrinking the proc) — initial_optimize
// calls this with useNops=false so the first assembly pass has no NOPs to
// reason about; every later call allows them.
func Optimize(p *Proc, useNops bool) bool {
	changed := false
	if Peephole(p) {
		changed = true
	}
	if AbsoluteToZP(p) {
		changed = true
	}
	if OptimizeShortJumps(p, useNops) {
		changed = true
	}
	if ConvertLongBranchOps(p) {
		changed = true
	}
	return changed
}

// InitialOptimize runs the pipeline once without NOP insertion, the form
// used immediately after a proc is first assembled from the scheduler's
// output.
func InitialOptimize(p *Proc) bool {
	return Optimize(p, false)
}
