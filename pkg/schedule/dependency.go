package schedule

import "github.com/00mjk/nesfab/pkg/ssa"

// graph holds the per-node scheduling metadata built once per block: each
// node's index in block order, its transitive dependency-closure bitset,
// the carry-clobberer set, and (if any) the single in-block consumer that
// receives a node's carry output.
type graph struct {
	cfg   *ssa.CFG
	block *ssa.Block

	order []ssa.Handle
	index map[ssa.Handle]int

	deps            []bitSet
	carryUser       []ssa.Handle
	carryClobberers bitSet
}

// consumesCarryAt0 reports whether op reads a live carry through its first
// input, mirroring the original's ssa_input0_class(op) == INPUT_CARRY check.
// In this core's reduced opcode set only the add/adc-family op does.
func consumesCarryAt0(op ssa.OpCode) bool { return op == ssa.OpAdd }

// buildGraph computes the static dependency closure for every node in
// block: every input (ignoring SSA_phi, which can introduce cycles a
// straight-line schedule can't respect), every daisy-chain predecessor, and
// the terminating conditional depending on everything else. Grounded on
// cg_schedule.cpp's scheduler_t constructor up to (and including) its first
// run() call.
func buildGraph(cfg *ssa.CFG, block *ssa.Block) *graph {
	g := &graph{
		cfg:   cfg,
		block: block,
		order: block.Nodes,
		index: make(map[ssa.Handle]int, len(block.Nodes)),
	}
	n := len(g.order)
	for i, h := range g.order {
		g.index[h] = i
	}
	g.deps = make([]bitSet, n)
	for i := range g.deps {
		g.deps[i] = newBitSet(n)
	}

	if term := block.Terminator; term != ssa.InvalidHandle {
		if node := cfg.Node(term); node != nil && node.Op == ssa.OpIf {
			if ti, ok := g.index[term]; ok {
				for _, h := range g.order {
					if h != term {
						g.deps[ti].set(g.index[h])
					}
				}
			}
		}
	}

	for _, h := range g.order {
		node := cfg.Node(h)
		if node == nil || node.Op == ssa.OpPhi {
			continue
		}
		i := g.index[h]
		for _, in := range node.Inputs {
			inNode := cfg.Node(in)
			if inNode == nil || inNode.Block != node.Block {
				continue
			}
			ii, ok := g.index[in]
			if !ok {
				continue
			}
			g.deps[i].set(ii)
			g.deps[i].or(g.deps[ii])
		}
		if node.Daisy != ssa.InvalidHandle {
			if di, ok := g.index[node.Daisy]; ok {
				g.deps[i].set(di)
				g.deps[i].or(g.deps[di])
			}
		}
	}

	g.carryClobberers = newBitSet(n)
	for _, h := range g.order {
		node := cfg.Node(h)
		if node != nil && ssa.Flags(node.Op)&ssa.FlagClobbersCarry != 0 {
			g.carryClobberers.set(g.index[h])
		}
	}

	g.carryUser = make([]ssa.Handle, n)
	for i := range g.carryUser {
		g.carryUser[i] = ssa.InvalidHandle
	}
	applyCarryChainDeps(g)

	return g
}

// applyCarryChainDeps implements spec.md §4.2's pre-pass rule (d): for each
// node producing a carry consumed by exactly one in-block successor, make
// that node depend on every carry-clobberer in the consumer's dependency
// closure, so the scheduler never has to place a clobberer between carry
// producer and consumer. Skipped if it would introduce a cycle. Unlike
// cg_schedule.cpp — where the equivalent pass sits after an unconditional
// return and never runs — spec.md §4.2 lists this as live behavior, so it
// is wired here (see DESIGN.md).
func applyCarryChainDeps(g *graph) {
	n := len(g.order)
	for idx := n - 1; idx >= 0; idx-- {
		h := g.order[idx]
		node := g.cfg.Node(h)
		if node == nil {
			continue
		}

		var carryUser ssa.Handle
		ambiguous := false
		for _, oe := range node.Outputs {
			if oe.Input != 0 || !consumesCarryAt0Node(oe.Consumer, g.cfg) {
				continue
			}
			if carryUser != ssa.InvalidHandle {
				ambiguous = true
				break
			}
			carryUser = oe.Consumer
		}
		if ambiguous || carryUser == ssa.InvalidHandle {
			continue
		}
		consumerNode := g.cfg.Node(carryUser)
		if consumerNode == nil || consumerNode.Block != node.Block {
			continue
		}

		ui, ok := g.index[carryUser]
		if !ok {
			continue
		}
		g.carryUser[idx] = carryUser

		candidate := andAndNot(g.deps[ui], g.carryClobberers, g.deps[idx])
		candidate.clear(idx)
		if candidate.isEmpty() {
			continue
		}

		cycle := false
		candidate.forEach(n, func(bit int) bool {
			if g.deps[bit].test(idx) {
				cycle = true
				return false
			}
			return true
		})
		if cycle {
			continue
		}

		g.deps[idx].or(candidate)
		propagateDepsChange(g, idx)
	}
}

func propagateDepsChange(g *graph, changed int) {
	for i := range g.order {
		if g.deps[i].test(changed) {
			g.deps[i].or(g.deps[changed])
		}
	}
}

func consumesCarryAt0Node(h ssa.Handle, cfg *ssa.CFG) bool {
	node := cfg.Node(h)
	return node != nil && consumesCarryAt0(node.Op)
}
