// Package schedule implements the greedy list scheduler of spec.md §4.2:
// given an SSA basic block it produces a linear node order respecting input
// dependencies, daisy-chain ordering, carry adjacency, and link placement.
// Grounded on original_source/src/cg_schedule.cpp's scheduler_t.
package schedule

import "github.com/00mjk/nesfab/pkg/ssa"

// state carries the mutable parts of a single scheduling run: the static
// graph built once, plus what's been scheduled so far and the live-carry
// tracker the greedy loop consults between picks.
type state struct {
	*graph

	scheduled         bitSet
	carryInputWaiting ssa.Handle
	result            []ssa.Handle
}

// Run schedules block's nodes and returns them in execution order. Panics
// (an internal error per spec.md §7) if the dependency graph is cyclic,
// since that indicates a bug upstream in IR construction, never a
// recoverable condition here.
func Run(cfg *ssa.CFG, block *ssa.Block) []ssa.Handle {
	g := buildGraph(cfg, block)
	s := &state{
		graph:     g,
		scheduled: newBitSet(len(g.order)),
		result:    make([]ssa.Handle, 0, len(g.order)),
	}

	var candidate ssa.Handle = ssa.InvalidHandle
	for len(s.result) < len(s.order) {
		if candidate != ssa.InvalidHandle {
			candidate = s.successorSearch(candidate)
		}
		if candidate == ssa.InvalidHandle {
			candidate = s.fullSearch(false)
		}
		if candidate == ssa.InvalidHandle {
			candidate = s.fullSearch(true)
		}
		if candidate == ssa.InvalidHandle {
			panic(schedulerInternalError())
		}

		i := s.index[candidate]
		s.appendSchedule(candidate)

		node := cfg.Node(candidate)
		if node != nil && consumesCarryAt0(node.Op) {
			s.carryInputWaiting = ssa.InvalidHandle
		}
		if user := s.carryUser[i]; user != ssa.InvalidHandle {
			s.carryInputWaiting = user
		}
	}

	return s.result
}

// appendSchedule places h and recursively, immediately, every link output
// of h — spec.md §4.2(e)'s "link outputs are scheduled immediately after
// their producer".
func (s *state) appendSchedule(h ssa.Handle) {
	s.scheduled.set(s.index[h])
	s.result = append(s.result, h)

	node := s.cfg.Node(h)
	if node == nil {
		return
	}
	for _, oe := range node.Outputs {
		if oe.IsLink {
			s.appendSchedule(oe.Consumer)
		}
	}
}

// ready reports whether h may be scheduled: not yet scheduled, every
// dependency satisfied, and (unless relaxed) not a carry-clobberer while a
// carry produced earlier is still awaiting its sole consumer.
func (s *state) ready(h ssa.Handle, scheduled bitSet, relax bool) bool {
	i, ok := s.index[h]
	if !ok {
		return false
	}
	if scheduled.test(i) {
		return false
	}
	if s.deps[i].hasUnsatisfied(scheduled) {
		return false
	}
	if relax {
		return true
	}
	if s.carryInputWaiting != ssa.InvalidHandle && h != s.carryInputWaiting && s.carryClobberers.test(i) {
		return false
	}
	return true
}

// pathLength recursively measures the depth of the ready-DAG rooted at h,
// simulating h's placement first, per spec.md §4.2's tie-breaking rule.
func (s *state) pathLength(h ssa.Handle, scheduled bitSet, relax bool) int {
	next := scheduled.clone()
	next.set(s.index[h])

	node := s.cfg.Node(h)
	if node == nil {
		return 0
	}

	maxLen := 0
	readyOutputs := 0
	for _, oe := range node.Outputs {
		out := oe.Consumer
		if !s.inBlock(out) {
			continue
		}
		if !s.ready(out, next, relax) {
			continue
		}
		readyOutputs++
		l := s.pathLength(out, next, relax)
		if l > maxLen {
			maxLen = l
		}
	}
	if readyOutputs > 1 {
		maxLen += readyOutputs - 1
	}
	return maxLen
}

func (s *state) inBlock(h ssa.Handle) bool {
	_, ok := s.index[h]
	return ok
}

// successorSearch is priority tier one: among the last-scheduled node's
// in-block outputs that are ready, pick the one with maximal path length.
func (s *state) successorSearch(last ssa.Handle) ssa.Handle {
	node := s.cfg.Node(last)
	if node == nil {
		return ssa.InvalidHandle
	}
	best := -1
	var bestH ssa.Handle = ssa.InvalidHandle
	for _, oe := range node.Outputs {
		succ := oe.Consumer
		if !s.inBlock(succ) || !s.ready(succ, s.scheduled, false) {
			continue
		}
		l := s.pathLength(succ, s.scheduled, false)
		if l > best {
			best = l
			bestH = succ
		}
	}
	return bestH
}

// fullSearch is priority tiers two (relax=false) and three (relax=true):
// scan every node in the block for a ready candidate with maximal path
// length.
func (s *state) fullSearch(relax bool) ssa.Handle {
	best := -1
	var bestH ssa.Handle = ssa.InvalidHandle
	for _, h := range s.order {
		if !s.ready(h, s.scheduled, relax) {
			continue
		}
		l := s.pathLength(h, s.scheduled, relax)
		if l > best {
			best = l
			bestH = h
		}
	}
	return bestH
}
