package schedule

import (
	"testing"

	"github.com/00mjk/nesfab/pkg/ssa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// link connects producer -> consumer on the given input index, recording
// the forward Inputs slot and the backward Outputs edge both packages need.
func link(cfg *ssa.CFG, producer, consumer ssa.Handle, input int, isLink bool) {
	p := cfg.Node(producer)
	p.Outputs = append(p.Outputs, ssa.OutputEdge{Consumer: consumer, Input: input, IsLink: isLink})
}

func posOf(order []ssa.Handle, h ssa.Handle) int {
	for i, x := range order {
		if x == h {
			return i
		}
	}
	return -1
}

func TestRunRespectsInputOrder(t *testing.T) {
	cfg := ssa.NewCFG()
	a := ssa.Handle(1)
	b := ssa.Handle(2)
	c := ssa.Handle(3)
	block := &ssa.Block{Nodes: []ssa.Handle{a, b, c}}

	cfg.Add(a, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(b, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{a}, Block: 1})
	cfg.Add(c, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{b}, Block: 1})
	link(cfg, a, b, 0, false)
	link(cfg, b, c, 0, false)

	order := Run(cfg, block)
	if len(order) != 3 {
		t.Fatalf("scheduled %d nodes, want 3", len(order))
	}
	if posOf(order, a) > posOf(order, b) || posOf(order, b) > posOf(order, c) {
		t.Fatalf("order %v violates input dependency a->b->c", order)
	}
}

func TestRunPlacesConditionalExitLast(t *testing.T) {
	cfg := ssa.NewCFG()
	a := ssa.Handle(1)
	b := ssa.Handle(2)
	exit := ssa.Handle(3)
	block := &ssa.Block{Nodes: []ssa.Handle{a, b, exit}, Terminator: exit}

	cfg.Add(a, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(b, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(exit, &ssa.Node{Op: ssa.OpIf, Inputs: []ssa.Handle{a}, Block: 1})
	link(cfg, a, exit, 0, false)

	order := Run(cfg, block)
	if order[len(order)-1] != exit {
		t.Fatalf("last scheduled = %v, want the conditional exit %v", order[len(order)-1], exit)
	}
}

func TestRunSchedulesLinkOutputImmediatelyAfterProducer(t *testing.T) {
	cfg := ssa.NewCFG()
	producer := ssa.Handle(1)
	linked := ssa.Handle(2)
	other := ssa.Handle(3)
	block := &ssa.Block{Nodes: []ssa.Handle{producer, linked, other}}

	cfg.Add(producer, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(linked, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{producer}, Block: 1})
	cfg.Add(other, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	link(cfg, producer, linked, 0, true)

	order := Run(cfg, block)
	pi, li := posOf(order, producer), posOf(order, linked)
	if li != pi+1 {
		t.Fatalf("link output at %d, want immediately after producer at %d", li, pi)
	}
}

func TestRunKeepsCarryProducerAdjacentToConsumer(t *testing.T) {
	cfg := ssa.NewCFG()
	carryProducer := ssa.Handle(1)
	clobberer := ssa.Handle(2)
	carryConsumer := ssa.Handle(3)
	block := &ssa.Block{Nodes: []ssa.Handle{carryProducer, clobberer, carryConsumer}}

	cfg.Add(carryProducer, &ssa.Node{Op: ssa.OpAdd, Inputs: []ssa.Handle{0, 0, 0}, Block: 1})
	cfg.Add(clobberer, &ssa.Node{Op: ssa.OpAdd, Inputs: []ssa.Handle{0, 0, 0}, Block: 1})
	cfg.Add(carryConsumer, &ssa.Node{Op: ssa.OpAdd, Inputs: []ssa.Handle{carryProducer, 0, 0}, Block: 1})
	link(cfg, carryProducer, carryConsumer, 0, false)

	order := Run(cfg, block)
	pi, ci := posOf(order, carryProducer), posOf(order, carryConsumer)
	bi := posOf(order, clobberer)
	if !(bi < pi || bi > ci) {
		t.Fatalf("clobberer at %d scheduled between carry producer (%d) and consumer (%d)", bi, pi, ci)
	}
}

func TestScheduleLocatorWritesIsUnwired(t *testing.T) {
	// scheduleLocatorWrites exists (see locator_deps.go) but Run never calls
	// it, matching the original's dead-code-after-return shape. This test
	// only documents that calling it directly doesn't panic on a trivial
	// graph, without asserting it affects Run's output.
	cfg := ssa.NewCFG()
	h := ssa.Handle(1)
	block := &ssa.Block{Nodes: []ssa.Handle{h}}
	cfg.Add(h, &ssa.Node{Op: ssa.OpUninitialized, Block: 1, WritesLocatorKey: "x"})

	g := buildGraph(cfg, block)
	scheduleLocatorWrites(g)
}

// TestRunOutputIsPermutationOfBlockNodes checks a scheduler law that must
// hold for every block regardless of shape: Run never drops or duplicates a
// node, it only reorders block.Nodes. Table-driven across a few block
// shapes, using require/assert for the property-style assertions per the
// corpus's testify usage on scheduler and lattice laws.
func TestRunOutputIsPermutationOfBlockNodes(t *testing.T) {
	cases := []struct {
		name  string
		build func() (*ssa.CFG, *ssa.Block)
	}{
		{
			name: "linear chain",
			build: func() (*ssa.CFG, *ssa.Block) {
				cfg := ssa.NewCFG()
				a, b, c := ssa.Handle(1), ssa.Handle(2), ssa.Handle(3)
				block := &ssa.Block{Nodes: []ssa.Handle{a, b, c}}
				cfg.Add(a, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
				cfg.Add(b, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{a}, Block: 1})
				cfg.Add(c, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{b}, Block: 1})
				link(cfg, a, b, 0, false)
				link(cfg, b, c, 0, false)
				return cfg, block
			},
		},
		{
			name: "conditional exit",
			build: func() (*ssa.CFG, *ssa.Block) {
				cfg := ssa.NewCFG()
				a, b, exit := ssa.Handle(1), ssa.Handle(2), ssa.Handle(3)
				block := &ssa.Block{Nodes: []ssa.Handle{a, b, exit}, Terminator: exit}
				cfg.Add(a, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
				cfg.Add(b, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
				cfg.Add(exit, &ssa.Node{Op: ssa.OpIf, Inputs: []ssa.Handle{a}, Block: 1})
				link(cfg, a, exit, 0, false)
				return cfg, block
			},
		},
		{
			name: "single node",
			build: func() (*ssa.CFG, *ssa.Block) {
				cfg := ssa.NewCFG()
				h := ssa.Handle(1)
				block := &ssa.Block{Nodes: []ssa.Handle{h}}
				cfg.Add(h, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
				return cfg, block
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, block := tc.build()
			order := Run(cfg, block)

			require.Len(t, order, len(block.Nodes), "Run must neither drop nor invent nodes")
			assert.ElementsMatch(t, block.Nodes, order, "Run's output must be a permutation of the block's nodes")

			seen := make(map[ssa.Handle]bool, len(order))
			for _, h := range order {
				assert.False(t, seen[h], "node %v scheduled more than once", h)
				seen[h] = true
			}
		})
	}
}

// TestRunTerminatorAlwaysScheduledLast is a second scheduler law: whenever a
// block has a Terminator, Run must place it last no matter how the rest of
// the block is shaped.
func TestRunTerminatorAlwaysScheduledLast(t *testing.T) {
	cfg := ssa.NewCFG()
	a, b, c, exit := ssa.Handle(1), ssa.Handle(2), ssa.Handle(3), ssa.Handle(4)
	block := &ssa.Block{Nodes: []ssa.Handle{a, b, c, exit}, Terminator: exit}

	cfg.Add(a, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(b, &ssa.Node{Op: ssa.OpUninitialized, Block: 1})
	cfg.Add(c, &ssa.Node{Op: ssa.OpCast, Inputs: []ssa.Handle{a}, Block: 1})
	cfg.Add(exit, &ssa.Node{Op: ssa.OpIf, Inputs: []ssa.Handle{b}, Block: 1})
	link(cfg, a, c, 0, false)
	link(cfg, b, exit, 0, false)

	order := Run(cfg, block)
	require.NotEmpty(t, order)
	assert.Equal(t, exit, order[len(order)-1], "terminator must always schedule last")
}
