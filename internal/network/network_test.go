package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildSingleArcNetwork(beta, alpha, capacity, freeFlow float64) *Network {
	n := New(2, 2, 2)
	n.Demand[0] = []float64{0, 50}
	n.Demand[1] = []float64{0, 0}
	n.AddArc(Arc{
		Tail:         0,
		Head:         1,
		Capacity:     capacity,
		FreeFlowTime: freeFlow,
		Alpha:        alpha,
		Beta:         beta,
	})
	n.Finalize()
	return n
}

func TestFinalize_BindsFreeFlowCost(t *testing.T) {
	n := buildSingleArcNetwork(4, 0.15, 100, 1)
	assert.InDelta(t, 1.0, n.Arcs[0].Cost, Epsilon)
}

func TestEvalCost_Linear(t *testing.T) {
	n := buildSingleArcNetwork(1, 0.15, 100, 1)
	n.Arcs[0].Flow = 50
	got := n.Arcs[0].EvalCost()
	want := 1.0 * (1 + 0.15*0.5)
	assert.InDelta(t, want, got, Epsilon)
}

func TestEvalCost_Quartic(t *testing.T) {
	n := buildSingleArcNetwork(4, 0.15, 100, 1)
	n.Arcs[0].Flow = 50
	got := n.Arcs[0].EvalCost()
	want := 1.0 * (1 + 0.15*0.0625)
	assert.InDelta(t, want, got, Epsilon)
}

func TestEvalCost_General(t *testing.T) {
	n := buildSingleArcNetwork(2, 0.15, 100, 1)
	n.Arcs[0].Flow = 50
	got := n.Arcs[0].EvalCost()
	want := 1.0 * (1 + 0.15*0.25)
	assert.InDelta(t, want, got, Epsilon)
}

func TestEvalCost_ZeroFlowGuardsPow(t *testing.T) {
	n := buildSingleArcNetwork(0, 0.15, 100, 1)
	n.Arcs[0].Flow = 0
	got := n.Arcs[0].EvalCost()
	assert.InDelta(t, 1.0, got, Epsilon)
}

func TestEvalCost_NegativeFlowTreatedAsZero(t *testing.T) {
	n := buildSingleArcNetwork(4, 0.15, 100, 1)
	n.Arcs[0].Flow = -5
	got := n.Arcs[0].EvalCost()
	assert.InDelta(t, 1.0, got, Epsilon)
}

func TestUpdateLinkCosts_Idempotent(t *testing.T) {
	n := buildSingleArcNetwork(4, 0.15, 100, 1)
	n.Arcs[0].Flow = 30
	n.UpdateLinkCosts()
	first := n.Arcs[0].Cost
	n.UpdateLinkCosts()
	assert.InDelta(t, first, n.Arcs[0].Cost, Epsilon)
}

func TestFixedCost_IncludesDistanceAndToll(t *testing.T) {
	n := New(2, 2, 2)
	n.DistanceFactor = 2
	n.TollFactor = 3
	n.AddArc(Arc{Tail: 0, Head: 1, Capacity: 1, FreeFlowTime: 1, Beta: 1, Length: 5, Toll: 1})
	n.Finalize()
	assert.InDelta(t, 13.0, n.Arcs[0].FixedCost, Epsilon)
}

func TestIsCentroid(t *testing.T) {
	n := New(4, 2, 2)
	assert.True(t, n.IsCentroid(0))
	assert.True(t, n.IsCentroid(1))
	assert.False(t, n.IsCentroid(2))
	assert.False(t, n.IsCentroid(3))
}

func TestAddArc_RegistersAdjacency(t *testing.T) {
	n := New(3, 2, 2)
	n.AddArc(Arc{Tail: 0, Head: 2, Beta: 1, Capacity: 1})
	n.AddArc(Arc{Tail: 2, Head: 1, Beta: 1, Capacity: 1})

	assert.Equal(t, []int{0}, n.Nodes[0].Out)
	assert.Equal(t, []int{0}, n.Nodes[2].In)
	assert.Equal(t, []int{1}, n.Nodes[2].Out)
	assert.Equal(t, []int{1}, n.Nodes[1].In)
}
