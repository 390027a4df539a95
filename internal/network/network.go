// Package network holds the road network topology and the BPR
// congestion-cost model used throughout the assignment engine.
package network

import "math"

// Numerical tolerances shared across the engine, grounded on the teacher's
// domain.Epsilon/Infinity pattern.
const (
	Epsilon  = 1e-9
	Infinity = math.MaxFloat64
)

// FloatEquals compares two float64 values within Epsilon.
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Arc is a directed road link.
type Arc struct {
	Tail int // 0-based node index
	Head int

	Capacity     float64
	FreeFlowTime float64
	Length       float64
	Toll         float64
	Alpha        float64
	Beta         float64
	SpeedLimit   float64
	LinkType     int

	// FixedCost is length*distanceFactor + toll*tollFactor, set once at
	// finalization.
	FixedCost float64

	// Flow and Cost are mutated throughout MSA.
	Flow float64
	Cost float64

	evalCost func(*Arc) float64
}

// Node is a topology vertex plus forward/reverse adjacency, stored as arc
// indices into Network.Arcs.
type Node struct {
	Out []int
	In  []int
}

// Network owns the full node/arc topology and OD demand matrix for one
// solve. Topology is immutable after Finalize; Flow/Cost on each arc are
// mutated by the MSA driver.
type Network struct {
	Nodes []Node
	Arcs  []Arc

	NumZones         int
	FirstThroughNode int

	// Demand[r][s] is the OD flow from zone r to zone s.
	Demand [][]float64

	DistanceFactor float64
	TollFactor     float64
}

// New allocates an empty network sized for numNodes nodes.
func New(numNodes, numZones, firstThroughNode int) *Network {
	return &Network{
		Nodes:            make([]Node, numNodes),
		NumZones:         numZones,
		FirstThroughNode: firstThroughNode,
		Demand:           make([][]float64, numZones),
	}
}

// AddArc appends an arc and registers it in both adjacency lists. Call
// Finalize once all arcs are added.
func (n *Network) AddArc(a Arc) {
	idx := len(n.Arcs)
	n.Arcs = append(n.Arcs, a)
	n.Nodes[a.Tail].Out = append(n.Nodes[a.Tail].Out, idx)
	n.Nodes[a.Head].In = append(n.Nodes[a.Head].In, idx)
}

// Finalize computes each arc's FixedCost and binds its BPR cost evaluator
// based on Beta, then sets every arc's initial Cost to its free-flow value.
func (n *Network) Finalize() {
	for i := range n.Arcs {
		a := &n.Arcs[i]
		a.FixedCost = a.Length*n.DistanceFactor + a.Toll*n.TollFactor
		a.evalCost = bindEvaluator(a.Beta)
		a.Cost = a.FixedCost + a.FreeFlowTime
	}
}

// bindEvaluator selects the BPR evaluator for the given exponent once, so
// the hot per-arc loop in UpdateLinkCosts does no branching on Beta.
func bindEvaluator(beta float64) func(*Arc) float64 {
	switch {
	case beta == 1:
		return evalLinear
	case beta == 4:
		return evalQuartic
	default:
		return evalGeneral
	}
}

func evalLinear(a *Arc) float64 {
	if a.Flow <= 0 {
		return a.FixedCost + a.FreeFlowTime
	}
	ratio := a.Flow / a.Capacity
	return a.FixedCost + a.FreeFlowTime*(1+a.Alpha*ratio)
}

func evalQuartic(a *Arc) float64 {
	if a.Flow <= 0 {
		return a.FixedCost + a.FreeFlowTime
	}
	ratio := a.Flow / a.Capacity
	sq := ratio * ratio
	y := sq * sq
	return a.FixedCost + a.FreeFlowTime*(1+a.Alpha*y)
}

func evalGeneral(a *Arc) float64 {
	if a.Flow <= 0 {
		return a.FixedCost + a.FreeFlowTime
	}
	ratio := a.Flow / a.Capacity
	return a.FixedCost + a.FreeFlowTime*(1+a.Alpha*math.Pow(ratio, a.Beta))
}

// EvalCost evaluates the arc's current BPR cost from its current Flow.
func (a *Arc) EvalCost() float64 {
	return a.evalCost(a)
}

// UpdateLinkCosts refreshes every arc's Cost field from its current Flow.
func (n *Network) UpdateLinkCosts() {
	for i := range n.Arcs {
		n.Arcs[i].Cost = n.Arcs[i].EvalCost()
	}
}

// IsCentroid reports whether node i is a centroid connector, i.e. below
// FirstThroughNode and therefore never transited during shortest-path
// search.
func (n *Network) IsCentroid(i int) bool {
	return i < n.FirstThroughNode
}

// NumNodes returns the number of nodes in the network.
func (n *Network) NumNodes() int {
	return len(n.Nodes)
}
