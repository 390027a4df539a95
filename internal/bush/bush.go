// Package bush builds and maintains, for each origin zone, the
// "reasonable-link" acyclic subgraph (bush) that Dial's STOCH algorithm
// loads demand onto.
package bush

import (
	"sueassign/internal/network"
	"sueassign/internal/sssp"
	"sueassign/pkg/apperror"
)

// Bush is the per-origin reasonable-link subgraph: forward/reverse
// adjacency restricted to arcs (i,j) with freeFlowLabel[i] < freeFlowLabel[j],
// plus a topological order rooted at the origin.
type Bush struct {
	Origin int

	// ForwardStar[i] and ReverseStar[i] hold arc indices into the owning
	// Network whose tail (resp. head) is node i and which belong to this
	// bush — the flat, cache-friendly realization of the reasonable-link
	// adjacency described by the spec.
	ForwardStar [][]int
	ReverseStar [][]int

	// Order is the bush topological order; Order[0] == Origin.
	Order []int

	NumLinks int
	NumPaths uint64
}

// Build constructs the bush for a single origin: runs free-flow Dijkstra
// from origin, classifies every arc as reasonable iff its free-flow label
// strictly increases along it, computes a topological order via Kahn's
// algorithm seeded with the origin, and counts the number of distinct
// paths to each positive-demand zone.
func Build(net *network.Network, origin int) (*Bush, error) {
	n := net.NumNodes()
	label := sssp.ShortestPath(net, origin)

	b := &Bush{
		Origin:      origin,
		ForwardStar: make([][]int, n),
		ReverseStar: make([][]int, n),
	}

	for idx := range net.Arcs {
		a := &net.Arcs[idx]
		if label[a.Tail] < label[a.Head] {
			b.ForwardStar[a.Tail] = append(b.ForwardStar[a.Tail], idx)
			b.ReverseStar[a.Head] = append(b.ReverseStar[a.Head], idx)
			b.NumLinks++
		}
	}

	order, err := topoSort(net, n, origin, b.ForwardStar)
	if err != nil {
		return nil, err
	}
	b.Order = order

	b.NumPaths = countPaths(net, b)

	return b, nil
}

// topoSort computes a topological order of the reasonable-link subgraph
// via Kahn's algorithm, seeded with origin so it always occupies
// position 0. Grounded on the teacher's graph.Queue (slice + head
// pointer) FIFO pattern.
func topoSort(net *network.Network, n, origin int, forward [][]int) ([]int, error) {
	indegree := make([]int, n)
	for _, arcs := range forward {
		for _, arcIdx := range arcs {
			indegree[net.Arcs[arcIdx].Head]++
		}
	}

	q := newQueue(n)
	q.push(origin)
	visitedOrigin := make([]bool, n)
	visitedOrigin[origin] = true

	order := make([]int, 0, n)
	for !q.empty() {
		u := q.pop()
		order = append(order, u)
		for _, arcIdx := range forward[u] {
			v := net.Arcs[arcIdx].Head
			indegree[v]--
			if indegree[v] == 0 && !visitedOrigin[v] {
				visitedOrigin[v] = true
				q.push(v)
			}
		}
	}

	// Any node with indegree 0 and not yet visited (i.e. isolated from
	// the origin's bush) is appended in index order so Order always
	// covers every node, even ones unreachable from this origin.
	for v := 0; v < n; v++ {
		if !visitedOrigin[v] && indegree[v] == 0 {
			visitedOrigin[v] = true
			order = append(order, v)
		}
	}

	if len(order) != n {
		return nil, apperror.New(apperror.CodeBushCycle, "reasonable-link subgraph contains a cycle").
			WithDetails("origin", origin)
	}

	return order, nil
}

// countPaths counts, for each zone j with positive demand from this
// bush's origin, the number of distinct paths from origin to j within the
// bush, then sums them into NumPaths. Uses a 64-bit unsigned accumulator
// since path counts grow exponentially with graph size; saturates at
// math.MaxUint64 rather than silently overflowing.
func countPaths(net *network.Network, b *Bush) uint64 {
	n := len(b.Order)
	pathCount := make([]uint64, n)
	pathCount[b.Origin] = 1

	for k := 1; k < n; k++ {
		j := b.Order[k]
		var sum uint64
		for _, arcIdx := range b.ReverseStar[j] {
			h := net.Arcs[arcIdx].Tail
			sum = saturatingAdd(sum, pathCount[h])
		}
		pathCount[j] = sum
	}

	var total uint64
	for j := 0; j < net.NumZones; j++ {
		if net.Demand[b.Origin][j] > 0 {
			total = saturatingAdd(total, pathCount[j])
		}
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// queue is a FIFO over node indices, grounded on the teacher's
// graph.Queue: a slice with a head pointer to avoid per-pop allocation.
type queue struct {
	data []int
	head int
}

func newQueue(capacity int) *queue {
	return &queue{data: make([]int, 0, capacity)}
}

func (q *queue) push(v int) { q.data = append(q.data, v) }

func (q *queue) pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

func (q *queue) empty() bool { return q.head >= len(q.data) }
