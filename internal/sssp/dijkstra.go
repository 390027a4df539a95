// Package sssp computes single-source shortest-path node labels over a
// network, honoring the centroid-connector restriction that zone nodes may
// be path endpoints but never intermediate nodes.
package sssp

import (
	"container/heap"

	"sueassign/internal/network"
)

// item is one entry in the priority queue.
type item struct {
	node     int
	distance float64
	index    int
}

// queue is a min-heap over item.distance, with (distance, node) tie
// breaking for determinism — grounded on the teacher's dijkstra.go
// priorityQueue.
type queue []*item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].node < q[j].node
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	it := x.(*item)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}

// ShortestPath computes the minimum-cost label from origin to every node
// using each arc's current Cost. Nodes strictly below net.FirstThroughNode
// (other than origin) may be relaxed into but are never expanded out of:
// an edge into such a node updates its label but the node is not pushed
// onto the heap, so no outgoing arc from it is ever considered.
func ShortestPath(net *network.Network, origin int) []float64 {
	n := net.NumNodes()
	label := make([]float64, n)
	for i := range label {
		label[i] = network.Infinity
	}
	label[origin] = 0

	pq := make(queue, 0, n)
	heap.Init(&pq)
	items := make([]*item, n)
	items[origin] = &item{node: origin, distance: 0}
	heap.Push(&pq, items[origin])

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(*item)
		u := cur.node

		for _, arcIdx := range net.Nodes[u].Out {
			a := &net.Arcs[arcIdx]
			v := a.Head
			newDist := label[u] + a.Cost
			if newDist < label[v] {
				label[v] = newDist
				if v < net.FirstThroughNode {
					continue
				}
				if it := items[v]; it != nil && it.index >= 0 {
					it.distance = newDist
					heap.Fix(&pq, it.index)
				} else {
					items[v] = &item{node: v, distance: newDist}
					heap.Push(&pq, items[v])
				}
			}
		}
	}

	return label
}
