package bush

import "sueassign/internal/network"

// ShortestPath relaxes the bush's reasonable-link subgraph in topological
// order using the network's current arc costs, producing fresh node
// labels every call. This is linear time (one pass over Order) since the
// bush topology never changes after Build.
func (b *Bush) ShortestPath(net *network.Network) []float64 {
	n := len(b.Order)
	label := make([]float64, n)
	for i := range label {
		label[i] = network.Infinity
	}
	label[b.Origin] = 0

	for k := 1; k < n; k++ {
		i := b.Order[k]
		best := network.Infinity
		for _, arcIdx := range b.ReverseStar[i] {
			a := &net.Arcs[arcIdx]
			if label[a.Tail] == network.Infinity {
				continue
			}
			cand := label[a.Tail] + a.Cost
			if cand < best {
				best = cand
			}
		}
		label[i] = best
	}

	return label
}
