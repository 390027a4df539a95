// Package dial implements Dial's STOCH logit network loading: given a
// bush and the network's current link costs, it distributes one origin's
// demand across the bush's reasonable links in proportion to route
// likelihood under a logit route-choice model.
package dial

import (
	"math"

	"sueassign/internal/bush"
	"sueassign/internal/network"
)

// Loader holds scratch arrays reused across origins during one MSA
// iteration's target computation, avoiding an allocation per origin.
type Loader struct {
	theta float64

	likelihood []float64 // per arc
	weight     []float64 // per arc
	nodeWeight []float64 // per node
	nodeFlow   []float64 // per node
	flow       []float64 // per arc, the loader's output buffer
}

// NewLoader allocates scratch sized for the given network and dispersion
// parameter theta.
func NewLoader(net *network.Network, theta float64) *Loader {
	return &Loader{
		theta:      theta,
		likelihood: make([]float64, len(net.Arcs)),
		weight:     make([]float64, len(net.Arcs)),
		nodeWeight: make([]float64, net.NumNodes()),
		nodeFlow:   make([]float64, net.NumNodes()),
		flow:       make([]float64, len(net.Arcs)),
	}
}

// Load runs bush.ShortestPath for the bush's origin, then Dial's two-sweep
// logit loading (Steps A, B, C), and returns the per-arc flow contribution
// of this origin. The returned slice is the loader's internal buffer and
// is overwritten by the next call to Load.
func (l *Loader) Load(net *network.Network, b *bush.Bush) []float64 {
	label := b.ShortestPath(net)

	for i := range l.flow {
		l.flow[i] = 0
	}

	// Step A — likelihoods, over every bush-reasonable arc. Other arcs
	// are never read by Steps B and C, and their flow stays zero.
	for _, arcs := range b.ForwardStar {
		for _, arcIdx := range arcs {
			a := &net.Arcs[arcIdx]
			if label[a.Tail] == network.Infinity {
				l.likelihood[arcIdx] = 0
				continue
			}
			l.likelihood[arcIdx] = math.Exp(l.theta * (label[a.Head] - label[a.Tail] - a.Cost))
		}
	}

	// Step B — weights, forward sweep in topological order.
	for i := range l.nodeWeight {
		l.nodeWeight[i] = 0
	}
	l.nodeWeight[b.Origin] = 1
	for _, arcIdx := range b.ForwardStar[b.Origin] {
		l.weight[arcIdx] = l.likelihood[arcIdx]
	}
	for k := 1; k < len(b.Order); k++ {
		i := b.Order[k]
		var sum float64
		for _, arcIdx := range b.ReverseStar[i] {
			sum += l.weight[arcIdx]
		}
		l.nodeWeight[i] = sum
		for _, arcIdx := range b.ForwardStar[i] {
			l.weight[arcIdx] = l.nodeWeight[i] * l.likelihood[arcIdx]
		}
	}

	// Step C — flows, reverse sweep.
	for i := range l.nodeFlow {
		l.nodeFlow[i] = 0
	}
	for k := len(b.Order) - 1; k >= 0; k-- {
		i := b.Order[k]

		if i < net.NumZones {
			l.nodeFlow[i] += net.Demand[b.Origin][i]
		}
		for _, arcIdx := range b.ForwardStar[i] {
			l.nodeFlow[i] += l.flow[arcIdx]
		}

		for _, arcIdx := range b.ReverseStar[i] {
			if l.nodeWeight[i] == 0 {
				l.flow[arcIdx] = 0
				continue
			}
			l.flow[arcIdx] = l.nodeFlow[i] * l.weight[arcIdx] / l.nodeWeight[i]
		}
	}

	return l.flow
}
