package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"sueassign/internal/network"
)

// NetworkHash computes a deterministic hash of a network's topology,
// costs, and demand matrix for use as a cache key. Two networks that
// hash the same are expected to converge to the same equilibrium flows.
func NetworkHash(net *network.Network) string {
	if net == nil {
		return ""
	}
	hash := sha256.Sum256(networkCanonical(net))
	return hex.EncodeToString(hash[:16])
}

// networkCanonical builds a deterministic byte representation of a
// network. Arcs are already stored in a fixed (insertion) order, so no
// sorting is needed beyond iterating Arcs and Demand in index order.
func networkCanonical(net *network.Network) []byte {
	var result []byte

	result = append(result, fmt.Appendf(nil, "z:%d,n:%d,t:%d;",
		net.NumZones, net.NumNodes(), net.FirstThroughNode)...)
	result = append(result, fmt.Appendf(nil, "df:%.6f,tf:%.6f;",
		net.DistanceFactor, net.TollFactor)...)

	for _, a := range net.Arcs {
		result = append(result, fmt.Appendf(nil, "a:%d:%d:%.6f:%.6f:%.6f:%.6f:%.6f:%.6f;",
			a.Tail, a.Head, a.Capacity, a.FreeFlowTime, a.Length, a.Toll, a.Alpha, a.Beta)...)
	}

	for r, row := range net.Demand {
		for s, d := range row {
			if d == 0 {
				continue
			}
			result = append(result, fmt.Appendf(nil, "d:%d:%d:%.6f;", r, s, d)...)
		}
	}

	return result
}

// BuildSolveKey builds a cache key for a solved network under a given
// (theta, lambda) parameterization.
func BuildSolveKey(networkHash string, theta, lambda float64) string {
	return fmt.Sprintf("solve:%s:%.4f:%.4f", networkHash, theta, lambda)
}

// QuickHash is a general-purpose hash for arbitrary byte payloads, such
// as a rendered report before it is written to the cache or disk.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
