package cache

import (
	"testing"

	"sueassign/internal/network"
)

func buildHashNetwork() *network.Network {
	n := network.New(3, 2, 2)
	n.Demand[0] = []float64{0, 50}
	n.Demand[1] = []float64{0, 0}
	n.AddArc(network.Arc{Tail: 0, Head: 2, Capacity: 10, FreeFlowTime: 1})
	n.AddArc(network.Arc{Tail: 2, Head: 1, Capacity: 5, FreeFlowTime: 2})
	n.Finalize()
	return n
}

func TestNetworkHash_NilNetwork(t *testing.T) {
	if hash := NetworkHash(nil); hash != "" {
		t.Errorf("NetworkHash(nil) = %v, want empty string", hash)
	}
}

func TestNetworkHash_SameNetworkProducesSameHash(t *testing.T) {
	n := buildHashNetwork()
	if NetworkHash(n) != NetworkHash(n) {
		t.Error("same network should produce same hash")
	}
}

func TestNetworkHash_DifferentCapacityProducesDifferentHash(t *testing.T) {
	n1 := buildHashNetwork()
	n2 := buildHashNetwork()
	n2.Arcs[0].Capacity = 999
	n2.Finalize()

	if NetworkHash(n1) == NetworkHash(n2) {
		t.Error("different capacities should produce different hashes")
	}
}

func TestNetworkHash_DifferentDemandProducesDifferentHash(t *testing.T) {
	n1 := buildHashNetwork()
	n2 := buildHashNetwork()
	n2.Demand[0][1] = 75

	if NetworkHash(n1) == NetworkHash(n2) {
		t.Error("different demand should produce different hashes")
	}
}

func TestBuildSolveKey(t *testing.T) {
	key := BuildSolveKey("abc123", 1.0, 0.5)
	expected := "solve:abc123:1.0000:0.5000"
	if key != expected {
		t.Errorf("BuildSolveKey() = %v, want %v", key, expected)
	}
}

func TestQuickHash(t *testing.T) {
	data := []byte("test data")
	hash := QuickHash(data)

	if len(hash) != 64 {
		t.Errorf("QuickHash length = %d, want 64", len(hash))
	}
	if hash != QuickHash(data) {
		t.Error("same data should produce same hash")
	}
}
