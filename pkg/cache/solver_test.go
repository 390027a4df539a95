package cache

import (
	"context"
	"testing"
	"time"

	"sueassign/internal/assign"
	"sueassign/internal/network"
)

func buildSolveCacheNetwork() *network.Network {
	n := network.New(2, 2, 2)
	n.Demand[0] = []float64{0, 100}
	n.Demand[1] = []float64{0, 0}
	n.AddArc(network.Arc{Tail: 0, Head: 1, Capacity: 100, FreeFlowTime: 1})
	n.Finalize()
	n.Arcs[0].Flow = 100
	n.Arcs[0].Cost = 1.1
	return n
}

func TestSolveCache_MissThenHit(t *testing.T) {
	mem := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 100})
	defer mem.Close()
	sc := NewSolveCache(mem, time.Minute)

	ctx := context.Background()
	n := buildSolveCacheNetwork()

	_, found, err := sc.Get(ctx, n, 1.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected cache miss before Set")
	}

	result := assign.Result{Converged: true, Reason: "tolerance", Iterations: 5, FinalDiff: 0.0001}
	if err := sc.Set(ctx, n, 1.0, 0.5, result, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cached, found, err := sc.Get(ctx, n, 1.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit after Set")
	}
	if !cached.Converged || cached.Iterations != 5 {
		t.Errorf("unexpected cached result: %+v", cached)
	}
	if len(cached.LinkFlows) != 1 || cached.LinkFlows[0].Flow != 100 {
		t.Errorf("unexpected link flows: %+v", cached.LinkFlows)
	}
}

func TestSolveCache_DifferentParamsMiss(t *testing.T) {
	mem := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 100})
	defer mem.Close()
	sc := NewSolveCache(mem, time.Minute)
	ctx := context.Background()
	n := buildSolveCacheNetwork()

	if err := sc.Set(ctx, n, 1.0, 0.5, assign.Result{Converged: true}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, found, err := sc.Get(ctx, n, 2.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("different theta should miss the cache")
	}
}

func TestCachedSolveResult_ApplyTo(t *testing.T) {
	n := buildSolveCacheNetwork()
	cached := &CachedSolveResult{
		LinkFlows: []CachedArcFlow{{Tail: 0, Head: 1, Flow: 42, Cost: 3.3}},
	}

	if !cached.ApplyTo(n) {
		t.Fatal("ApplyTo should succeed when arc counts match")
	}
	if n.Arcs[0].Flow != 42 || n.Arcs[0].Cost != 3.3 {
		t.Errorf("ApplyTo did not update arc: %+v", n.Arcs[0])
	}
}

func TestCachedSolveResult_ApplyToRejectsArcCountMismatch(t *testing.T) {
	n := buildSolveCacheNetwork()
	cached := &CachedSolveResult{LinkFlows: []CachedArcFlow{}}

	if cached.ApplyTo(n) {
		t.Fatal("ApplyTo should fail when arc counts differ")
	}
}

func TestSolveCache_Invalidate(t *testing.T) {
	mem := NewMemoryCache(&Options{DefaultTTL: time.Minute, MaxEntries: 100})
	defer mem.Close()
	sc := NewSolveCache(mem, time.Minute)
	ctx := context.Background()
	n := buildSolveCacheNetwork()

	if err := sc.Set(ctx, n, 1.0, 0.5, assign.Result{Converged: true}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := sc.Invalidate(ctx, n); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, found, err := sc.Get(ctx, n, 1.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected cache miss after Invalidate")
	}
}
