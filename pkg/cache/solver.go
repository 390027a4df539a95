package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sueassign/internal/assign"
	"sueassign/internal/network"
)

// SolveCache wraps a Cache with SUE-specific keying and (de)serialization
// so the assignment driver never needs to know about cache backends.
type SolveCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolveResult is the JSON-serializable form of a completed MSA run.
type CachedSolveResult struct {
	Converged  bool            `json:"converged"`
	Reason     string          `json:"reason"`
	Iterations int             `json:"iterations"`
	FinalDiff  float64         `json:"final_diff"`
	ElapsedMs  int64           `json:"elapsed_ms"`
	LinkFlows  []CachedArcFlow `json:"link_flows"`
	ComputedAt time.Time       `json:"computed_at"`
}

// CachedArcFlow is one link's equilibrium flow and cost.
type CachedArcFlow struct {
	Tail int     `json:"tail"`
	Head int     `json:"head"`
	Flow float64 `json:"flow"`
	Cost float64 `json:"cost"`
}

// NewSolveCache wraps cache with a default TTL for SUE solve results.
func NewSolveCache(cache Cache, defaultTTL time.Duration) *SolveCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolveCache{cache: cache, defaultTTL: defaultTTL}
}

// Get looks up a previously cached solve for net under (theta, lambda).
func (sc *SolveCache) Get(ctx context.Context, net *network.Network, theta, lambda float64) (*CachedSolveResult, bool, error) {
	key := BuildSolveKey(NetworkHash(net), theta, lambda)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolveResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = sc.cache.Delete(ctx, key) // corrupt entry, best-effort eviction
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores the outcome of a completed solve. ttl<=0 uses the cache's
// default TTL.
func (sc *SolveCache) Set(ctx context.Context, net *network.Network, theta, lambda float64, result assign.Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey(NetworkHash(net), theta, lambda)

	cached := &CachedSolveResult{
		Converged:  result.Converged,
		Reason:     result.Reason,
		Iterations: result.Iterations,
		FinalDiff:  result.FinalDiff,
		ElapsedMs:  result.Elapsed.Milliseconds(),
		ComputedAt: time.Now(),
	}
	for _, a := range net.Arcs {
		cached.LinkFlows = append(cached.LinkFlows, CachedArcFlow{
			Tail: a.Tail,
			Head: a.Head,
			Flow: a.Flow,
			Cost: a.Cost,
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes every cached solve for net, across all (theta,
// lambda) parameterizations.
func (sc *SolveCache) Invalidate(ctx context.Context, net *network.Network) error {
	pattern := fmt.Sprintf("solve:%s:*", NetworkHash(net))
	_, err := sc.cache.DeleteByPattern(ctx, pattern)
	return err
}

// ApplyTo copies cached link flows back onto net's arcs, e.g. after a
// cache hit makes running the solver unnecessary. It returns false
// (without mutating net) if the arc count no longer matches.
func (r *CachedSolveResult) ApplyTo(net *network.Network) bool {
	if len(r.LinkFlows) != len(net.Arcs) {
		return false
	}
	for i, lf := range r.LinkFlows {
		net.Arcs[i].Flow = lf.Flow
		net.Arcs[i].Cost = lf.Cost
	}
	return true
}
