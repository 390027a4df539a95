// Package assign implements the Method of Successive Averages driver that
// couples per-origin Dial loadings into converged equilibrium link flows.
package assign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sueassign/internal/bush"
	"sueassign/internal/dial"
	"sueassign/internal/network"
	"sueassign/pkg/apperror"
)

// Default tuning parameters, per the spec.
const (
	DefaultMaxIterations     = 100
	DefaultMaxTime           = time.Hour
	DefaultLinkFlowTolerance = 1e-3
	DefaultMinLinkCost       = 1e-6
)

// Options configures one MSA run.
type Options struct {
	Theta             float64
	Lambda            float64
	MaxIterations     int
	MaxTime           time.Duration
	LinkFlowTolerance float64
	MinLinkCost       float64
}

// DefaultOptions returns the spec's default tuning parameters for the
// given theta/lambda.
func DefaultOptions(theta, lambda float64) Options {
	return Options{
		Theta:             theta,
		Lambda:            lambda,
		MaxIterations:     DefaultMaxIterations,
		MaxTime:           DefaultMaxTime,
		LinkFlowTolerance: DefaultLinkFlowTolerance,
		MinLinkCost:       DefaultMinLinkCost,
	}
}

// IterationRecorder receives per-iteration and terminal observations; the
// metrics package implements it, but the driver only depends on this
// narrow interface so the numerical core stays free of a Prometheus
// import.
type IterationRecorder interface {
	RecordIteration(duration time.Duration, flowDiff float64)
	RecordConvergence(reason string, converged bool)
	RecordBushBuild(numLinks int, numPaths uint64)
}

// Result summarizes a completed (or cut-short) MSA run.
type Result struct {
	Iterations int
	FinalDiff  float64
	Elapsed    time.Duration
	Converged  bool
	Reason     string // "tolerance", "max_iterations", "max_time", "canceled"
}

// Driver owns the per-origin bushes and scratch loader for one network
// and runs the MSA loop to convergence.
type Driver struct {
	net     *network.Network
	opts    Options
	bushes  []*bush.Bush
	loader  *dial.Loader
	target  []float64
	logger  *slog.Logger
	metrics IterationRecorder
}

// New validates options, builds the per-origin bushes once, and returns a
// ready-to-run Driver. Network.Finalize must already have been called.
func New(net *network.Network, opts Options, logger *slog.Logger, recorder IterationRecorder) (*Driver, error) {
	if opts.Theta <= 0 {
		return nil, apperror.ErrInvalidTheta
	}
	if opts.Lambda <= 0 || opts.Lambda > 1 {
		return nil, apperror.ErrInvalidLambda
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxTime <= 0 {
		opts.MaxTime = DefaultMaxTime
	}
	if opts.LinkFlowTolerance <= 0 {
		opts.LinkFlowTolerance = DefaultLinkFlowTolerance
	}
	if opts.MinLinkCost <= 0 {
		opts.MinLinkCost = DefaultMinLinkCost
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		net:     net,
		opts:    opts,
		loader:  dial.NewLoader(net, opts.Theta),
		target:  make([]float64, len(net.Arcs)),
		logger:  logger,
		metrics: recorder,
	}

	if err := d.initializeBushes(); err != nil {
		return nil, err
	}

	return d, nil
}

// initializeBushes sets every arc's cost to its guarded free-flow value,
// builds a bush per zone, then runs one full target computation as the
// all-or-nothing iteration-0 loading.
func (d *Driver) initializeBushes() error {
	for i := range d.net.Arcs {
		a := &d.net.Arcs[i]
		free := a.FixedCost + a.FreeFlowTime
		if free < d.opts.MinLinkCost {
			free = d.opts.MinLinkCost
		}
		a.Cost = free
	}

	d.bushes = make([]*bush.Bush, d.net.NumZones)
	for r := 0; r < d.net.NumZones; r++ {
		b, err := bush.Build(d.net, r)
		if err != nil {
			return fmt.Errorf("building bush for origin %d: %w", r, err)
		}
		d.bushes[r] = b
		if d.metrics != nil {
			d.metrics.RecordBushBuild(b.NumLinks, b.NumPaths)
		}
	}

	d.computeTarget()
	for i := range d.net.Arcs {
		d.net.Arcs[i].Flow = d.target[i]
	}

	return nil
}

// computeTarget zeroes the target buffer, then for every origin recomputes
// the bush shortest path and Dial loading and accumulates its arc flows.
func (d *Driver) computeTarget() {
	for i := range d.target {
		d.target[i] = 0
	}
	for r := 0; r < d.net.NumZones; r++ {
		flow := d.loader.Load(d.net, d.bushes[r])
		for i, f := range flow {
			d.target[i] += f
		}
	}
}

// avgFlowDiff returns the mean absolute difference between current arc
// flow and the target vector.
func (d *Driver) avgFlowDiff() float64 {
	var sum float64
	for i := range d.net.Arcs {
		diff := d.net.Arcs[i].Flow - d.target[i]
		if diff < 0 {
			diff = -diff
		}
		sum += diff
	}
	if len(d.net.Arcs) == 0 {
		return 0
	}
	return sum / float64(len(d.net.Arcs))
}

// Run executes the MSA loop until convergence, the iteration limit, the
// time budget, or context cancellation, whichever comes first.
func (d *Driver) Run(ctx context.Context) Result {
	start := time.Now()
	iteration := 0

	for {
		select {
		case <-ctx.Done():
			return d.finish(iteration, start, "canceled", false)
		default:
		}

		iterStart := time.Now()
		d.net.UpdateLinkCosts()
		d.computeTarget()
		diff := d.avgFlowDiff()
		elapsed := time.Since(start)

		d.logger.Info("msa iteration",
			"iteration", iteration,
			"diff", diff,
			"elapsed", elapsed)
		if d.metrics != nil {
			d.metrics.RecordIteration(time.Since(iterStart), diff)
		}

		if elapsed > d.opts.MaxTime {
			return d.finish(iteration, start, "max_time", false)
		}
		if iteration >= d.opts.MaxIterations {
			return d.finish(iteration, start, "max_iterations", false)
		}
		if diff < d.opts.LinkFlowTolerance {
			return d.finish(iteration, start, "tolerance", true)
		}

		for i := range d.net.Arcs {
			a := &d.net.Arcs[i]
			a.Flow += d.opts.Lambda * (d.target[i] - a.Flow)
		}
		iteration++
	}
}

func (d *Driver) finish(iteration int, start time.Time, reason string, converged bool) Result {
	diff := d.avgFlowDiff()
	if d.metrics != nil {
		d.metrics.RecordConvergence(reason, converged)
	}
	if !converged {
		d.logger.Warn("msa stopped without convergence", "reason", reason, "iteration", iteration, "diff", diff)
	}
	return Result{
		Iterations: iteration,
		FinalDiff:  diff,
		Elapsed:    time.Since(start),
		Converged:  converged,
		Reason:     reason,
	}
}
