// Package main is the entry point for sueassign, a command-line tool that
// reads a TNTP link/trip file pair and computes the stochastic user
// equilibrium of travel demand over the network via Dial's STOCH logit
// loading under the Method of Successive Averages.
//
// Usage:
//
//	sueassign [flags] <link-file> <trip-file> <theta> <lambda>
//
// Flags:
//
//	--config PATH        path to a YAML config file (overrides CONFIG_PATH discovery)
//	--log-level LEVEL    debug, info, warn, error (default: info)
//	--log-format FORMAT  text or json (default: text)
//	--report PATH        write an XLSX link-flow report to PATH
//	--cache              enable the solve-result cache (memory backend unless configured otherwise)
//	--max-iterations N   override the MSA iteration cap
//	--tolerance EPS      override the link-flow convergence tolerance
//	--serve              run as a long-lived daemon exposing POST /solve instead of solving once and exiting
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sueassign/internal/assign"
	"sueassign/internal/network"
	"sueassign/internal/report"
	"sueassign/internal/tntp"
	"sueassign/pkg/audit"
	"sueassign/pkg/cache"
	"sueassign/pkg/config"
	"sueassign/pkg/logger"
	"sueassign/pkg/metrics"
	"sueassign/pkg/server"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to a YAML config file")
		logLevel      = flag.String("log-level", "", "debug, info, warn, error")
		logFormat     = flag.String("log-format", "", "text or json")
		reportPath    = flag.String("report", "", "write an XLSX link-flow report to this path")
		enableCache   = flag.Bool("cache", false, "enable the solve-result cache")
		maxIterations = flag.Int("max-iterations", 0, "override the MSA iteration cap")
		tolerance     = flag.Float64("tolerance", 0, "override the link-flow convergence tolerance")
		serve         = flag.Bool("serve", false, "run as a daemon exposing POST /solve")
	)
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *maxIterations > 0 {
		cfg.Solver.MaxIterations = *maxIterations
	}
	if *tolerance > 0 {
		cfg.Solver.LinkFlowTolerance = *tolerance
	}
	if *enableCache {
		cfg.Cache.Enabled = true
	}
	if *serve {
		cfg.Serve.Enabled = true
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	var solveCache *cache.SolveCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to create cache, continuing without cache", "error", err)
		} else {
			solveCache = cache.NewSolveCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("solve cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
		}
	}

	var auditLogger audit.Logger
	if cfg.Audit.Enabled {
		al, err := audit.New(&audit.Config{
			Enabled:     cfg.Audit.Enabled,
			Backend:     cfg.Audit.Backend,
			FilePath:    cfg.Audit.FilePath,
			BufferSize:  cfg.Audit.BufferSize,
			FlushPeriod: cfg.Audit.FlushPeriod,
		})
		if err != nil {
			logger.Log.Warn("failed to create audit logger, continuing without auditing", "error", err)
		} else {
			auditLogger = al
		}
	}

	h := &handler{
		cfg:        cfg,
		metrics:    m,
		solveCache: solveCache,
		auditLog:   auditLogger,
		reportPath: *reportPath,
	}

	if cfg.Serve.Enabled {
		srv := server.New(cfg, auditLogger)
		srv.Handle("/solve", h)
		logger.Info("starting sueassign daemon", "http_port", cfg.Serve.HTTPPort)
		if err := srv.Run(context.Background()); err != nil {
			logger.Fatal("server failed", "error", err)
		}
		return
	}

	args := flag.Args()
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: sueassign [flags] <link-file> <trip-file> <theta> <lambda>")
		os.Exit(1)
	}

	linkPath, tripPath := args[0], args[1]
	theta, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid theta: %v\n", err)
		os.Exit(1)
	}
	lambda, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid lambda: %v\n", err)
		os.Exit(1)
	}

	if err := h.solveFromFiles(context.Background(), linkPath, tripPath, theta, lambda); err != nil {
		logger.Log.Error("solve failed", "error", err)
		os.Exit(1)
	}
}

// handler serves the optional daemon-mode POST /solve endpoint and backs
// the one-shot CLI path with the same solve logic.
type handler struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	solveCache *cache.SolveCache
	auditLog   audit.Logger
	reportPath string
}

func (h *handler) solveFromFiles(ctx context.Context, linkPath, tripPath string, theta, lambda float64) error {
	net, err := tntp.Load(linkPath, tripPath)
	if err != nil {
		return fmt.Errorf("loading network: %w", err)
	}

	requestID := uuid.NewString()
	log := logger.WithRequestID(requestID)

	result, err := h.solve(ctx, net, theta, lambda, requestID)
	if err != nil {
		return err
	}

	log.Info("solve complete",
		"converged", result.Converged,
		"reason", result.Reason,
		"iterations", result.Iterations,
		"final_diff", result.FinalDiff,
		"elapsed", result.Elapsed)

	if h.reportPath != "" {
		if err := report.WriteXLSX(h.reportPath, net, report.Summary{Result: result, Theta: theta, Lambda: lambda}); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Info("report written", "path", h.reportPath)
	}

	return nil
}

// solve runs (or retrieves from cache) one MSA solve over net, recording
// metrics and an audit entry tagged with requestID.
func (h *handler) solve(ctx context.Context, net *network.Network, theta, lambda float64, requestID string) (assign.Result, error) {
	start := time.Now()
	log := logger.WithRequestID(requestID)

	if h.solveCache != nil {
		if cached, found, err := h.solveCache.Get(ctx, net, theta, lambda); err == nil && found {
			h.metrics.RecordCacheResult(true)
			cached.ApplyTo(net)
			return assign.Result{
				Converged:  cached.Converged,
				Reason:     cached.Reason,
				Iterations: cached.Iterations,
				FinalDiff:  cached.FinalDiff,
				Elapsed:    time.Duration(cached.ElapsedMs) * time.Millisecond,
			}, nil
		}
		h.metrics.RecordCacheResult(false)
	}

	opts := assign.DefaultOptions(theta, lambda)
	opts.MaxIterations = h.cfg.Solver.MaxIterations
	opts.MaxTime = h.cfg.Solver.MaxTime
	opts.LinkFlowTolerance = h.cfg.Solver.LinkFlowTolerance
	opts.MinLinkCost = h.cfg.Solver.MinLinkCost

	driver, err := assign.New(net, opts, log, h.metrics)
	if err != nil {
		h.metrics.RecordSolveOperation(false, time.Since(start))
		return assign.Result{}, fmt.Errorf("initializing solver: %w", err)
	}

	result := driver.Run(ctx)
	h.metrics.RecordSolveOperation(result.Converged, time.Since(start))

	if h.solveCache != nil {
		if err := h.solveCache.Set(ctx, net, theta, lambda, result, 0); err != nil {
			log.Warn("failed to cache solve result", "error", err)
		}
	}

	if h.auditLog != nil {
		entry := audit.NewEntry().
			Service(h.cfg.App.Name).
			Method("solve").
			Action(audit.ActionSolve).
			Outcome(outcomeFor(result.Converged)).
			RequestID(requestID).
			Duration(result.Elapsed).
			Meta("theta", theta).
			Meta("lambda", lambda).
			Meta("iterations", result.Iterations).
			Meta("reason", result.Reason).
			Build()
		if err := h.auditLog.Log(ctx, entry); err != nil {
			logger.Log.Warn("failed to log audit entry", "error", err)
		}
	}

	return result, nil
}

func outcomeFor(converged bool) audit.Outcome {
	if converged {
		return audit.OutcomeSuccess
	}
	return audit.OutcomeFailure
}

// solveRequest is the daemon-mode request body for POST /solve.
type solveRequest struct {
	LinkFile string  `json:"link_file"`
	TripFile string  `json:"trip_file"`
	Theta    float64 `json:"theta"`
	Lambda   float64 `json:"lambda"`
}

// solveResponse is the daemon-mode response body for POST /solve.
type solveResponse struct {
	RequestID  string  `json:"request_id"`
	Converged  bool    `json:"converged"`
	Reason     string  `json:"reason"`
	Iterations int     `json:"iterations"`
	FinalDiff  float64 `json:"final_diff"`
	ElapsedMs  int64   `json:"elapsed_ms"`
}

// ServeHTTP implements http.Handler for POST /solve: it reads link/trip
// file paths and solver parameters from the request body, runs a solve,
// and returns the result as JSON.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.metrics.Requests.Start(r.URL.Path)
	defer h.metrics.Requests.End(r.URL.Path)
	timer := h.metrics.TimeRequest(r.URL.Path)
	defer timer.ObserveDuration()

	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	net, err := tntp.Load(req.LinkFile, req.TripFile)
	if err != nil {
		http.Error(w, fmt.Sprintf("loading network: %v", err), http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()

	result, err := h.solve(r.Context(), net, req.Theta, req.Lambda, requestID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(solveResponse{
		RequestID:  requestID,
		Converged:  result.Converged,
		Reason:     result.Reason,
		Iterations: result.Iterations,
		FinalDiff:  result.FinalDiff,
		ElapsedMs:  result.Elapsed.Milliseconds(),
	})
}
