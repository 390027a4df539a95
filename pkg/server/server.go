// Package server hosts the optional long-running daemon mode: a plain
// net/http mux serving /solve, /metrics, and /healthz, plus a gRPC server
// running only the standard health-checking protocol (no custom service is
// generated for this repository — see DESIGN.md).
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"sueassign/pkg/audit"
	"sueassign/pkg/config"
	"sueassign/pkg/logger"
	"sueassign/pkg/metrics"
)

// Server is the daemon-mode process: one HTTP listener for the solve API and
// observability endpoints, one gRPC listener for health checks.
type Server struct {
	config      *config.Config
	mux         *http.ServeMux
	grpcServer  *grpc.Server
	health      *health.Server
	auditLogger audit.Logger
	serviceName string
}

// New constructs a Server around the given configuration. Handlers for
// application routes (e.g. /solve) must be registered via Handle before Run.
func New(cfg *config.Config, auditLogger audit.Logger) *Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h := health.NewServer()
	gs := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, h)
	if cfg.IsDevelopment() && cfg.Serve.Reflection {
		reflection.Register(gs)
	}

	return &Server{
		config:      cfg,
		mux:         mux,
		grpcServer:  gs,
		health:      h,
		auditLogger: auditLogger,
		serviceName: cfg.App.Name,
	}
}

// Handle registers an additional HTTP route, e.g. POST /solve.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Run starts both listeners and blocks until a shutdown signal arrives or
// either listener fails. It returns the first fatal error, if any.
func (s *Server) Run(ctx context.Context) error {
	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Serve.HTTPPort),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a /solve call may run a full MSA loop
	}

	go func() {
		logger.Log.Info("starting http server", "port", s.config.Serve.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Serve.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	go func() {
		logger.Log.Info("starting grpc health server", "port", s.config.Serve.GRPCPort)
		if err := s.grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	if s.auditLogger != nil {
		entry := audit.NewEntry().
			Service(s.serviceName).
			Method("server.Start").
			Action(audit.ActionServerStart).
			Outcome(audit.OutcomeSuccess).
			Meta("http_port", s.config.Serve.HTTPPort).
			Meta("grpc_port", s.config.Serve.GRPCPort).
			Build()
		if err := s.auditLogger.Log(ctx, entry); err != nil {
			logger.Log.Warn("failed to log audit entry", "error", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Log.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Log.Info("context canceled, shutting down")
	}

	return s.shutdown(httpServer)
}

func (s *Server) shutdown(httpServer *http.Server) error {
	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn("failed to gracefully shut down http server", "error", err)
	}

	if s.auditLogger != nil {
		entry := audit.NewEntry().
			Service(s.serviceName).
			Method("server.Shutdown").
			Action(audit.ActionServerStop).
			Outcome(audit.OutcomeSuccess).
			Build()
		if err := s.auditLogger.Log(context.Background(), entry); err != nil {
			logger.Log.Warn("failed to log audit entry", "error", err)
		}
		if err := s.auditLogger.Close(); err != nil {
			logger.Log.Warn("failed to close audit logger", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("forcing grpc server stop")
		s.grpcServer.Stop()
	}

	return nil
}
