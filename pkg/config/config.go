// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Cache   CacheConfig   `koanf:"cache"`
	Audit   AuditConfig   `koanf:"audit"`
	Solver  SolverConfig  `koanf:"solver"`
	Serve   ServeConfig   `koanf:"serve"`
	Report  ReportConfig  `koanf:"report"`
}

// AppConfig holds general application metadata.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int  `koanf:"max_size"`    // MB
	MaxBackups int  `koanf:"max_backups"` // count
	MaxAge     int  `koanf:"max_age"`     // days
	Compress   bool `koanf:"compress"`
}

// MetricsConfig configures the Prometheus metric names. Only Namespace and
// Subsystem are read; Enabled, Port and Path are not, and daemon mode
// serves /metrics on serve.http_port.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// CacheConfig configures the solve-result cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // in-memory driver only
}

// Address returns the host:port of the configured cache backend.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuditConfig configures the per-solve audit trail.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Backend         string        `koanf:"backend"` // stdout, file
	FilePath        string        `koanf:"file_path"`
	BufferSize      int           `koanf:"buffer_size"`
	FlushPeriod     time.Duration `koanf:"flush_period"`
	IncludeMetadata bool          `koanf:"include_metadata"`
}

// SolverConfig holds the MSA/STOCH numeric defaults.
type SolverConfig struct {
	Theta               float64       `koanf:"theta"`
	Lambda              float64       `koanf:"lambda"`
	MaxIterations       int           `koanf:"max_iterations"`
	MaxTime             time.Duration `koanf:"max_time"`
	LinkFlowTolerance   float64       `koanf:"link_flow_tolerance"`
	MinLinkCost         float64       `koanf:"min_link_cost"`
}

// ServeConfig configures the optional long-running daemon mode.
type ServeConfig struct {
	Enabled   bool `koanf:"enabled"`
	HTTPPort  int  `koanf:"http_port"`
	GRPCPort  int  `koanf:"grpc_port"`
	Reflection bool `koanf:"reflection"`
}

// ReportConfig holds XLSX result dumper settings. The CLI takes the report
// path from --report and does not read this section.
type ReportConfig struct {
	Enabled         bool   `koanf:"enabled"`
	OutputPath      string `koanf:"output_path"`
	MaxLinksInSheet int    `koanf:"max_links_in_sheet"`
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Solver.Theta <= 0 {
		errs = append(errs, fmt.Sprintf("solver.theta must be positive, got %v", c.Solver.Theta))
	}
	if c.Solver.Lambda <= 0 || c.Solver.Lambda > 1 {
		errs = append(errs, fmt.Sprintf("solver.lambda must be in (0,1], got %v", c.Solver.Lambda))
	}
	if c.Solver.MaxIterations <= 0 {
		errs = append(errs, "solver.max_iterations must be positive")
	}

	if c.Serve.Enabled && c.Serve.HTTPPort <= 0 {
		errs = append(errs, "serve.http_port must be set when serve.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is running in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is running in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
