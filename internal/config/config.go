// Package config provides typed configuration for the BioRemPP backend.
// Configuration is loaded from layered sources (defaults, YAML files,
// environment variables) and validated once at startup; the resulting Config
// is passed explicitly to every component instead of being read from globals.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`
	Version     string      `yaml:"version" json:"version"`
	LoadedFrom  []string    `yaml:"-" json:"-"`

	Server  Server  `yaml:"server" json:"server"`
	Data    Data    `yaml:"data" json:"data"`
	Cache   Cache   `yaml:"cache" json:"cache"`
	Retry   Retry   `yaml:"retry" json:"retry"`
	Breaker Breaker `yaml:"breaker" json:"breaker"`
	Logging Logging `yaml:"logging" json:"logging"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Tracing Tracing `yaml:"tracing" json:"tracing"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Address returns the listen address in host:port form.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Data holds reference-database source configuration.
type Data struct {
	// Dir is the directory holding the reference CSV tables
	// (biorempp.csv, kegg.csv, hadeg.csv, toxcsm.csv).
	Dir string `yaml:"dir" json:"dir" validate:"required"`
}

// Cache holds the tuning options for the two cache tiers. The defaults mirror
// the documented product tuning but every value is overridable.
type Cache struct {
	DataFrameCapacity   int           `yaml:"dataframe_capacity" json:"dataframe_capacity" validate:"min=1"`
	DataFrameTTLSeconds time.Duration `yaml:"dataframe_ttl_seconds" json:"dataframe_ttl_seconds" validate:"min=1s"`
	GraphCapacity       int           `yaml:"graph_capacity" json:"graph_capacity" validate:"min=1"`
	GraphTTLSeconds     time.Duration `yaml:"graph_ttl_seconds" json:"graph_ttl_seconds" validate:"min=1s"`
}

// Retry controls repository retry behavior.
type Retry struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts" validate:"min=1"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	JitterFactor  float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// Breaker controls the repository circuit breaker.
type Breaker struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" json:"max_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests"`
}

// Logging holds logger configuration.
type Logging struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

// Metrics holds Prometheus configuration.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Path      string `yaml:"path" json:"path"`
}

// Tracing holds OpenTelemetry configuration.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// Validate checks the final configuration using struct tags plus the
// cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Raw joined data churns less often than rendered chart state, so the
	// dataframe tier must never expire before the graph tier.
	if c.Cache.DataFrameTTLSeconds < c.Cache.GraphTTLSeconds {
		return fmt.Errorf("dataframe_ttl_seconds (%s) must be >= graph_ttl_seconds (%s)",
			c.Cache.DataFrameTTLSeconds, c.Cache.GraphTTLSeconds)
	}

	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool { return c.Environment == Development }

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool { return c.Environment == Production }

// getEnvironment reads the deployment environment from ENVIRONMENT.
func getEnvironment() Environment {
	switch strings.ToLower(os.Getenv("ENVIRONMENT")) {
	case "production":
		return Production
	case "staging":
		return Staging
	default:
		return Development
	}
}
