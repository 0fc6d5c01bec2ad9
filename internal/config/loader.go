package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION LOADER
// ============================================================================

// Loader handles loading configuration from multiple sources, layering file
// overlays and environment variables on top of code defaults.
type Loader struct {
	// basePath is the root directory for configuration files
	basePath string

	// environment is the current deployment environment
	environment Environment

	// sources tracks where configuration was loaded from
	sources []string

	// fileLoaders maps file extensions to their loaders; extensions keeps
	// registration order so format probing is deterministic
	fileLoaders map[string]FileLoader
	extensions  []string
}

// FileLoader interface for different configuration file formats.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a new configuration loader with sensible defaults.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
		sources:     make([]string, 0),
		fileLoaders: make(map[string]FileLoader),
	}

	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&JSONLoader{})

	return loader
}

// RegisterLoader registers a new file loader for a specific format. Earlier
// registrations win when a file exists in several formats.
func (l *Loader) RegisterLoader(loader FileLoader) {
	ext := loader.Extension()
	if _, ok := l.fileLoaders[ext]; !ok {
		l.extensions = append(l.extensions, ext)
	}
	l.fileLoaders[ext] = loader
}

// Load loads configuration using a hierarchy of sources.
// The loading order (from lowest to highest priority):
//  1. Default values (in code)
//  2. Base configuration file (base.yaml)
//  3. Environment-specific file (e.g., production.yaml)
//  4. Local overrides file (local.yaml - for development)
//  5. Environment variables (highest priority)
func (l *Loader) Load() (*Config, error) {
	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			// Local file errors are warnings in development
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a file, probing registered formats in
// registration order (yaml before json).
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, ext := range l.extensions {
		loader := l.fileLoaders[ext]
		filename := fmt.Sprintf("%s.%s", name, ext)
		path := filepath.Join(l.basePath, filename)

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // Try next extension
			}
			return err
		}
		defer file.Close()

		if err := loader.Load(file, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}

	if val := os.Getenv("DATA_DIR"); val != "" {
		cfg.Data.Dir = val
	}

	// Cache tuning
	if val := os.Getenv("DATAFRAME_CAPACITY"); val != "" {
		if n := parseInt(val); n > 0 {
			cfg.Cache.DataFrameCapacity = n
		}
	}
	if val := os.Getenv("DATAFRAME_TTL_SECONDS"); val != "" {
		if n := parseInt(val); n > 0 {
			cfg.Cache.DataFrameTTLSeconds = time.Duration(n) * time.Second
		}
	}
	if val := os.Getenv("GRAPH_CAPACITY"); val != "" {
		if n := parseInt(val); n > 0 {
			cfg.Cache.GraphCapacity = n
		}
	}
	if val := os.Getenv("GRAPH_TTL_SECONDS"); val != "" {
		if n := parseInt(val); n > 0 {
			cfg.Cache.GraphTTLSeconds = time.Duration(n) * time.Second
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
}

// defaultConfig returns a configuration with sensible defaults.
// This ensures the application can run even without configuration files.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Version:     "1.0.0",
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Data: Data{
			Dir: "data",
		},
		Cache: Cache{
			DataFrameCapacity:   100,
			DataFrameTTLSeconds: 3600 * time.Second,
			GraphCapacity:       50,
			GraphTTLSeconds:     1800 * time.Second,
		},
		Retry: Retry{
			MaxAttempts:   3,
			BaseDelay:     100 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		Breaker: Breaker{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "biorempp",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			Enabled:     false,
			ServiceName: "biorempp-backend",
			Endpoint:    "localhost:4317",
			SampleRate:  0.1,
		},
	}
}

// ============================================================================
// FILE LOADERS
// ============================================================================

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	return decoder.Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	return decoder.Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// LoadWithLoader loads configuration using the layered loader.
// This is the recommended way to load configuration.
func LoadWithLoader() (*Config, error) {
	env := getEnvironment()
	loader := NewLoader(os.Getenv("CONFIG_DIR"), env)
	return loader.Load()
}

// MustLoadWithLoader loads configuration and panics on error.
// Use this only in main() or init() functions.
func MustLoadWithLoader() *Config {
	cfg, err := LoadWithLoader()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
