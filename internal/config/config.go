// Package config provides environment-driven configuration for the impact
// analysis service.
package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/nexalabs/impactgraph/internal/scoring"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL        Secret
	Port               string
	ListenHost         string
	MetricsPort        string
	CORSOrigins        []string
	LogLevel           string
	DBMaxConns         int
	AnalyzeWorkers     int
	AnalyzeTimeout     time.Duration
	DefaultMaxDepth    int
	ScoringPolicyFile  string
	AuditQueueSize     int
	AuditRetentionDays int
	RestoreSnapshots   bool
	PeerReload         bool

	// Policy is loaded from ScoringPolicyFile, or the defaults when unset.
	Policy scoring.Policy
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       Secret(envOrDefault("DATABASE_URL", "")),
		Port:              envOrDefault("PORT", "3040"),
		ListenHost:        envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort:       envOrDefault("METRICS_PORT", "9092"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		ScoringPolicyFile: envOrDefault("SCORING_POLICY_FILE", ""),
		RestoreSnapshots:  envOrDefault("RESTORE_SNAPSHOTS", "true") == "true",
		PeerReload:        envOrDefault("PEER_RELOAD", "true") == "true",
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 10, 2, 100); err != nil {
		return nil, err
	}

	if cfg.AnalyzeWorkers, err = envInt("ANALYZE_WORKERS", runtime.GOMAXPROCS(0), 1, 256); err != nil {
		return nil, err
	}

	if cfg.DefaultMaxDepth, err = envInt("DEFAULT_MAX_DEPTH", 0, 0, math.MaxInt32); err != nil {
		return nil, err
	}

	if cfg.AuditQueueSize, err = envInt("AUDIT_QUEUE_SIZE", 1000, 1, 100000); err != nil {
		return nil, err
	}

	if cfg.AuditRetentionDays, err = envInt("AUDIT_RETENTION_DAYS", 0, 0, 3650); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(envOrDefault("ANALYZE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("ANALYZE_TIMEOUT must be a Go duration: %w", err)
	}
	cfg.AnalyzeTimeout = timeout

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the Prometheus listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

// HasDatabase reports whether a snapshot archive database is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL.Value() != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// envInt parses key as an integer within [lo, hi].
func envInt(key string, fallback, lo, hi int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}
