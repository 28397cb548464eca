package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/scoring"
)

// maxAnalyzeTimeout caps ANALYZE_TIMEOUT.
const maxAnalyzeTimeout = 2 * time.Minute

// validate runs every check and reports all failures together.
func (c *Config) validate() error {
	return errors.Join(
		c.validateDatabase(),
		c.validateNetwork(),
		c.validateCORS(),
		c.validateAnalysis(),
		c.validatePolicy(),
	)
}

// isLoopback reports whether host names the local machine.
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// validateDatabase accepts an empty DATABASE_URL, which disables the archive.
// Remote hosts must not disable TLS.
func (c *Config) validateDatabase() error {
	raw := c.DatabaseURL.Value()
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return errors.New("DATABASE_URL is not a valid URL")
	case u.Scheme != "postgres" && u.Scheme != "postgresql":
		return errors.New("DATABASE_URL scheme must be postgres:// or postgresql://")
	case u.Hostname() == "":
		return errors.New("DATABASE_URL must include a host")
	case !isLoopback(u.Hostname()) && u.Query().Get("sslmode") == "disable":
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", u.Hostname())
	}

	return nil
}

// parsePort validates a TCP port held in the env var key.
func parsePort(key, raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", key)
	}
	return port, nil
}

// validateNetwork allows loopback hosts, plus the unspecified address for
// containers where the network boundary is enforced outside the process.
func (c *Config) validateNetwork() error {
	var errs []error

	port, err := parsePort("PORT", c.Port)
	errs = append(errs, err)

	metricsPort, err := parsePort("METRICS_PORT", c.MetricsPort)
	errs = append(errs, err)

	if port != 0 && port == metricsPort {
		errs = append(errs, errors.New("METRICS_PORT must differ from PORT"))
	}

	unspecified := c.ListenHost == "0.0.0.0" || c.ListenHost == "::"
	if !unspecified && !isLoopback(c.ListenHost) {
		errs = append(errs, fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

// validateCORS requires explicit scheme://host origins.
func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return errors.New("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateAnalysis() error {
	var errs []error

	if c.AnalyzeTimeout <= 0 || c.AnalyzeTimeout > maxAnalyzeTimeout {
		errs = append(errs, fmt.Errorf("ANALYZE_TIMEOUT must be positive and at most %s, got %s", maxAnalyzeTimeout, c.AnalyzeTimeout))
	}

	if c.AuditRetentionDays > 0 && !c.HasDatabase() {
		errs = append(errs, errors.New("AUDIT_RETENTION_DAYS requires DATABASE_URL"))
	}

	return errors.Join(errs...)
}

// validatePolicy loads the scoring policy so an invalid file stops startup.
func (c *Config) validatePolicy() error {
	if c.ScoringPolicyFile == "" {
		c.Policy = scoring.DefaultPolicy()
		return nil
	}

	p, err := scoring.LoadPolicyFile(c.ScoringPolicyFile)
	if err != nil {
		return fmt.Errorf("SCORING_POLICY_FILE: %w", err)
	}
	c.Policy = p

	return nil
}
