// Package config loads coda-mcp settings.
//
// Values are resolved in order, later sources winning:
//
//  1. built-in defaults (see Default)
//  2. an optional YAML file
//  3. environment variables, after loading .env files
//
// .env loading follows ENV_FILE when it is set; otherwise .env.local and then
// .env are read from the working directory. Variables already present in the
// environment are never overwritten by a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/coda-mcp/internal/coda"
	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/pageexport"
)

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("CODA_API_TOKEN environment variable is required")

// Config is the full runtime configuration.
type Config struct {
	Coda   CodaConfig    `yaml:"coda"`
	Export ExportConfig  `yaml:"export"`
	Log    logger.Config `yaml:"log"`
	Server ServerConfig  `yaml:"server"`
}

// CodaConfig configures the REST client.
type CodaConfig struct {
	APIToken       string        `yaml:"apiToken" env:"CODA_API_TOKEN"`
	BaseURL        string        `yaml:"baseURL" env:"CODA_BASE_URL"`
	Timeout        time.Duration `yaml:"timeout" env:"CODA_HTTP_TIMEOUT"`
	RateLimitRPS   float64       `yaml:"rateLimitRPS" env:"CODA_RATE_LIMIT_RPS"`
	RateLimitBurst int           `yaml:"rateLimitBurst" env:"CODA_RATE_LIMIT_BURST"`
}

// ExportConfig bounds the get_page export poll.
type ExportConfig struct {
	MaxPollAttempts int           `yaml:"maxPollAttempts" env:"CODA_MAX_POLL_ATTEMPTS"`
	PollInterval    time.Duration `yaml:"pollInterval" env:"CODA_POLL_INTERVAL"`
}

// ServerConfig selects the MCP transport and the metrics listener.
type ServerConfig struct {
	// HTTPAddr, when set, serves MCP over streamable HTTP instead of stdio.
	HTTPAddr string `yaml:"httpAddr" env:"CODA_MCP_HTTP_ADDR"`
	// MetricsAddr, when set, serves Prometheus metrics on /metrics.
	MetricsAddr string `yaml:"metricsAddr" env:"CODA_MCP_METRICS_ADDR"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	export := pageexport.DefaultConfig()
	return Config{
		Coda: CodaConfig{
			BaseURL:        coda.DefaultBaseURL,
			Timeout:        60 * time.Second,
			RateLimitRPS:   10,
			RateLimitBurst: 10,
		},
		Export: ExportConfig{
			MaxPollAttempts: export.MaxPollAttempts,
			PollInterval:    export.PollInterval,
		},
		Log: logger.Config{Level: logger.DefaultLevel},
	}
}

// Load resolves the configuration and validates it. path may be empty, in
// which case no YAML file is read; a path that does not exist is an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("config: load environment files: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// PageExport returns the poll budget for the exporter.
func (c *Config) PageExport() pageexport.Config {
	return pageexport.Config{
		MaxPollAttempts: c.Export.MaxPollAttempts,
		PollInterval:    c.Export.PollInterval,
	}
}

// ClientOptions translates the client settings into coda options.
func (c *Config) ClientOptions() []coda.ClientOption {
	return []coda.ClientOption{
		coda.WithTimeout(c.Coda.Timeout),
		coda.WithRateLimit(c.Coda.RateLimitRPS, c.Coda.RateLimitBurst),
	}
}

// String renders the configuration for debug output with the token masked.
func (c Config) String() string {
	token := "<unset>"
	if c.Coda.APIToken != "" {
		token = "<redacted>"
	}
	return fmt.Sprintf(
		"coda{baseURL=%s token=%s timeout=%s rps=%g burst=%d} export{attempts=%d interval=%s} log{level=%s} server{http=%q metrics=%q}",
		c.Coda.BaseURL, token, c.Coda.Timeout, c.Coda.RateLimitRPS, c.Coda.RateLimitBurst,
		c.Export.MaxPollAttempts, c.Export.PollInterval,
		c.Log.Level,
		c.Server.HTTPAddr, c.Server.MetricsAddr,
	)
}
