package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Fetch     FetchConfig
	Circuit   CircuitConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// AppConfig describes the hosted application.
type AppConfig struct {
	BaseURI    string `envconfig:"APP_BASE_URI" default:"/"`
	WebRoot    string `envconfig:"APP_WEB_ROOT" default:"./wwwroot"`
	HostPage   string `envconfig:"APP_HOST_PAGE" default:"index.html"`
	RoutesFile string `envconfig:"APP_ROUTES_FILE" default:"routes.yaml"`
}

// FetchConfig holds outbound fetch configuration used by the local boot.
type FetchConfig struct {
	BaseURL    string        `envconfig:"FETCH_BASE_URL" default:"http://localhost:8000/"`
	Timeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	RetryCount int           `envconfig:"FETCH_RETRIES" default:"2"`
	RateLimit  float64       `envconfig:"FETCH_RPS" default:"0"`
}

// CircuitConfig holds remote circuit configuration.
type CircuitConfig struct {
	RetentionPeriod time.Duration `envconfig:"CIRCUIT_RETENTION" default:"3m"`
	SweepInterval   time.Duration `envconfig:"CIRCUIT_SWEEP_INTERVAL" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// BasePath returns the path part of BaseURI, which may be absolute
// ("http://host/app/") or a path ("/app/"). The result starts and ends
// with a slash.
func (a AppConfig) BasePath() string {
	path := a.BaseURI
	if u, err := url.Parse(a.BaseURI); err == nil && u.IsAbs() {
		path = u.Path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values and normalizes the base URI and fetch URL to end
// with a slash.
func (c *Config) Validate() error {
	if c.App.BaseURI == "" {
		return fmt.Errorf("invalid config: APP_BASE_URI must not be empty")
	}
	if !strings.HasSuffix(c.App.BaseURI, "/") {
		c.App.BaseURI += "/"
	}
	if c.Fetch.BaseURL != "" && !strings.HasSuffix(c.Fetch.BaseURL, "/") {
		c.Fetch.BaseURL += "/"
	}
	if c.Fetch.RetryCount < 0 {
		return fmt.Errorf("invalid config: FETCH_RETRIES must be >= 0, got %d", c.Fetch.RetryCount)
	}
	if c.Circuit.RetentionPeriod <= 0 {
		return fmt.Errorf("invalid config: CIRCUIT_RETENTION must be positive")
	}
	if c.Circuit.SweepInterval <= 0 {
		return fmt.Errorf("invalid config: CIRCUIT_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		App: AppConfig{
			BaseURI:    "/",
			WebRoot:    "./wwwroot",
			HostPage:   "index.html",
			RoutesFile: "routes.yaml",
		},
		Fetch: FetchConfig{
			BaseURL:    "http://localhost:8000/",
			Timeout:    30 * time.Second,
			RetryCount: 2,
		},
		Circuit: CircuitConfig{
			RetentionPeriod: 3 * time.Minute,
			SweepInterval:   30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
