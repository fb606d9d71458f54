package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "/", cfg.App.BaseURI)
	assert.Equal(t, "./wwwroot", cfg.App.WebRoot)
	assert.Equal(t, "index.html", cfg.App.HostPage)
	assert.Equal(t, "routes.yaml", cfg.App.RoutesFile)

	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2, cfg.Fetch.RetryCount)

	assert.Equal(t, 3*time.Minute, cfg.Circuit.RetentionPeriod)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"APP_BASE_URI":       "/app",
		"APP_ROUTES_FILE":    "routes.toml",
		"FETCH_BASE_URL":     "http://example.test/app",
		"FETCH_TIMEOUT":      "5s",
		"FETCH_RETRIES":      "0",
		"CIRCUIT_RETENTION":  "1m",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/app/", cfg.App.BaseURI, "base URI gets a trailing slash")
	assert.Equal(t, "routes.toml", cfg.App.RoutesFile)
	assert.Equal(t, "http://example.test/app/", cfg.Fetch.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 0, cfg.Fetch.RetryCount)
	assert.Equal(t, time.Minute, cfg.Circuit.RetentionPeriod)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty base", mutate: func(c *Config) { c.App.BaseURI = "" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Fetch.RetryCount = -1 }, wantErr: true},
		{name: "zero retention", mutate: func(c *Config) { c.Circuit.RetentionPeriod = 0 }, wantErr: true},
		{name: "zero sweep", mutate: func(c *Config) { c.Circuit.SweepInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("FETCH_RETRIES", "-3")

	_, err := Load()
	assert.Error(t, err)
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		baseURI string
		want    string
	}{
		{baseURI: "/", want: "/"},
		{baseURI: "/app/", want: "/app/"},
		{baseURI: "app", want: "/app/"},
		{baseURI: "http://host.test/app/", want: "/app/"},
		{baseURI: "https://host.test", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.baseURI, func(t *testing.T) {
			assert.Equal(t, tt.want, AppConfig{BaseURI: tt.baseURI}.BasePath())
		})
	}
}
