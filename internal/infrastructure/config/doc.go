// Package config loads host configuration from environment variables.
//
// Variables (defaults in parentheses):
//
//	PORT (8000), HOST (0.0.0.0)
//	APP_BASE_URI (/), APP_WEB_ROOT (./wwwroot), APP_HOST_PAGE (index.html),
//	APP_ROUTES_FILE (routes.yaml)
//	FETCH_BASE_URL (http://localhost:8000/), FETCH_TIMEOUT (30s),
//	FETCH_RETRIES (2), FETCH_RPS (0 = unlimited)
//	CIRCUIT_RETENTION (3m), CIRCUIT_SWEEP_INTERVAL (30s)
//	LOG_LEVEL (info), LOG_DEV (false)
//	RATE_LIMIT_RPS (100), RATE_LIMIT_BURST (200), RATE_LIMIT_ENABLED (true)
package config
