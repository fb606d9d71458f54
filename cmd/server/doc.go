// Package main is the entry point of the remote component host.
//
// The server hosts application state in circuits and drives browsers over
// WebSocket:
//
//	Browser ── /app/_circuit (ws) ──▶ Circuit ──▶ Coordinator ──▶ RouteTable
//	        ◀─ invoke / render ─────
//
// It provides:
//   - framework files under <base>/_framework (gzip)
//   - the host page as fallback for deep links
//   - /health and /metrics
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -routes routes.yaml -webroot ./wwwroot
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
