// Package server wires the remote host: gin router, middleware, static
// framework files, the circuit WebSocket endpoint, health and metrics, and
// the background circuit sweeper.
package server
