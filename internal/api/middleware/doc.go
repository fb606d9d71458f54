// Package middleware provides the gin middleware of the host server: CORS,
// per-client and global rate limiting, request IDs, and access logging.
package middleware
