// Package server holds the HTTP server configuration.
//
// The start command builds the fiber app from this config: the listen port, the
// optional API key enforced by core/middleware/auth, and the path where prometheus
// metrics are served.
package server
