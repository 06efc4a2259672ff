// Package server holds the HTTP server configuration.
//
// The main application entry point (cmd/start.go) handles the server startup; this package only
// defines the configuration structure and its validation. The API key is mandatory because the
// synchronization endpoints mutate ledger data.
package server
