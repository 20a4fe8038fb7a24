// Package backend assembles the file browser and terminal services from configuration so the
// HTTP server and the CLI commands share one wiring.
package backend
