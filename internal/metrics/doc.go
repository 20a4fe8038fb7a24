// Package metrics exposes Prometheus instrumentation for codedeck: command executions, opened
// sessions, file browser operations and HTTP requests, served from a private registry.
package metrics
