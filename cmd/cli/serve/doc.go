// Package serve provides the serve command, which exposes the file browser and terminal
// operations over HTTP until interrupted.
package serve
