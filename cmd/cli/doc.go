// Package cli constructs the codedeck command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. The serve command exposes the editor backend over HTTP; the
// remaining commands run the same operations once from the terminal.
package cli
