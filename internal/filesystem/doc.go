// Package filesystem abstracts the operating system filesystem so that listing,
// reading, and working-directory resolution can be substituted in tests.
package filesystem
