// Package textcodec converts raw bytes from files and child processes into
// displayable text using a best-effort, lossy policy.
package textcodec
