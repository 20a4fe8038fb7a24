package terminal

import (
	"errors"
	"fmt"
)

const (
	executorNotConfiguredMessageConstant   = "terminal command executor not configured"
	fileSystemNotConfiguredMessageConstant = "terminal filesystem not configured"
	executionErrorTemplateConstant         = "%s: %v"
	executionErrorWithoutSessionTemplate   = "%v"
)

// ErrExecutorNotConfigured indicates the service was created without a command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrFileSystemNotConfigured indicates the service was created without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// ExecutionError reports that a command could not be run. Commands that ran and wrote to their
// error stream are not ExecutionErrors.
type ExecutionError struct {
	SessionID string
	ShellKind string
	Cause     error
}

// Error returns the operating system error text, prefixed by the session when known.
func (executionError ExecutionError) Error() string {
	if len(executionError.SessionID) == 0 {
		return fmt.Sprintf(executionErrorWithoutSessionTemplate, executionError.Cause)
	}
	return fmt.Sprintf(executionErrorTemplateConstant, executionError.SessionID, executionError.Cause)
}

// Unwrap exposes the cause.
func (executionError ExecutionError) Unwrap() error {
	return executionError.Cause
}
