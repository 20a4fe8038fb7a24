package filebrowser

import (
	"errors"
	"fmt"
)

const (
	pathNotFoundMessageConstant         = "path does not exist"
	notADirectoryMessageConstant        = "path is not a directory"
	inputOutputMessageConstant          = "i/o error"
	operationErrorTemplateConstant      = "%s %s: %v"
	operationCauseErrorTemplateConstant = "%s %s: %v: %v"
)

var (
	// ErrPathNotFound indicates the target path does not exist.
	ErrPathNotFound = errors.New(pathNotFoundMessageConstant)
	// ErrNotADirectory indicates the target exists but a directory was required.
	ErrNotADirectory = errors.New(notADirectoryMessageConstant)
	// ErrIO indicates an underlying filesystem operation failed.
	ErrIO = errors.New(inputOutputMessageConstant)
)

// OperationError reports a failed file browser operation. It matches its Kind and its Cause
// with errors.Is.
type OperationError struct {
	Operation string
	Path      string
	Kind      error
	Cause     error
}

// Error describes the failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Path, operationError.Kind)
	}
	return fmt.Sprintf(operationCauseErrorTemplateConstant, operationError.Operation, operationError.Path, operationError.Kind, operationError.Cause)
}

// Is reports whether target is the error kind.
func (operationError OperationError) Is(target error) bool {
	return operationError.Kind != nil && target == operationError.Kind
}

// Unwrap exposes the underlying filesystem error.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}
