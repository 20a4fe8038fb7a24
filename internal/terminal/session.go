package terminal

import (
	"strconv"

	"github.com/temirov/codedeck/internal/execshell"
)

const sessionIdentifierPrefixConstant = "session_"

// Session correlates a shell kind and a working directory with an opaque identifier.
type Session struct {
	ID               string              `json:"id"`
	ShellKind        execshell.ShellKind `json:"shellKind"`
	WorkingDirectory string              `json:"workingDirectory"`
}

// CommandResult is the outcome of a command that ran to completion.
type CommandResult struct {
	Output  string `json:"output"`
	IsError bool   `json:"is_error"`
}

// NewCommandResult keeps the error stream when it has any content and discards the success
// stream in that case. The exit code does not participate.
func NewCommandResult(executionResult execshell.ExecutionResult) CommandResult {
	if len(executionResult.StandardError) > 0 {
		return CommandResult{Output: executionResult.StandardError, IsError: true}
	}
	return CommandResult{Output: executionResult.StandardOutput, IsError: false}
}

func formatSessionIdentifier(sessionNumber uint64) string {
	return sessionIdentifierPrefixConstant + strconv.FormatUint(sessionNumber, 10)
}
