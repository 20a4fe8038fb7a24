package execshell

import (
	"context"
	"time"
)

// CommandDetails describes the process environment of a shell command.
type CommandDetails struct {
	WorkingDirectory string
}

// ShellCommand is a command line to be interpreted by the shell of the given kind.
type ShellCommand struct {
	Kind      ShellKind
	Script    string
	SessionID string
	Details   CommandDetails
}

// ProcessInvocation is the concrete executable and argument vector for a ShellCommand.
type ProcessInvocation struct {
	Executable string
	Arguments  []string
	Details    CommandDetails
}

// ExecutionResult captures the observable outcome of a process that ran to completion.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
	Duration       time.Duration
}

// CommandRunner starts a process and waits for it. It returns an error only when the process
// could not be run; a non-zero exit code is reported through ExecutionResult.
type CommandRunner interface {
	Run(executionContext context.Context, invocation ProcessInvocation) (ExecutionResult, error)
}
