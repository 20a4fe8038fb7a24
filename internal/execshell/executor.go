package execshell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandExecutionErrorTemplateConstant     = "%s shell could not run command: %v"
	logFieldShellKindConstant                 = "shell_kind"
	logFieldExecutableConstant                = "executable"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldSessionIdentifierConstant         = "session_id"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldDurationConstant                  = "duration"
	logFieldStandardErrorBytesConstant        = "stderr_bytes"
	logFieldStandardOutputBytesConstant       = "stdout_bytes"
)

// ErrLoggerNotConfigured indicates that a shell executor was created without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that a shell executor was created without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandExecutionError reports that the shell process could not be started or waited for.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Kind, executionError.Cause)
}

// Unwrap exposes the underlying operating system error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutorOption customizes a ShellExecutor.
type ShellExecutorOption func(*ShellExecutor)

// WithInvocationTable overrides the shells used for each kind.
func WithInvocationTable(invocationTable ShellInvocationTable) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		executor.invocationTable = invocationTable
	}
}

// WithCommandEventObserver registers an observer for command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observers = append(executor.observers, observer)
		}
	}
}

// WithCommandTimeout bounds every process; zero or negative durations disable the bound.
func WithCommandTimeout(timeout time.Duration) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		executor.commandTimeout = timeout
	}
}

// ShellExecutor runs shell commands through a CommandRunner with logging and lifecycle events.
type ShellExecutor struct {
	logger          *zap.Logger
	runner          CommandRunner
	invocationTable ShellInvocationTable
	observers       CommandEventObservers
	commandTimeout  time.Duration
	formatter       CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor with the default invocation table.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ShellExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:          logger,
		runner:          runner,
		invocationTable: DefaultShellInvocationTable(),
		formatter:       CommandMessageFormatter{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	if len(executor.observers) == 0 {
		executor.observers = CommandEventObservers{noopCommandEventObserver{}}
	}

	return executor, nil
}

// Execute runs the command to completion. Only failures to run the process are returned as
// errors (CommandExecutionError); error-stream output and exit codes are part of the result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	invocation, buildError := executor.invocationTable.Build(command)
	if buildError != nil {
		return ExecutionResult{}, buildError
	}

	if executionContext == nil {
		executionContext = context.Background()
	}
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	commandFields := []zap.Field{
		zap.String(logFieldShellKindConstant, command.Kind.String()),
		zap.String(logFieldExecutableConstant, invocation.Executable),
		zap.String(logFieldWorkingDirectoryConstant, invocation.Details.WorkingDirectory),
		zap.String(logFieldSessionIdentifierConstant, command.SessionID),
	}

	executor.observers.CommandStarted(command)
	executor.logger.Debug(executor.formatter.BuildStartedMessage(command), commandFields...)

	startTime := time.Now()
	executionResult, runError := executor.runner.Run(executionContext, invocation)
	executionDuration := time.Since(startTime)

	if runError != nil {
		executionError := CommandExecutionError{Command: command, Cause: runError}
		executor.observers.CommandExecutionFailed(command, executionError)
		executor.logger.Warn(
			executor.formatter.BuildExecutionFailureMessage(command, runError),
			append(commandFields, zap.Duration(logFieldDurationConstant, executionDuration), zap.Error(runError))...,
		)
		return ExecutionResult{}, executionError
	}

	executionResult.Duration = executionDuration
	executor.observers.CommandCompleted(command, executionResult)
	executor.logger.Debug(
		executor.formatter.BuildCompletedMessage(command, executionResult),
		append(
			commandFields,
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.Int(logFieldStandardOutputBytesConstant, len(executionResult.StandardOutput)),
			zap.Int(logFieldStandardErrorBytesConstant, len(executionResult.StandardError)),
			zap.Duration(logFieldDurationConstant, executionDuration),
		)...,
	)

	return executionResult, nil
}
