package terminal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/filesystem"
)

const (
	workingDirectoryResolutionTemplateConstant = "unable to resolve working directory: %w"
	sessionOpenedMessageConstant               = "terminal session opened"
	commandExecutedMessageConstant             = "terminal command executed"
	commandFailedMessageConstant               = "terminal command could not run"
	shellKindFallbackMessageConstant           = "unrecognized shell kind, using windows shell"
	currentDirectoryResolvedMessageConstant    = "terminal working directory resolved"
	logFieldSessionIdentifierConstant          = "session_id"
	logFieldShellKindConstant                  = "shell_kind"
	logFieldRequestedShellKindConstant         = "requested_shell_kind"
	logFieldWorkingDirectoryConstant           = "working_directory"
	logFieldIsErrorConstant                    = "is_error"
	logFieldOutputLengthConstant               = "output_length"
)

// CommandExecutor runs a shell command to completion.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// SessionObserver is notified of every opened session.
type SessionObserver interface {
	SessionOpened(session Session)
}

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Executor           CommandExecutor
	FileSystem         filesystem.FileSystem
	Logger             *zap.Logger
	UnknownShellPolicy execshell.UnknownShellPolicy
	SessionObserver    SessionObserver
}

// ExecuteOptions describe one command execution. SessionID is used for tracing only.
type ExecuteOptions struct {
	SessionID        string
	Command          string
	ShellKind        string
	WorkingDirectory string
}

// Service opens advisory sessions and executes commands in them.
type Service struct {
	executor           CommandExecutor
	fileSystem         filesystem.FileSystem
	logger             *zap.Logger
	unknownShellPolicy execshell.UnknownShellPolicy
	sessionObserver    SessionObserver

	sessionCounterMutex sync.Mutex
	lastSessionNumber   uint64
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	unknownShellPolicy := dependencies.UnknownShellPolicy
	if len(unknownShellPolicy) == 0 {
		unknownShellPolicy = execshell.UnknownShellPolicyReject
	}

	return &Service{
		executor:           dependencies.Executor,
		fileSystem:         dependencies.FileSystem,
		logger:             logger,
		unknownShellPolicy: unknownShellPolicy,
		sessionObserver:    dependencies.SessionObserver,
	}, nil
}

// OpenSession mints the next session identifier. A blank working directory defaults to the
// process working directory at call time; relative directories are made absolute. No process
// is started.
func (service *Service) OpenSession(shellKind string, workingDirectory string) (Session, error) {
	resolvedKind, resolveError := service.resolveShellKind(shellKind, "")
	if resolveError != nil {
		return Session{}, resolveError
	}

	resolvedWorkingDirectory, directoryError := service.resolveWorkingDirectory(workingDirectory)
	if directoryError != nil {
		return Session{}, directoryError
	}

	session := Session{
		ID:               formatSessionIdentifier(service.nextSessionNumber()),
		ShellKind:        resolvedKind,
		WorkingDirectory: resolvedWorkingDirectory,
	}

	if service.sessionObserver != nil {
		service.sessionObserver.SessionOpened(session)
	}
	service.logger.Info(
		sessionOpenedMessageConstant,
		zap.String(logFieldSessionIdentifierConstant, session.ID),
		zap.String(logFieldShellKindConstant, session.ShellKind.String()),
		zap.String(logFieldWorkingDirectoryConstant, session.WorkingDirectory),
	)
	return session, nil
}

// Execute runs the command with the shell kind and working directory supplied in options; the
// session identifier is not looked up. Output on the error stream yields IsError results rather
// than errors. Only failures to run the shell return an ExecutionError.
func (service *Service) Execute(executionContext context.Context, options ExecuteOptions) (CommandResult, error) {
	resolvedKind, resolveError := service.resolveShellKind(options.ShellKind, options.SessionID)
	if resolveError != nil {
		return CommandResult{}, ExecutionError{SessionID: options.SessionID, ShellKind: options.ShellKind, Cause: resolveError}
	}

	executionResult, executionError := service.executor.Execute(executionContext, execshell.ShellCommand{
		Kind:      resolvedKind,
		Script:    options.Command,
		SessionID: options.SessionID,
		Details:   execshell.CommandDetails{WorkingDirectory: options.WorkingDirectory},
	})
	if executionError != nil {
		service.logger.Warn(
			commandFailedMessageConstant,
			zap.String(logFieldSessionIdentifierConstant, options.SessionID),
			zap.String(logFieldShellKindConstant, resolvedKind.String()),
			zap.String(logFieldWorkingDirectoryConstant, options.WorkingDirectory),
			zap.Error(executionError),
		)
		return CommandResult{}, ExecutionError{SessionID: options.SessionID, ShellKind: options.ShellKind, Cause: executionError}
	}

	commandResult := NewCommandResult(executionResult)
	service.logger.Info(
		commandExecutedMessageConstant,
		zap.String(logFieldSessionIdentifierConstant, options.SessionID),
		zap.String(logFieldShellKindConstant, resolvedKind.String()),
		zap.String(logFieldWorkingDirectoryConstant, options.WorkingDirectory),
		zap.Bool(logFieldIsErrorConstant, commandResult.IsError),
		zap.Int(logFieldOutputLengthConstant, len(commandResult.Output)),
	)
	return commandResult, nil
}

// CurrentDirectory runs the shell's print-working-directory built-in without a working directory
// override and returns its trimmed success stream. The error stream is ignored.
func (service *Service) CurrentDirectory(executionContext context.Context, sessionID string, shellKind string) (string, error) {
	resolvedKind, resolveError := service.resolveShellKind(shellKind, sessionID)
	if resolveError != nil {
		return "", ExecutionError{SessionID: sessionID, ShellKind: shellKind, Cause: resolveError}
	}

	workingDirectoryScript, scriptError := execshell.WorkingDirectoryScript(resolvedKind)
	if scriptError != nil {
		return "", ExecutionError{SessionID: sessionID, ShellKind: shellKind, Cause: scriptError}
	}

	executionResult, executionError := service.executor.Execute(executionContext, execshell.ShellCommand{
		Kind:      resolvedKind,
		Script:    workingDirectoryScript,
		SessionID: sessionID,
	})
	if executionError != nil {
		return "", ExecutionError{SessionID: sessionID, ShellKind: shellKind, Cause: executionError}
	}

	currentDirectory := strings.TrimSpace(executionResult.StandardOutput)
	service.logger.Debug(
		currentDirectoryResolvedMessageConstant,
		zap.String(logFieldSessionIdentifierConstant, sessionID),
		zap.String(logFieldWorkingDirectoryConstant, currentDirectory),
	)
	return currentDirectory, nil
}

func (service *Service) nextSessionNumber() uint64 {
	service.sessionCounterMutex.Lock()
	defer service.sessionCounterMutex.Unlock()
	service.lastSessionNumber++
	return service.lastSessionNumber
}

func (service *Service) resolveShellKind(rawShellKind string, sessionID string) (execshell.ShellKind, error) {
	resolvedKind, fellBack, resolveError := service.unknownShellPolicy.Resolve(rawShellKind)
	if resolveError != nil {
		return execshell.ShellKindUnknown, resolveError
	}
	if fellBack {
		service.logger.Warn(
			shellKindFallbackMessageConstant,
			zap.String(logFieldSessionIdentifierConstant, sessionID),
			zap.String(logFieldRequestedShellKindConstant, rawShellKind),
		)
	}
	return resolvedKind, nil
}

func (service *Service) resolveWorkingDirectory(workingDirectory string) (string, error) {
	trimmedWorkingDirectory := strings.TrimSpace(workingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		currentDirectory, getwdError := service.fileSystem.Getwd()
		if getwdError != nil {
			return "", fmt.Errorf(workingDirectoryResolutionTemplateConstant, getwdError)
		}
		return currentDirectory, nil
	}

	absoluteDirectory, absError := service.fileSystem.Abs(trimmedWorkingDirectory)
	if absError != nil {
		return "", fmt.Errorf(workingDirectoryResolutionTemplateConstant, absError)
	}
	return absoluteDirectory, nil
}
