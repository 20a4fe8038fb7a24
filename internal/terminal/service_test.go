package terminal_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/filesystem"
	"github.com/temirov/codedeck/internal/terminal"
)

const (
	testSessionIdentifierConstant = "session_42"
	testWorkingDirectoryConstant  = "/tmp"
)

type stubCommandExecutor struct {
	mutex            sync.Mutex
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (executor *stubCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recordedCommands = append(executor.recordedCommands, command)
	return executor.executionResult, executor.executionError
}

type stubFileSystem struct {
	filesystem.OSFileSystem
	workingDirectory string
	getwdError       error
}

func (fileSystem stubFileSystem) Getwd() (string, error) {
	return fileSystem.workingDirectory, fileSystem.getwdError
}

type recordingSessionObserver struct {
	mutex    sync.Mutex
	sessions []terminal.Session
}

func (sessionObserver *recordingSessionObserver) SessionOpened(session terminal.Session) {
	sessionObserver.mutex.Lock()
	defer sessionObserver.mutex.Unlock()
	sessionObserver.sessions = append(sessionObserver.sessions, session)
}

func newStubService(testInstance *testing.T, executor terminal.CommandExecutor, policy execshell.UnknownShellPolicy) *terminal.Service {
	testInstance.Helper()
	service, creationError := terminal.NewService(terminal.ServiceDependencies{
		Executor:           executor,
		FileSystem:         stubFileSystem{workingDirectory: "/home/editor"},
		Logger:             zap.NewNop(),
		UnknownShellPolicy: policy,
	})
	require.NoError(testInstance, creationError)
	return service
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, missingExecutorError := terminal.NewService(terminal.ServiceDependencies{FileSystem: filesystem.OSFileSystem{}})
	require.ErrorIs(testInstance, missingExecutorError, terminal.ErrExecutorNotConfigured)

	_, missingFileSystemError := terminal.NewService(terminal.ServiceDependencies{Executor: &stubCommandExecutor{}})
	require.ErrorIs(testInstance, missingFileSystemError, terminal.ErrFileSystemNotConfigured)
}

func TestOpenSessionMintsSequentialIdentifiers(testInstance *testing.T) {
	sessionObserver := &recordingSessionObserver{}
	service, creationError := terminal.NewService(terminal.ServiceDependencies{
		Executor:        &stubCommandExecutor{},
		FileSystem:      stubFileSystem{workingDirectory: "/home/editor"},
		SessionObserver: sessionObserver,
	})
	require.NoError(testInstance, creationError)

	firstSession, firstError := service.OpenSession("posix", "")
	require.NoError(testInstance, firstError)
	secondSession, secondError := service.OpenSession("posix", "")
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, "session_1", firstSession.ID)
	require.Equal(testInstance, "session_2", secondSession.ID)
	require.Equal(testInstance, execshell.ShellKindPOSIX, firstSession.ShellKind)
	require.Equal(testInstance, "/home/editor", firstSession.WorkingDirectory)
	require.Len(testInstance, sessionObserver.sessions, 2)
}

func TestOpenSessionResolvesWorkingDirectory(testInstance *testing.T) {
	service := newStubService(testInstance, &stubCommandExecutor{}, execshell.UnknownShellPolicyReject)

	absoluteSession, absoluteError := service.OpenSession("windows", testWorkingDirectoryConstant)
	require.NoError(testInstance, absoluteError)
	require.Equal(testInstance, testWorkingDirectoryConstant, absoluteSession.WorkingDirectory)
	require.Equal(testInstance, execshell.ShellKindWindows, absoluteSession.ShellKind)

	relativeSession, relativeError := service.OpenSession("posix", "project")
	require.NoError(testInstance, relativeError)
	require.True(testInstance, filepath.IsAbs(relativeSession.WorkingDirectory))
	require.Equal(testInstance, "project", filepath.Base(relativeSession.WorkingDirectory))
}

func TestOpenSessionFailures(testInstance *testing.T) {
	service, creationError := terminal.NewService(terminal.ServiceDependencies{
		Executor:   &stubCommandExecutor{},
		FileSystem: stubFileSystem{getwdError: errors.New("getwd failed")},
	})
	require.NoError(testInstance, creationError)

	_, unknownKindError := service.OpenSession("fish", testWorkingDirectoryConstant)
	require.ErrorIs(testInstance, unknownKindError, execshell.ErrUnsupportedShellKind)

	_, getwdError := service.OpenSession("posix", "")
	require.ErrorContains(testInstance, getwdError, "getwd failed")

	session, openError := service.OpenSession("posix", testWorkingDirectoryConstant)
	require.NoError(testInstance, openError)
	require.Equal(testInstance, "session_1", session.ID)
}

func TestOpenSessionConcurrentIdentifiersAreUnique(testInstance *testing.T) {
	const sessionCount = 200
	service := newStubService(testInstance, &stubCommandExecutor{}, execshell.UnknownShellPolicyReject)

	var waitGroup sync.WaitGroup
	identifiers := make(chan string, sessionCount)
	for index := 0; index < sessionCount; index++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			session, openError := service.OpenSession("posix", testWorkingDirectoryConstant)
			if openError == nil {
				identifiers <- session.ID
			}
		}()
	}
	waitGroup.Wait()
	close(identifiers)

	uniqueIdentifiers := make(map[string]struct{}, sessionCount)
	for identifier := range identifiers {
		uniqueIdentifiers[identifier] = struct{}{}
	}
	require.Len(testInstance, uniqueIdentifiers, sessionCount)
	for index := 1; index <= sessionCount; index++ {
		require.Contains(testInstance, uniqueIdentifiers, fmt.Sprintf("session_%d", index))
	}
}

func TestExecuteSelectsStreamByErrorOutput(testInstance *testing.T) {
	testCases := []struct {
		name           string
		result         execshell.ExecutionResult
		expectedResult terminal.CommandResult
	}{
		{
			name:           "stdout_only",
			result:         execshell.ExecutionResult{StandardOutput: "hello\n"},
			expectedResult: terminal.CommandResult{Output: "hello\n", IsError: false},
		},
		{
			name:           "stderr_discards_stdout",
			result:         execshell.ExecutionResult{StandardOutput: "partial\n", StandardError: "warning\n"},
			expectedResult: terminal.CommandResult{Output: "warning\n", IsError: true},
		},
		{
			name:           "non_zero_exit_without_stderr",
			result:         execshell.ExecutionResult{StandardOutput: "", ExitCode: 1},
			expectedResult: terminal.CommandResult{Output: "", IsError: false},
		},
		{
			name:           "stderr_with_zero_exit",
			result:         execshell.ExecutionResult{StandardError: "deprecated flag\n", ExitCode: 0},
			expectedResult: terminal.CommandResult{Output: "deprecated flag\n", IsError: true},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubCommandExecutor{executionResult: testCase.result}
			service := newStubService(testInstance, executor, execshell.UnknownShellPolicyReject)

			commandResult, executionError := service.Execute(context.Background(), terminal.ExecuteOptions{
				SessionID:        testSessionIdentifierConstant,
				Command:          "run",
				ShellKind:        "posix",
				WorkingDirectory: testWorkingDirectoryConstant,
			})
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedResult, commandResult)

			require.Len(testInstance, executor.recordedCommands, 1)
			recordedCommand := executor.recordedCommands[0]
			require.Equal(testInstance, execshell.ShellKindPOSIX, recordedCommand.Kind)
			require.Equal(testInstance, "run", recordedCommand.Script)
			require.Equal(testInstance, testSessionIdentifierConstant, recordedCommand.SessionID)
			require.Equal(testInstance, testWorkingDirectoryConstant, recordedCommand.Details.WorkingDirectory)
		})
	}
}

func TestExecuteDoesNotValidateSessionIdentifier(testInstance *testing.T) {
	executor := &stubCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: "ok"}}
	service := newStubService(testInstance, executor, execshell.UnknownShellPolicyReject)

	openedSession, openError := service.OpenSession("posix", "/srv")
	require.NoError(testInstance, openError)

	commandResult, executionError := service.Execute(context.Background(), terminal.ExecuteOptions{
		SessionID:        openedSession.ID,
		Command:          "ls",
		ShellKind:        "windows",
		WorkingDirectory: "/elsewhere",
	})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "ok", commandResult.Output)

	_, neverIssuedError := service.Execute(context.Background(), terminal.ExecuteOptions{SessionID: "session_999", Command: "ls", ShellKind: "posix"})
	require.NoError(testInstance, neverIssuedError)

	require.Equal(testInstance, execshell.ShellKindWindows, executor.recordedCommands[0].Kind)
	require.Equal(testInstance, "/elsewhere", executor.recordedCommands[0].Details.WorkingDirectory)
}

func TestExecuteUnknownShellKindPolicies(testInstance *testing.T) {
	testCases := []struct {
		name         string
		policy       execshell.UnknownShellPolicy
		expectError  bool
		expectedKind execshell.ShellKind
	}{
		{name: "reject", policy: execshell.UnknownShellPolicyReject, expectError: true},
		{name: "windows_fallback", policy: execshell.UnknownShellPolicyWindows, expectedKind: execshell.ShellKindWindows},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			executor := &stubCommandExecutor{}
			service, creationError := terminal.NewService(terminal.ServiceDependencies{
				Executor:           executor,
				FileSystem:         filesystem.OSFileSystem{},
				Logger:             zap.New(observerCore),
				UnknownShellPolicy: testCase.policy,
			})
			require.NoError(testInstance, creationError)

			_, executionError := service.Execute(context.Background(), terminal.ExecuteOptions{SessionID: testSessionIdentifierConstant, Command: "dir", ShellKind: "powershell"})
			if testCase.expectError {
				require.ErrorIs(testInstance, executionError, execshell.ErrUnsupportedShellKind)
				require.IsType(testInstance, terminal.ExecutionError{}, executionError)
				require.Empty(testInstance, executor.recordedCommands)
				return
			}

			require.NoError(testInstance, executionError)
			require.Len(testInstance, executor.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedKind, executor.recordedCommands[0].Kind)
			require.Len(testInstance, observerLogs.FilterMessage("unrecognized shell kind, using windows shell").All(), 1)
		})
	}
}

func TestExecuteWrapsSpawnFailures(testInstance *testing.T) {
	spawnFailure := errors.New("exec: \"cmd\": executable file not found in $PATH")
	executor := &stubCommandExecutor{executionError: execshell.CommandExecutionError{Cause: spawnFailure}}
	service := newStubService(testInstance, executor, execshell.UnknownShellPolicyReject)

	commandResult, executionError := service.Execute(context.Background(), terminal.ExecuteOptions{SessionID: testSessionIdentifierConstant, Command: "dir", ShellKind: "windows"})
	require.Equal(testInstance, terminal.CommandResult{}, commandResult)
	require.ErrorIs(testInstance, executionError, spawnFailure)

	var terminalExecutionError terminal.ExecutionError
	require.True(testInstance, errors.As(executionError, &terminalExecutionError))
	require.Equal(testInstance, testSessionIdentifierConstant, terminalExecutionError.SessionID)
	require.Contains(testInstance, executionError.Error(), "executable file not found")
}

func TestCurrentDirectoryTrimsOutputAndIgnoresErrorStream(testInstance *testing.T) {
	executor := &stubCommandExecutor{executionResult: execshell.ExecutionResult{StandardOutput: "C:\\Users\\editor\r\n", StandardError: "noise"}}
	service := newStubService(testInstance, executor, execshell.UnknownShellPolicyReject)

	currentDirectory, directoryError := service.CurrentDirectory(context.Background(), testSessionIdentifierConstant, "windows")
	require.NoError(testInstance, directoryError)
	require.Equal(testInstance, "C:\\Users\\editor", currentDirectory)

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, "cd", executor.recordedCommands[0].Script)
	require.Empty(testInstance, executor.recordedCommands[0].Details.WorkingDirectory)
}

func TestCurrentDirectoryFailures(testInstance *testing.T) {
	failingExecutor := &stubCommandExecutor{executionError: errors.New("spawn failed")}
	service := newStubService(testInstance, failingExecutor, execshell.UnknownShellPolicyReject)

	_, spawnError := service.CurrentDirectory(context.Background(), testSessionIdentifierConstant, "posix")
	require.ErrorContains(testInstance, spawnError, "spawn failed")

	_, unknownKindError := service.CurrentDirectory(context.Background(), testSessionIdentifierConstant, "zsh")
	require.ErrorIs(testInstance, unknownKindError, execshell.ErrUnsupportedShellKind)
}

func TestServiceWithPOSIXShell(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("requires /bin/sh")
	}

	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner(nil))
	require.NoError(testInstance, executorError)
	service, creationError := terminal.NewService(terminal.ServiceDependencies{Executor: shellExecutor, FileSystem: filesystem.OSFileSystem{}})
	require.NoError(testInstance, creationError)

	workingDirectory := testInstance.TempDir()
	session, openError := service.OpenSession("posix", workingDirectory)
	require.NoError(testInstance, openError)

	testCases := []struct {
		name             string
		command          string
		workingDirectory string
		expectIsError    bool
		expectedOutput   string
	}{
		{name: "echo", command: "echo hello", workingDirectory: workingDirectory, expectedOutput: "hello\n"},
		{name: "missing_program", command: "nosuchprogram123", workingDirectory: workingDirectory, expectIsError: true},
		{name: "both_streams", command: "echo visible; echo trouble 1>&2", workingDirectory: workingDirectory, expectIsError: true, expectedOutput: "trouble\n"},
		{name: "failing_exit_without_stderr", command: "false", workingDirectory: workingDirectory, expectedOutput: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandResult, executionError := service.Execute(context.Background(), terminal.ExecuteOptions{
				SessionID:        session.ID,
				Command:          testCase.command,
				ShellKind:        "posix",
				WorkingDirectory: testCase.workingDirectory,
			})
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectIsError, commandResult.IsError)
			if testCase.expectIsError && len(testCase.expectedOutput) == 0 {
				require.Contains(testInstance, commandResult.Output, "nosuchprogram123")
				return
			}
			require.Equal(testInstance, testCase.expectedOutput, commandResult.Output)
		})
	}

	_, missingDirectoryError := service.Execute(context.Background(), terminal.ExecuteOptions{
		SessionID:        session.ID,
		Command:          "echo unreachable",
		ShellKind:        "posix",
		WorkingDirectory: filepath.Join(workingDirectory, "missing"),
	})
	require.Error(testInstance, missingDirectoryError)
	require.IsType(testInstance, terminal.ExecutionError{}, missingDirectoryError)

	currentDirectory, directoryError := service.CurrentDirectory(context.Background(), session.ID, "posix")
	require.NoError(testInstance, directoryError)
	require.NotEmpty(testInstance, currentDirectory)
	require.True(testInstance, filepath.IsAbs(currentDirectory))
}
