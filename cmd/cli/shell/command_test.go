package shell_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/codedeck/cmd/cli/shell"
	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/metrics"
	"github.com/temirov/codedeck/internal/terminal"
	pathutils "github.com/temirov/codedeck/internal/utils/path"
)

const (
	testSkipNonPOSIXMessageConstant = "posix shell required"
)

type cannedCommandRunner struct {
	result      execshell.ExecutionResult
	invocations []execshell.ProcessInvocation
}

func (runner *cannedCommandRunner) Run(_ context.Context, invocation execshell.ProcessInvocation) (execshell.ExecutionResult, error) {
	runner.invocations = append(runner.invocations, invocation)
	return runner.result, nil
}

func posixBackendFactory(metricsRecorder *metrics.Recorder) (*backend.Backend, error) {
	return backend.New(backend.Options{MetricsRecorder: metricsRecorder})
}

func cannedBackendFactory(runner execshell.CommandRunner) backend.Factory {
	return func(metricsRecorder *metrics.Recorder) (*backend.Backend, error) {
		return backend.New(backend.Options{CommandRunner: runner, MetricsRecorder: metricsRecorder})
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, string, error) {
	testInstance.Helper()
	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	command.SetOut(&standardOutput)
	command.SetErr(&standardError)
	command.SilenceUsage = true
	command.SilenceErrors = true
	command.SetArgs(arguments)
	executionError := command.Execute()
	return standardOutput.String(), standardError.String(), executionError
}

func buildExecuteCommand(testInstance *testing.T, builder shell.ExecuteCommandBuilder) *cobra.Command {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	return command
}

func TestExecuteCommandRoutesStreams(testInstance *testing.T) {
	testCases := []struct {
		name           string
		result         execshell.ExecutionResult
		expectedOutput string
		expectedError  string
	}{
		{
			name:           "success_stream",
			result:         execshell.ExecutionResult{StandardOutput: "hello\n"},
			expectedOutput: "hello\n",
		},
		{
			name:          "error_stream_wins",
			result:        execshell.ExecutionResult{StandardOutput: "partial\n", StandardError: "failure\n", ExitCode: 1},
			expectedError: "failure\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandRunner := &cannedCommandRunner{result: testCase.result}
			command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
				BackendFactory:   cannedBackendFactory(commandRunner),
				DefaultShellKind: execshell.ShellKindPOSIX,
			})

			standardOutput, standardError, executionError := executeCommand(testInstance, command, "echo", "hello")
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedOutput, standardOutput)
			require.Equal(testInstance, testCase.expectedError, standardError)

			require.Len(testInstance, commandRunner.invocations, 1)
			require.Equal(testInstance, []string{"-c", "echo hello"}, commandRunner.invocations[0].Arguments)
		})
	}
}

func TestExecuteCommandShellSelection(testInstance *testing.T) {
	commandRunner := &cannedCommandRunner{}
	command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
		BackendFactory:   cannedBackendFactory(commandRunner),
		DefaultShellKind: execshell.ShellKindPOSIX,
	})

	_, _, executionError := executeCommand(testInstance, command, "--shell", "windows", "dir")
	require.NoError(testInstance, executionError)
	require.Len(testInstance, commandRunner.invocations, 1)
	require.Equal(testInstance, "cmd", commandRunner.invocations[0].Executable)
	require.Equal(testInstance, []string{"/C", "dir"}, commandRunner.invocations[0].Arguments)

	rejectingCommand := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{BackendFactory: cannedBackendFactory(commandRunner)})
	_, _, flagError := executeCommand(testInstance, rejectingCommand, "--shell", "powershell", "dir")
	require.Error(testInstance, flagError)
	require.Contains(testInstance, flagError.Error(), "expected one of")
}

func TestExecuteCommandPassesFlagsAfterCommandToShell(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()

	testCases := []struct {
		name              string
		arguments         []string
		expectedScript    string
		expectedDirectory string
	}{
		{name: "short_flags", arguments: []string{"ls", "-la"}, expectedScript: "ls -la"},
		{name: "long_flags_matching_own_flags", arguments: []string{"grep", "--directory", "x", "--shell"}, expectedScript: "grep --directory x --shell"},
		{name: "own_flags_before_command", arguments: []string{"--directory", workingDirectory, "ls", "-a"}, expectedScript: "ls -a", expectedDirectory: workingDirectory},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandRunner := &cannedCommandRunner{}
			command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
				BackendFactory:   cannedBackendFactory(commandRunner),
				DefaultShellKind: execshell.ShellKindPOSIX,
			})

			_, _, executionError := executeCommand(testInstance, command, testCase.arguments...)
			require.NoError(testInstance, executionError)
			require.Len(testInstance, commandRunner.invocations, 1)
			require.Equal(testInstance, []string{"-c", testCase.expectedScript}, commandRunner.invocations[0].Arguments)
			if len(testCase.expectedDirectory) > 0 {
				require.Equal(testInstance, testCase.expectedDirectory, commandRunner.invocations[0].Details.WorkingDirectory)
			}
		})
	}
}

func TestExecuteCommandFailures(testInstance *testing.T) {
	testInstance.Run("missing_command", func(testInstance *testing.T) {
		command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{BackendFactory: posixBackendFactory})
		_, _, executionError := executeCommand(testInstance, command)
		require.Error(testInstance, executionError)
		require.Contains(testInstance, executionError.Error(), "requires a command")
	})

	testInstance.Run("missing_backend", func(testInstance *testing.T) {
		command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{})
		_, _, executionError := executeCommand(testInstance, command, "true")
		require.Error(testInstance, executionError)
	})

	testInstance.Run("backend_factory_error", func(testInstance *testing.T) {
		factoryError := errors.New("wiring failed")
		command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
			BackendFactory: func(*metrics.Recorder) (*backend.Backend, error) { return nil, factoryError },
		})
		_, _, executionError := executeCommand(testInstance, command, "true")
		require.ErrorIs(testInstance, executionError, factoryError)
	})

	testInstance.Run("missing_directory", func(testInstance *testing.T) {
		if runtime.GOOS == "windows" {
			testInstance.Skip(testSkipNonPOSIXMessageConstant)
		}
		command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
			BackendFactory:   posixBackendFactory,
			DefaultShellKind: execshell.ShellKindPOSIX,
		})
		missingDirectory := filepath.Join(testInstance.TempDir(), "missing")
		_, _, executionError := executeCommand(testInstance, command, "--directory", missingDirectory, "true")
		require.Error(testInstance, executionError)
		var terminalError terminal.ExecutionError
		require.ErrorAs(testInstance, executionError, &terminalError)
	})
}

func TestExecuteCommandWithPOSIXShell(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip(testSkipNonPOSIXMessageConstant)
	}

	homeDirectory := testInstance.TempDir()
	command := buildExecuteCommand(testInstance, shell.ExecuteCommandBuilder{
		BackendFactory:   posixBackendFactory,
		HomeExpander:     pathutils.NewHomeExpanderWithProvider(func() (string, error) { return homeDirectory, nil }),
		DefaultShellKind: execshell.ShellKindPOSIX,
	})

	standardOutput, standardError, executionError := executeCommand(testInstance, command, "--directory", "~", "--", "pwd")
	require.NoError(testInstance, executionError)
	require.Empty(testInstance, standardError)

	resolvedHome, resolveError := filepath.EvalSymlinks(homeDirectory)
	require.NoError(testInstance, resolveError)
	resolvedOutput, outputError := filepath.EvalSymlinks(strings.TrimSpace(standardOutput))
	require.NoError(testInstance, outputError)
	require.Equal(testInstance, resolvedHome, resolvedOutput)
}

func TestCurrentDirectoryCommand(testInstance *testing.T) {
	commandRunner := &cannedCommandRunner{result: execshell.ExecutionResult{StandardOutput: "  /work/project\n", StandardError: "noise"}}
	builder := shell.CurrentDirectoryCommandBuilder{
		BackendFactory:   cannedBackendFactory(commandRunner),
		DefaultShellKind: execshell.ShellKindPOSIX,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	standardOutput, _, executionError := executeCommand(testInstance, command)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "/work/project\n", standardOutput)
	require.Len(testInstance, commandRunner.invocations, 1)
	require.Equal(testInstance, []string{"-c", "pwd"}, commandRunner.invocations[0].Arguments)

	extraArgumentsCommand, _ := builder.Build()
	_, _, argumentsError := executeCommand(testInstance, extraArgumentsCommand, "unexpected")
	require.Error(testInstance, argumentsError)
}

func TestPlatformShellKind(testInstance *testing.T) {
	expectedShellKind := execshell.ShellKindPOSIX
	if runtime.GOOS == "windows" {
		expectedShellKind = execshell.ShellKindWindows
	}
	require.Equal(testInstance, expectedShellKind, shell.PlatformShellKind())
}
