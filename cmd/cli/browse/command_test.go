package browse_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/codedeck/cmd/cli/browse"
	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/metrics"
	pathutils "github.com/temirov/codedeck/internal/utils/path"
)

func testBackendFactory(metricsRecorder *metrics.Recorder) (*backend.Backend, error) {
	return backend.New(backend.Options{MetricsRecorder: metricsRecorder})
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&outputBuffer)
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func populateProject(testInstance *testing.T) string {
	testInstance.Helper()
	rootDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(rootDirectory, "src"), 0o755))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(rootDirectory, ".git"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootDirectory, "zz.txt"), []byte("zz"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootDirectory, "README.md"), []byte("# Project\n"), 0o644))
	return rootDirectory
}

func TestListCommand(testInstance *testing.T) {
	rootDirectory := populateProject(testInstance)

	testCases := []struct {
		name      string
		arguments []string
		verify    func(testInstance *testing.T, output string)
	}{
		{
			name:      "text",
			arguments: []string{rootDirectory},
			verify: func(testInstance *testing.T, output string) {
				require.Equal(testInstance, "src/\nREADME.md\nzz.txt\n", output)
			},
		},
		{
			name:      "subdirectory_text",
			arguments: []string{"--subdirectory", filepath.Join(rootDirectory, "src")},
			verify: func(testInstance *testing.T, output string) {
				require.Empty(testInstance, output)
			},
		},
		{
			name:      "json",
			arguments: []string{"--format", "JSON", rootDirectory},
			verify: func(testInstance *testing.T, output string) {
				var entries []filebrowser.FileEntry
				require.NoError(testInstance, json.Unmarshal([]byte(output), &entries))
				require.Len(testInstance, entries, 3)
				require.Equal(testInstance, filebrowser.FileEntry{Name: "src", Path: filepath.Join(rootDirectory, "src"), IsDirectory: true}, entries[0])
			},
		},
		{
			name:      "json_empty_directory",
			arguments: []string{"--format", "json", filepath.Join(rootDirectory, "src")},
			verify: func(testInstance *testing.T, output string) {
				require.Equal(testInstance, "[]\n", output)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := browse.ListCommandBuilder{BackendFactory: testBackendFactory}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			output, executionError := executeCommand(testInstance, command, testCase.arguments...)
			require.NoError(testInstance, executionError)
			testCase.verify(testInstance, output)
		})
	}
}

func TestListCommandFailures(testInstance *testing.T) {
	rootDirectory := populateProject(testInstance)

	testCases := []struct {
		name         string
		arguments    []string
		expectedKind error
	}{
		{name: "missing", arguments: []string{filepath.Join(rootDirectory, "missing")}, expectedKind: filebrowser.ErrPathNotFound},
		{name: "file", arguments: []string{filepath.Join(rootDirectory, "zz.txt")}, expectedKind: filebrowser.ErrNotADirectory},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := browse.ListCommandBuilder{BackendFactory: testBackendFactory}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)
			command.SilenceUsage = true

			_, executionError := executeCommand(testInstance, command, testCase.arguments...)
			require.ErrorIs(testInstance, executionError, testCase.expectedKind)
		})
	}

	builder := browse.ListCommandBuilder{BackendFactory: testBackendFactory}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SilenceUsage = true
	_, formatError := executeCommand(testInstance, command, "--format", "yaml", rootDirectory)
	require.Error(testInstance, formatError)
}

func TestListCommandExpandsHomeDirectory(testInstance *testing.T) {
	rootDirectory := populateProject(testInstance)
	builder := browse.ListCommandBuilder{
		BackendFactory: testBackendFactory,
		HomeExpander: pathutils.NewHomeExpanderWithProvider(func() (string, error) {
			return rootDirectory, nil
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "~")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "src/\nREADME.md\nzz.txt\n", output)
}

func TestReadCommand(testInstance *testing.T) {
	rootDirectory := populateProject(testInstance)
	builder := browse.ReadCommandBuilder{BackendFactory: testBackendFactory}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	output, executionError := executeCommand(testInstance, command, filepath.Join(rootDirectory, "README.md"))
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "# Project\n", output)

	missingCommand, missingBuildError := builder.Build()
	require.NoError(testInstance, missingBuildError)
	missingCommand.SilenceUsage = true
	_, missingError := executeCommand(testInstance, missingCommand, filepath.Join(rootDirectory, "nope.md"))
	require.ErrorIs(testInstance, missingError, filebrowser.ErrPathNotFound)

	unconfiguredBuilder := browse.ReadCommandBuilder{}
	unconfiguredCommand, unconfiguredBuildError := unconfiguredBuilder.Build()
	require.NoError(testInstance, unconfiguredBuildError)
	unconfiguredCommand.SilenceUsage = true
	_, unconfiguredError := executeCommand(testInstance, unconfiguredCommand, "README.md")
	require.Error(testInstance, unconfiguredError)
}
