package shell

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/terminal"
	"github.com/temirov/codedeck/internal/utils"
	"github.com/temirov/codedeck/internal/utils/flags"
	pathutils "github.com/temirov/codedeck/internal/utils/path"
)

const (
	executeCommandUseConstant               = "exec <command>"
	executeCommandShortDescriptionConstant  = "Run a shell command to completion"
	executeCommandLongDescriptionConstant   = "exec opens a terminal session and runs the command through the selected shell. When the command writes to its error stream, only that stream is printed, on standard error."
	currentDirectoryUseConstant             = "pwd"
	currentDirectoryShortDescription        = "Print the shell's working directory"
	currentDirectoryLongDescription         = "pwd runs the selected shell's print-working-directory built-in and prints its trimmed output."
	shellFlagNameConstant                   = "shell"
	shellFlagDescriptionConstant            = "Shell used to interpret the command."
	directoryFlagNameConstant               = "directory"
	directoryFlagDescriptionConstant        = "Working directory for the command (defaults to the current directory)."
	windowsOperatingSystemConstant          = "windows"
	commandArgumentSeparatorConstant        = " "
	missingCommandMessageConstant           = "exec requires a command"
	unexpectedArgumentsMessageConstant      = "pwd does not accept positional arguments"
	backendUnavailableMessageConstant       = "terminal backend not configured"
	openSessionErrorTemplateConstant        = "unable to open terminal session: %w"
	executionErrorTemplateConstant          = "command could not run: %w"
	currentDirectoryErrorTemplateConstant   = "unable to resolve working directory: %w"
	commandFinishedMessageConstant          = "command finished"
	logFieldSessionIdentifierConstant       = "session_id"
	logFieldIsErrorConstant                 = "is_error"
	currentDirectoryResolvedMessageConstant = "working directory resolved"
	logFieldDirectoryConstant               = "directory"
)

var (
	errMissingCommand      = errors.New(missingCommandMessageConstant)
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	errBackendUnavailable  = errors.New(backendUnavailableMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ExecuteCommandBuilder assembles the exec command.
type ExecuteCommandBuilder struct {
	LoggerProvider   LoggerProvider
	BackendFactory   backend.Factory
	HomeExpander     *pathutils.HomeExpander
	DefaultShellKind execshell.ShellKind
}

// Build constructs the exec command.
func (builder *ExecuteCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   executeCommandUseConstant,
		Short: executeCommandShortDescriptionConstant,
		Long:  executeCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	bindShellFlag(command, builder.DefaultShellKind)
	command.Flags().String(directoryFlagNameConstant, "", directoryFlagDescriptionConstant)
	// Everything after the first positional argument belongs to the shell command.
	command.Flags().SetInterspersed(false)

	return command, nil
}

func (builder *ExecuteCommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandLine := strings.TrimSpace(strings.Join(arguments, commandArgumentSeparatorConstant))
	if len(commandLine) == 0 {
		return errMissingCommand
	}

	terminalService, backendError := resolveTerminal(builder.BackendFactory)
	if backendError != nil {
		return backendError
	}

	shellKind := command.Flags().Lookup(shellFlagNameConstant).Value.String()
	directoryValue, _ := command.Flags().GetString(directoryFlagNameConstant)
	expander := builder.HomeExpander
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}

	session, sessionError := terminalService.OpenSession(shellKind, expander.Expand(strings.TrimSpace(directoryValue)))
	if sessionError != nil {
		return fmt.Errorf(openSessionErrorTemplateConstant, sessionError)
	}

	commandResult, executionError := terminalService.Execute(command.Context(), terminal.ExecuteOptions{
		SessionID:        session.ID,
		Command:          commandLine,
		ShellKind:        shellKind,
		WorkingDirectory: session.WorkingDirectory,
	})
	if executionError != nil {
		return fmt.Errorf(executionErrorTemplateConstant, executionError)
	}

	resolveLogger(builder.LoggerProvider).Debug(
		commandFinishedMessageConstant,
		zap.String(logFieldSessionIdentifierConstant, session.ID),
		zap.Bool(logFieldIsErrorConstant, commandResult.IsError),
	)

	outputWriter := command.OutOrStdout()
	if commandResult.IsError {
		outputWriter = command.ErrOrStderr()
	}
	_, writeError := io.WriteString(utils.NewFlushingWriter(outputWriter), commandResult.Output)
	return writeError
}

// CurrentDirectoryCommandBuilder assembles the pwd command.
type CurrentDirectoryCommandBuilder struct {
	LoggerProvider   LoggerProvider
	BackendFactory   backend.Factory
	DefaultShellKind execshell.ShellKind
}

// Build constructs the pwd command.
func (builder *CurrentDirectoryCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   currentDirectoryUseConstant,
		Short: currentDirectoryShortDescription,
		Long:  currentDirectoryLongDescription,
		RunE:  builder.run,
	}
	bindShellFlag(command, builder.DefaultShellKind)
	return command, nil
}

func (builder *CurrentDirectoryCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	terminalService, backendError := resolveTerminal(builder.BackendFactory)
	if backendError != nil {
		return backendError
	}

	shellKind := command.Flags().Lookup(shellFlagNameConstant).Value.String()
	currentDirectory, directoryError := terminalService.CurrentDirectory(command.Context(), "", shellKind)
	if directoryError != nil {
		return fmt.Errorf(currentDirectoryErrorTemplateConstant, directoryError)
	}

	resolveLogger(builder.LoggerProvider).Debug(currentDirectoryResolvedMessageConstant, zap.String(logFieldDirectoryConstant, currentDirectory))

	_, writeError := fmt.Fprintln(utils.NewFlushingWriter(command.OutOrStdout()), currentDirectory)
	return writeError
}

// PlatformShellKind returns the shell kind native to the running operating system.
func PlatformShellKind() execshell.ShellKind {
	if runtime.GOOS == windowsOperatingSystemConstant {
		return execshell.ShellKindWindows
	}
	return execshell.ShellKindPOSIX
}

func bindShellFlag(command *cobra.Command, defaultShellKind execshell.ShellKind) {
	if !defaultShellKind.Recognized() {
		defaultShellKind = PlatformShellKind()
	}
	shellKinds := make([]string, 0, len(execshell.RecognizedShellKinds()))
	for _, shellKind := range execshell.RecognizedShellKinds() {
		shellKinds = append(shellKinds, shellKind.String())
	}
	command.Flags().Var(
		flags.NewChoiceValue(defaultShellKind.String(), shellKinds),
		shellFlagNameConstant,
		flags.FormatChoiceUsage(defaultShellKind.String(), shellKinds, shellFlagDescriptionConstant),
	)
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	if logger := provider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func resolveTerminal(factory backend.Factory) (*terminal.Service, error) {
	if factory == nil {
		return nil, errBackendUnavailable
	}
	wiredBackend, backendError := factory(nil)
	if backendError != nil {
		return nil, backendError
	}
	return wiredBackend.Terminal, nil
}
