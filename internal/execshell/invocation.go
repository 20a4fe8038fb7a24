package execshell

import (
	"fmt"
	"strings"
)

const (
	defaultPOSIXShellExecutableConstant    = "/bin/sh"
	defaultWindowsShellExecutableConstant  = "cmd"
	posixCommandFlagConstant               = "-c"
	windowsCommandFlagConstant             = "/C"
	posixWorkingDirectoryCommandConstant   = "pwd"
	windowsWorkingDirectoryCommandConstant = "cd"
)

// ShellInvocationTable maps each recognized ShellKind onto an executable and its command flag.
type ShellInvocationTable struct {
	POSIXExecutable   string
	WindowsExecutable string
}

// DefaultShellInvocationTable returns the stock shells: /bin/sh for POSIX and cmd for Windows.
func DefaultShellInvocationTable() ShellInvocationTable {
	return ShellInvocationTable{
		POSIXExecutable:   defaultPOSIXShellExecutableConstant,
		WindowsExecutable: defaultWindowsShellExecutableConstant,
	}
}

// Build produces the process invocation that runs the command's script as a single argument.
func (table ShellInvocationTable) Build(command ShellCommand) (ProcessInvocation, error) {
	switch command.Kind {
	case ShellKindPOSIX:
		return ProcessInvocation{
			Executable: table.executableOrDefault(table.POSIXExecutable, defaultPOSIXShellExecutableConstant),
			Arguments:  []string{posixCommandFlagConstant, command.Script},
			Details:    command.Details,
		}, nil
	case ShellKindWindows:
		return ProcessInvocation{
			Executable: table.executableOrDefault(table.WindowsExecutable, defaultWindowsShellExecutableConstant),
			Arguments:  []string{windowsCommandFlagConstant, command.Script},
			Details:    command.Details,
		}, nil
	default:
		return ProcessInvocation{}, fmt.Errorf(unsupportedShellKindTemplateConstant, ErrUnsupportedShellKind, string(command.Kind))
	}
}

// WorkingDirectoryScript returns the built-in that prints the working directory for the kind.
func WorkingDirectoryScript(kind ShellKind) (string, error) {
	switch kind {
	case ShellKindPOSIX:
		return posixWorkingDirectoryCommandConstant, nil
	case ShellKindWindows:
		return windowsWorkingDirectoryCommandConstant, nil
	default:
		return "", fmt.Errorf(unsupportedShellKindTemplateConstant, ErrUnsupportedShellKind, string(kind))
	}
}

func (table ShellInvocationTable) executableOrDefault(configuredExecutable string, defaultExecutable string) string {
	trimmedExecutable := strings.TrimSpace(configuredExecutable)
	if len(trimmedExecutable) == 0 {
		return defaultExecutable
	}
	return trimmedExecutable
}
