package backend

import (
	"strings"
	"time"

	"github.com/temirov/codedeck/internal/execshell"
)

const (
	defaultServerAddressConstant = "127.0.0.1:7878"
)

// ServerConfiguration captures HTTP listener settings.
type ServerConfiguration struct {
	Address        string `mapstructure:"address" yaml:"address"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// TerminalConfiguration captures how commands are run.
type TerminalConfiguration struct {
	POSIXShell         string                       `mapstructure:"posix_shell" yaml:"posix_shell"`
	WindowsShell       string                       `mapstructure:"windows_shell" yaml:"windows_shell"`
	UnknownShellPolicy execshell.UnknownShellPolicy `mapstructure:"unknown_shell_policy" yaml:"unknown_shell_policy"`
	OutputEncoding     string                       `mapstructure:"output_encoding" yaml:"output_encoding"`
	CommandTimeout     time.Duration                `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// DefaultServerConfiguration provides the loopback listener with metrics enabled.
func DefaultServerConfiguration() ServerConfiguration {
	return ServerConfiguration{
		Address:        defaultServerAddressConstant,
		MetricsEnabled: true,
	}
}

// DefaultTerminalConfiguration provides the stock shells, rejects unknown shell kinds and
// never times out.
func DefaultTerminalConfiguration() TerminalConfiguration {
	invocationTable := execshell.DefaultShellInvocationTable()
	return TerminalConfiguration{
		POSIXShell:         invocationTable.POSIXExecutable,
		WindowsShell:       invocationTable.WindowsExecutable,
		UnknownShellPolicy: execshell.UnknownShellPolicyReject,
	}
}

// DefaultConfigurationValues returns viper defaults for the server and terminal sections.
func DefaultConfigurationValues(serverKey string, terminalKey string) map[string]any {
	serverDefaults := DefaultServerConfiguration()
	terminalDefaults := DefaultTerminalConfiguration()
	return map[string]any{
		serverKey + ".address":                serverDefaults.Address,
		serverKey + ".metrics_enabled":        serverDefaults.MetricsEnabled,
		terminalKey + ".posix_shell":          terminalDefaults.POSIXShell,
		terminalKey + ".windows_shell":        terminalDefaults.WindowsShell,
		terminalKey + ".unknown_shell_policy": string(terminalDefaults.UnknownShellPolicy),
		terminalKey + ".output_encoding":      terminalDefaults.OutputEncoding,
		terminalKey + ".command_timeout":      terminalDefaults.CommandTimeout.String(),
	}
}

// Sanitize trims values and restores defaults for blank fields.
func (configuration ServerConfiguration) Sanitize() ServerConfiguration {
	sanitized := configuration
	sanitized.Address = strings.TrimSpace(configuration.Address)
	if len(sanitized.Address) == 0 {
		sanitized.Address = defaultServerAddressConstant
	}
	return sanitized
}

// Sanitize trims values and restores defaults for blank fields. Negative timeouts disable the bound.
func (configuration TerminalConfiguration) Sanitize() TerminalConfiguration {
	defaults := DefaultTerminalConfiguration()
	sanitized := configuration
	sanitized.POSIXShell = strings.TrimSpace(configuration.POSIXShell)
	if len(sanitized.POSIXShell) == 0 {
		sanitized.POSIXShell = defaults.POSIXShell
	}
	sanitized.WindowsShell = strings.TrimSpace(configuration.WindowsShell)
	if len(sanitized.WindowsShell) == 0 {
		sanitized.WindowsShell = defaults.WindowsShell
	}
	if len(sanitized.UnknownShellPolicy) == 0 {
		sanitized.UnknownShellPolicy = defaults.UnknownShellPolicy
	}
	sanitized.OutputEncoding = strings.TrimSpace(configuration.OutputEncoding)
	if sanitized.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}
	return sanitized
}
