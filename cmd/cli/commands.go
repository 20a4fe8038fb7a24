package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/codedeck/internal/api"
	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/utils"
)

const (
	greetCommandUseConstant                  = "greet [name]"
	greetCommandShortDescriptionConstant     = "Print the editor greeting"
	greetArgumentSeparatorConstant           = " "
	configurationCommandUseConstant          = "config"
	configurationCommandShortDescription     = "Print the effective configuration as YAML"
	configurationCommandLongDescription      = "config prints the configuration after merging embedded defaults, the configuration file, environment variables and command-line overrides."
	configurationFileCommentTemplateConstant = "# configuration file: %s\n"
	configurationFileAbsentConstant          = "none"
	configurationIndentConstant              = 2
	configurationRenderErrorTemplateConstant = "unable to render configuration: %w"
)

type terminalConfigurationView struct {
	POSIXShell         string `yaml:"posix_shell"`
	WindowsShell       string `yaml:"windows_shell"`
	UnknownShellPolicy string `yaml:"unknown_shell_policy"`
	OutputEncoding     string `yaml:"output_encoding"`
	CommandTimeout     string `yaml:"command_timeout"`
}

type configurationView struct {
	Common   ApplicationCommonConfiguration `yaml:"common"`
	Server   backend.ServerConfiguration    `yaml:"server"`
	Terminal terminalConfigurationView      `yaml:"terminal"`
}

func newConfigurationView(configuration ApplicationConfiguration) configurationView {
	return configurationView{
		Common: configuration.Common,
		Server: configuration.Server,
		Terminal: terminalConfigurationView{
			POSIXShell:         configuration.Terminal.POSIXShell,
			WindowsShell:       configuration.Terminal.WindowsShell,
			UnknownShellPolicy: string(configuration.Terminal.UnknownShellPolicy),
			OutputEncoding:     configuration.Terminal.OutputEncoding,
			CommandTimeout:     configuration.Terminal.CommandTimeout.String(),
		},
	}
}

func (application *Application) buildGreetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   greetCommandUseConstant,
		Short: greetCommandShortDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			name := strings.TrimSpace(strings.Join(arguments, greetArgumentSeparatorConstant))
			_, writeError := fmt.Fprintln(command.OutOrStdout(), api.FormatGreeting(name))
			return writeError
		},
	}
}

func (application *Application) buildConfigurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   configurationCommandUseConstant,
		Short: configurationCommandShortDescription,
		Long:  configurationCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			outputWriter := utils.NewFlushingWriter(command.OutOrStdout())

			configurationFile := configurationFileAbsentConstant
			if configurationFilePath, available := application.commandContextAccessor.ConfigurationFilePath(command.Context()); available && len(configurationFilePath) > 0 {
				configurationFile = configurationFilePath
			}
			if _, writeError := fmt.Fprintf(outputWriter, configurationFileCommentTemplateConstant, configurationFile); writeError != nil {
				return writeError
			}

			encoder := yaml.NewEncoder(outputWriter)
			encoder.SetIndent(configurationIndentConstant)
			if encodeError := encoder.Encode(newConfigurationView(application.configuration)); encodeError != nil {
				return fmt.Errorf(configurationRenderErrorTemplateConstant, encodeError)
			}
			return encoder.Close()
		},
	}
}
