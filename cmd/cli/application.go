package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/codedeck/cmd/cli/browse"
	"github.com/temirov/codedeck/cmd/cli/serve"
	"github.com/temirov/codedeck/cmd/cli/shell"
	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/metrics"
	"github.com/temirov/codedeck/internal/ui"
	"github.com/temirov/codedeck/internal/utils"
	pathutils "github.com/temirov/codedeck/internal/utils/path"
)

const (
	applicationNameConstant                 = "codedeck"
	applicationShortDescriptionConstant     = "Local backend for the codedeck editor"
	applicationLongDescriptionConstant      = "codedeck lists directories, reads files and runs shell commands for the editor UI, either over HTTP (serve) or directly from the command line."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the application version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	developmentVersionConstant              = "(devel)"
	unknownVersionConstant                  = "dev"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	serverConfigurationKeyConstant          = "server"
	terminalConfigurationKeyConstant        = "terminal"
	environmentPrefixConstant               = "CODEDECK"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "codedeck CLI executed"
	rootCommandDebugMessageConstant         = "codedeck CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationDirectoryConstant      = ".codedeck"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common" yaml:"common"`
	Server   backend.ServerConfiguration    `mapstructure:"server" yaml:"server"`
	Terminal backend.TerminalConfiguration  `mapstructure:"terminal" yaml:"terminal"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	versionFlagValue       bool
	commandContextAccessor utils.CommandContextAccessor
	homeExpander           *pathutils.HomeExpander
	versionResolver        func(context.Context) string
	exitFunction           func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		homeExpander:           pathutils.NewHomeExpander(),
		versionResolver:        resolveBuildVersion,
		exitFunction:           os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if application.versionFlagValue {
				application.printVersion(command)
				return nil
			}
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.Flags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	serveBuilder := serve.CommandBuilder{
		LoggerProvider: loggerProvider,
		BackendFactory: application.buildBackend,
		ConfigurationProvider: func() backend.ServerConfiguration {
			return application.configuration.Server
		},
	}
	serveCommand, serveBuildError := serveBuilder.Build()
	if serveBuildError == nil {
		cobraCommand.AddCommand(serveCommand)
	}

	listBuilder := browse.ListCommandBuilder{
		LoggerProvider: loggerProvider,
		BackendFactory: application.buildBackend,
		HomeExpander:   application.homeExpander,
	}
	listCommand, listBuildError := listBuilder.Build()
	if listBuildError == nil {
		cobraCommand.AddCommand(listCommand)
	}

	readBuilder := browse.ReadCommandBuilder{
		LoggerProvider: loggerProvider,
		BackendFactory: application.buildBackend,
		HomeExpander:   application.homeExpander,
	}
	readCommand, readBuildError := readBuilder.Build()
	if readBuildError == nil {
		cobraCommand.AddCommand(readCommand)
	}

	executeBuilder := shell.ExecuteCommandBuilder{
		LoggerProvider:   loggerProvider,
		BackendFactory:   application.buildBackend,
		HomeExpander:     application.homeExpander,
		DefaultShellKind: shell.PlatformShellKind(),
	}
	executeCommand, executeBuildError := executeBuilder.Build()
	if executeBuildError == nil {
		cobraCommand.AddCommand(executeCommand)
	}

	currentDirectoryBuilder := shell.CurrentDirectoryCommandBuilder{
		LoggerProvider:   loggerProvider,
		BackendFactory:   application.buildBackend,
		DefaultShellKind: shell.PlatformShellKind(),
	}
	currentDirectoryCommand, currentDirectoryBuildError := currentDirectoryBuilder.Build()
	if currentDirectoryBuildError == nil {
		cobraCommand.AddCommand(currentDirectoryCommand)
	}

	cobraCommand.AddCommand(application.buildGreetCommand())
	cobraCommand.AddCommand(application.buildConfigurationCommand())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range backend.DefaultConfigurationValues(serverConfigurationKeyConstant, terminalConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration.Server = application.configuration.Server.Sanitize()
	application.configuration.Terminal = application.configuration.Terminal.Sanitize()

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, logLevelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if logLevelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logLevelError)
	}
	logFormat, logFormatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if logFormatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logFormatError)
	}
	application.configuration.Common.LogLevel = string(logLevel)
	application.configuration.Common.LogFormat = string(logFormat)

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// buildBackend wires the services from the loaded terminal configuration. Console logging
// additionally narrates each command's lifecycle.
func (application *Application) buildBackend(metricsRecorder *metrics.Recorder) (*backend.Backend, error) {
	options := backend.Options{
		Terminal:        application.configuration.Terminal,
		Logger:          application.logger,
		MetricsRecorder: metricsRecorder,
	}
	if application.humanReadableLoggingEnabled() {
		options.CommandEventObservers = []execshell.CommandEventObserver{ui.NewConsoleCommandEventLogger(application.logger)}
	}
	return backend.New(options)
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.versionFlagValue {
		return nil
	}
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) printVersion(command *cobra.Command) {
	versionValue := unknownVersionConstant
	if application.versionResolver != nil {
		versionValue = application.versionResolver(command.Context())
	}
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, versionValue)
	if application.exitFunction != nil {
		application.exitFunction(0)
	}
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && len(homeDirectory) > 0 {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryConstant))
	}
	return searchPaths
}

func resolveBuildVersion(context.Context) string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available {
		return unknownVersionConstant
	}
	moduleVersion := strings.TrimSpace(buildInformation.Main.Version)
	if len(moduleVersion) == 0 || moduleVersion == developmentVersionConstant {
		return unknownVersionConstant
	}
	return moduleVersion
}
