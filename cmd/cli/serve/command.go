package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/codedeck/internal/api"
	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/metrics"
)

const (
	commandUseConstant                  = "serve"
	commandShortDescriptionConstant     = "Serve editor operations over HTTP"
	commandLongDescriptionConstant      = "serve exposes directory listing, file reading and terminal sessions as JSON endpoints on a loopback address until interrupted."
	addressFlagNameConstant             = "address"
	addressFlagDescriptionConstant      = "Listen address (host:port). Overrides server.address."
	metricsFlagNameConstant             = "metrics"
	metricsFlagDescriptionConstant      = "Expose Prometheus metrics on /metrics. Overrides server.metrics_enabled."
	defaultShutdownTimeoutConstant      = 5 * time.Second
	serverListeningMessageConstant      = "server listening"
	serverStoppingMessageConstant       = "server stopping"
	serverStoppedMessageConstant        = "server stopped"
	logFieldAddressConstant             = "address"
	logFieldMetricsEnabledConstant      = "metrics_enabled"
	backendUnavailableMessageConstant   = "serve backend not configured"
	serverCreationErrorTemplateConstant = "unable to create server: %w"
	serverRunErrorTemplateConstant      = "server terminated: %w"
	serverShutdownErrorTemplateConstant = "server shutdown failed: %w"
)

var errBackendUnavailable = errors.New(backendUnavailableMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the server configuration resolved by the application.
type ConfigurationProvider func() backend.ServerConfiguration

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	BackendFactory        backend.Factory
	ConfigurationProvider ConfigurationProvider
	ShutdownTimeout       time.Duration
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	defaultConfiguration := backend.DefaultServerConfiguration()
	command.Flags().String(addressFlagNameConstant, defaultConfiguration.Address, addressFlagDescriptionConstant)
	command.Flags().Bool(metricsFlagNameConstant, defaultConfiguration.MetricsEnabled, metricsFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	if builder.BackendFactory == nil {
		return errBackendUnavailable
	}
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration(command)

	var metricsRecorder *metrics.Recorder
	if configuration.MetricsEnabled {
		metricsRecorder = metrics.NewRecorder()
	}

	wiredBackend, backendError := builder.BackendFactory(metricsRecorder)
	if backendError != nil {
		return backendError
	}

	server, serverError := api.NewServer(api.ServerDependencies{
		FileBrowser:     wiredBackend.FileBrowser,
		Terminal:        wiredBackend.Terminal,
		Logger:          logger,
		MetricsRecorder: metricsRecorder,
	})
	if serverError != nil {
		return fmt.Errorf(serverCreationErrorTemplateConstant, serverError)
	}

	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	signalContext, stopSignals := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	serverGroup, groupContext := errgroup.WithContext(signalContext)
	serverGroup.Go(func() error {
		logger.Info(
			serverListeningMessageConstant,
			zap.String(logFieldAddressConstant, configuration.Address),
			zap.Bool(logFieldMetricsEnabledConstant, configuration.MetricsEnabled),
		)
		startError := server.Start(configuration.Address)
		if startError == nil || errors.Is(startError, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf(serverRunErrorTemplateConstant, startError)
	})
	serverGroup.Go(func() error {
		<-groupContext.Done()
		logger.Info(serverStoppingMessageConstant, zap.String(logFieldAddressConstant, configuration.Address))

		shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), builder.resolveShutdownTimeout())
		defer cancelShutdown()
		if shutdownError := server.Shutdown(shutdownContext); shutdownError != nil {
			return fmt.Errorf(serverShutdownErrorTemplateConstant, shutdownError)
		}
		return nil
	})

	waitError := serverGroup.Wait()
	logger.Info(serverStoppedMessageConstant, zap.String(logFieldAddressConstant, configuration.Address))
	return waitError
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) backend.ServerConfiguration {
	configuration := backend.DefaultServerConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if command.Flags().Changed(addressFlagNameConstant) {
		addressValue, _ := command.Flags().GetString(addressFlagNameConstant)
		configuration.Address = strings.TrimSpace(addressValue)
	}
	if command.Flags().Changed(metricsFlagNameConstant) {
		metricsValue, _ := command.Flags().GetBool(metricsFlagNameConstant)
		configuration.MetricsEnabled = metricsValue
	}

	return configuration.Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveShutdownTimeout() time.Duration {
	if builder.ShutdownTimeout <= 0 {
		return defaultShutdownTimeoutConstant
	}
	return builder.ShutdownTimeout
}
