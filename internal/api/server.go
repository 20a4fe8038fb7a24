package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/metrics"
	"github.com/temirov/codedeck/internal/terminal"
)

const (
	fileBrowserNotConfiguredMessageConstant = "api file browser not configured"
	terminalNotConfiguredMessageConstant    = "api terminal service not configured"
	requestLoggedMessageConstant            = "request handled"
	requestFailedMessageConstant            = "request failed"
	healthRoutePathConstant                 = "/health"
	metricsRoutePathConstant                = "/metrics"
	greetRoutePathConstant                  = "/api/greet"
	listDirectoryRoutePathConstant          = "/api/directory/list"
	listSubdirectoryRoutePathConstant       = "/api/directory/children"
	readFileRoutePathConstant               = "/api/file/read"
	openSessionRoutePathConstant            = "/api/sessions"
	executeRoutePathConstant                = "/api/sessions/execute"
	currentDirectoryRoutePathConstant       = "/api/sessions/cwd"
	logFieldMethodConstant                  = "method"
	logFieldURIConstant                     = "uri"
	logFieldStatusConstant                  = "status"
	logFieldLatencyConstant                 = "latency"
	logFieldRequestIdentifierConstant       = "request_id"
)

// ErrFileBrowserNotConfigured indicates the server was created without a file browser.
var ErrFileBrowserNotConfigured = errors.New(fileBrowserNotConfiguredMessageConstant)

// ErrTerminalNotConfigured indicates the server was created without a terminal service.
var ErrTerminalNotConfigured = errors.New(terminalNotConfiguredMessageConstant)

// FileBrowser lists directories and reads files.
type FileBrowser interface {
	ListDirectory(directoryPath string) ([]filebrowser.FileEntry, error)
	ListSubdirectory(directoryPath string) ([]filebrowser.FileEntry, error)
	ReadFile(filePath string) (string, error)
}

// TerminalService opens sessions and runs commands.
type TerminalService interface {
	OpenSession(shellKind string, workingDirectory string) (terminal.Session, error)
	Execute(executionContext context.Context, options terminal.ExecuteOptions) (terminal.CommandResult, error)
	CurrentDirectory(executionContext context.Context, sessionID string, shellKind string) (string, error)
}

// ServerDependencies enumerates collaborators required by the server. MetricsRecorder is
// optional; without it the /metrics route is not registered.
type ServerDependencies struct {
	FileBrowser     FileBrowser
	Terminal        TerminalService
	Logger          *zap.Logger
	MetricsRecorder *metrics.Recorder
}

// Server routes editor requests to the file browser and terminal services.
type Server struct {
	echo        *echo.Echo
	fileBrowser FileBrowser
	terminal    TerminalService
	logger      *zap.Logger
}

// NewServer creates a server with all routes and middleware configured.
func NewServer(dependencies ServerDependencies) (*Server, error) {
	if dependencies.FileBrowser == nil {
		return nil, ErrFileBrowserNotConfigured
	}
	if dependencies.Terminal == nil {
		return nil, ErrTerminalNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	echoInstance := echo.New()
	echoInstance.HideBanner = true
	echoInstance.HidePort = true

	server := &Server{
		echo:        echoInstance,
		fileBrowser: dependencies.FileBrowser,
		terminal:    dependencies.Terminal,
		logger:      logger,
	}

	echoInstance.Use(middleware.Recover())
	echoInstance.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	echoInstance.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: server.logRequest,
	}))
	if dependencies.MetricsRecorder != nil {
		echoInstance.Use(dependencies.MetricsRecorder.EchoMiddleware())
		echoInstance.GET(metricsRoutePathConstant, echo.WrapHandler(dependencies.MetricsRecorder.Handler()))
	}

	echoInstance.GET(healthRoutePathConstant, server.health)
	echoInstance.POST(greetRoutePathConstant, server.greet)
	echoInstance.POST(listDirectoryRoutePathConstant, server.listDirectory)
	echoInstance.POST(listSubdirectoryRoutePathConstant, server.listSubdirectory)
	echoInstance.POST(readFileRoutePathConstant, server.readFile)
	echoInstance.POST(openSessionRoutePathConstant, server.openSession)
	echoInstance.POST(executeRoutePathConstant, server.execute)
	echoInstance.POST(currentDirectoryRoutePathConstant, server.currentDirectory)

	return server, nil
}

// Handler exposes the routed HTTP handler.
func (server *Server) Handler() http.Handler {
	return server.echo
}

// Start listens on the address and serves until Shutdown. It returns http.ErrServerClosed after
// a graceful shutdown.
func (server *Server) Start(address string) error {
	return server.echo.Start(address)
}

// Shutdown stops accepting requests and waits for in-flight requests to finish.
func (server *Server) Shutdown(shutdownContext context.Context) error {
	return server.echo.Shutdown(shutdownContext)
}

func (server *Server) logRequest(_ echo.Context, values middleware.RequestLoggerValues) error {
	fields := []zap.Field{
		zap.String(logFieldMethodConstant, values.Method),
		zap.String(logFieldURIConstant, values.URI),
		zap.Int(logFieldStatusConstant, values.Status),
		zap.Duration(logFieldLatencyConstant, values.Latency),
		zap.String(logFieldRequestIdentifierConstant, values.RequestID),
	}
	if values.Error != nil {
		server.logger.Warn(requestFailedMessageConstant, append(fields, zap.Error(values.Error))...)
		return nil
	}
	if values.Status >= http.StatusInternalServerError {
		server.logger.Warn(requestFailedMessageConstant, fields...)
		return nil
	}
	server.logger.Debug(requestLoggedMessageConstant, fields...)
	return nil
}
