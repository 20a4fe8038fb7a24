package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/terminal"
)

const (
	commandsTotalNameConstant       = "codedeck_commands_total"
	commandsTotalHelpConstant       = "Total shell commands by shell kind and outcome"
	commandDurationNameConstant     = "codedeck_command_duration_seconds"
	commandDurationHelpConstant     = "Time to run a shell command to completion"
	sessionsOpenedNameConstant      = "codedeck_sessions_opened_total"
	sessionsOpenedHelpConstant      = "Total terminal sessions opened"
	directoryListingsNameConstant   = "codedeck_directory_listings_total"
	directoryListingsHelpConstant   = "Total file browser operations by operation and outcome"
	httpRequestsNameConstant        = "codedeck_http_requests_total"
	httpRequestsHelpConstant        = "Total HTTP requests"
	labelShellKindConstant          = "shell_kind"
	labelOutcomeConstant            = "outcome"
	labelOperationConstant          = "operation"
	labelMethodConstant             = "method"
	labelPathConstant               = "path"
	labelStatusConstant             = "status"
	outcomeOutputConstant           = "output"
	outcomeErrorOutputConstant      = "error_output"
	outcomeExecutionFailedConstant  = "execution_failed"
	outcomeSuccessConstant          = "success"
	outcomePathNotFoundConstant     = "path_not_found"
	outcomeNotADirectoryConstant    = "not_a_directory"
	outcomeInputOutputErrorConstant = "io_error"
	unmatchedRoutePathConstant      = "unmatched"
)

var commandDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 60.0}

// Recorder collects codedeck metrics. It observes shell command lifecycles, session openings
// and file browser operations.
type Recorder struct {
	registry          *prometheus.Registry
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	sessionsOpened    prometheus.Counter
	directoryListings *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec
}

// NewRecorder registers the codedeck collectors, together with the Go runtime and process
// collectors, on a fresh registry.
func NewRecorder() *Recorder {
	recorder := &Recorder{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: commandsTotalNameConstant, Help: commandsTotalHelpConstant},
			[]string{labelShellKindConstant, labelOutcomeConstant},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: commandDurationNameConstant, Help: commandDurationHelpConstant, Buckets: commandDurationBuckets},
			[]string{labelShellKindConstant},
		),
		sessionsOpened: prometheus.NewCounter(
			prometheus.CounterOpts{Name: sessionsOpenedNameConstant, Help: sessionsOpenedHelpConstant},
		),
		directoryListings: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: directoryListingsNameConstant, Help: directoryListingsHelpConstant},
			[]string{labelOperationConstant, labelOutcomeConstant},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: httpRequestsNameConstant, Help: httpRequestsHelpConstant},
			[]string{labelMethodConstant, labelPathConstant, labelStatusConstant},
		),
	}

	recorder.registry.MustRegister(
		recorder.commandsTotal,
		recorder.commandDuration,
		recorder.sessionsOpened,
		recorder.directoryListings,
		recorder.httpRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return recorder
}

// Registry exposes the registry backing the recorder.
func (recorder *Recorder) Registry() *prometheus.Registry {
	return recorder.registry
}

// Handler serves the Prometheus exposition of the recorder's registry.
func (recorder *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(recorder.registry, promhttp.HandlerOpts{})
}

// CommandStarted implements execshell.CommandEventObserver.
func (recorder *Recorder) CommandStarted(execshell.ShellCommand) {}

// CommandCompleted counts a finished command and records its duration.
func (recorder *Recorder) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	outcome := outcomeOutputConstant
	if len(result.StandardError) > 0 {
		outcome = outcomeErrorOutputConstant
	}
	recorder.commandsTotal.WithLabelValues(command.Kind.String(), outcome).Inc()
	recorder.commandDuration.WithLabelValues(command.Kind.String()).Observe(result.Duration.Seconds())
}

// CommandExecutionFailed counts a command whose shell could not be run.
func (recorder *Recorder) CommandExecutionFailed(command execshell.ShellCommand, _ error) {
	recorder.commandsTotal.WithLabelValues(command.Kind.String(), outcomeExecutionFailedConstant).Inc()
}

// SessionOpened implements terminal.SessionObserver.
func (recorder *Recorder) SessionOpened(terminal.Session) {
	recorder.sessionsOpened.Inc()
}

// OperationCompleted implements filebrowser.OperationObserver.
func (recorder *Recorder) OperationCompleted(operation string, failure error) {
	recorder.directoryListings.WithLabelValues(operation, classifyFileBrowserOutcome(failure)).Inc()
}

// EchoMiddleware counts every request by method, route pattern and status.
func (recorder *Recorder) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(requestContext echo.Context) error {
			handlerError := next(requestContext)

			status := requestContext.Response().Status
			var httpError *echo.HTTPError
			if handlerError != nil && errors.As(handlerError, &httpError) {
				status = httpError.Code
			}
			routePath := requestContext.Path()
			if len(routePath) == 0 {
				routePath = unmatchedRoutePathConstant
			}

			recorder.httpRequestsTotal.WithLabelValues(requestContext.Request().Method, routePath, strconv.Itoa(status)).Inc()
			return handlerError
		}
	}
}

func classifyFileBrowserOutcome(failure error) string {
	switch {
	case failure == nil:
		return outcomeSuccessConstant
	case errors.Is(failure, filebrowser.ErrPathNotFound):
		return outcomePathNotFoundConstant
	case errors.Is(failure, filebrowser.ErrNotADirectory):
		return outcomeNotADirectoryConstant
	default:
		return outcomeInputOutputErrorConstant
	}
}
