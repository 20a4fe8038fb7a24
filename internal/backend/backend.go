package backend

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/execshell"
	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/filesystem"
	"github.com/temirov/codedeck/internal/metrics"
	"github.com/temirov/codedeck/internal/terminal"
	"github.com/temirov/codedeck/internal/textcodec"
)

const (
	outputDecoderErrorTemplateConstant = "unable to configure terminal output encoding: %w"
	executorErrorTemplateConstant      = "unable to construct shell executor: %w"
	listerErrorTemplateConstant        = "unable to construct file browser: %w"
	terminalErrorTemplateConstant      = "unable to construct terminal service: %w"
)

// Options configure backend assembly. Logger, FileSystem, CommandRunner and MetricsRecorder
// are optional.
type Options struct {
	Terminal              TerminalConfiguration
	Logger                *zap.Logger
	FileSystem            filesystem.FileSystem
	CommandRunner         execshell.CommandRunner
	MetricsRecorder       *metrics.Recorder
	CommandEventObservers []execshell.CommandEventObserver
}

// Backend holds the wired services.
type Backend struct {
	FileBrowser *filebrowser.Lister
	Terminal    *terminal.Service
}

// New wires the file browser and terminal services. The metrics recorder, when present,
// observes commands, sessions and file browser operations.
func New(options Options) (*Backend, error) {
	terminalConfiguration := options.Terminal.Sanitize()

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}

	commandRunner := options.CommandRunner
	if commandRunner == nil {
		outputDecoder, decoderError := textcodec.NewDecoder(terminalConfiguration.OutputEncoding)
		if decoderError != nil {
			return nil, fmt.Errorf(outputDecoderErrorTemplateConstant, decoderError)
		}
		commandRunner = execshell.NewOSCommandRunner(outputDecoder)
	}

	executorOptions := []execshell.ShellExecutorOption{
		execshell.WithInvocationTable(execshell.ShellInvocationTable{
			POSIXExecutable:   terminalConfiguration.POSIXShell,
			WindowsExecutable: terminalConfiguration.WindowsShell,
		}),
		execshell.WithCommandTimeout(terminalConfiguration.CommandTimeout),
	}
	for _, observer := range options.CommandEventObservers {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(observer))
	}

	listerDependencies := filebrowser.Dependencies{FileSystem: fileSystem, Logger: logger}
	terminalDependencies := terminal.ServiceDependencies{
		FileSystem:         fileSystem,
		Logger:             logger,
		UnknownShellPolicy: terminalConfiguration.UnknownShellPolicy,
	}
	if options.MetricsRecorder != nil {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(options.MetricsRecorder))
		listerDependencies.OperationObserver = options.MetricsRecorder
		terminalDependencies.SessionObserver = options.MetricsRecorder
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, executorOptions...)
	if executorError != nil {
		return nil, fmt.Errorf(executorErrorTemplateConstant, executorError)
	}
	terminalDependencies.Executor = shellExecutor

	lister, listerError := filebrowser.NewLister(listerDependencies)
	if listerError != nil {
		return nil, fmt.Errorf(listerErrorTemplateConstant, listerError)
	}

	terminalService, terminalError := terminal.NewService(terminalDependencies)
	if terminalError != nil {
		return nil, fmt.Errorf(terminalErrorTemplateConstant, terminalError)
	}

	return &Backend{FileBrowser: lister, Terminal: terminalService}, nil
}

// Factory builds a backend, optionally instrumented by a metrics recorder.
type Factory func(metricsRecorder *metrics.Recorder) (*Backend, error)
