package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/temirov/codedeck/internal/textcodec"
)

const (
	processWaitDelayConstant = time.Second
)

// OSCommandRunner executes process invocations using the operating system facilities.
type OSCommandRunner struct {
	outputDecoder *textcodec.Decoder
}

// NewOSCommandRunner constructs a runner backed by os/exec. A nil decoder decodes output as UTF-8.
func NewOSCommandRunner(outputDecoder *textcodec.Decoder) *OSCommandRunner {
	return &OSCommandRunner{outputDecoder: outputDecoder}
}

// Run starts the invocation, waits for it to exit and captures both output streams.
func (runner *OSCommandRunner) Run(executionContext context.Context, invocation ProcessInvocation) (ExecutionResult, error) {
	commandArguments := append([]string{}, invocation.Arguments...)
	executable := exec.CommandContext(executionContext, invocation.Executable, commandArguments...)

	if len(invocation.Details.WorkingDirectory) > 0 {
		executable.Dir = invocation.Details.WorkingDirectory
	}

	// Cancellation kills the whole process tree; WaitDelay stops orphaned pipe holders from
	// blocking Wait.
	configureProcessTree(executable)
	executable.WaitDelay = processWaitDelayConstant

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) && executionContext.Err() == nil {
			return ExecutionResult{
				StandardOutput: runner.outputDecoder.Decode(standardOutputBuffer.Bytes()),
				StandardError:  runner.outputDecoder.Decode(standardErrorBuffer.Bytes()),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		if contextError := executionContext.Err(); contextError != nil {
			return ExecutionResult{}, fmt.Errorf("%w: %w", contextError, runError)
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: runner.outputDecoder.Decode(standardOutputBuffer.Bytes()),
		StandardError:  runner.outputDecoder.Decode(standardErrorBuffer.Bytes()),
		ExitCode:       0,
	}, nil
}
