package execshell

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageErrorOutput
	messageStageExecutionFailure
)

const (
	startTemplateConstant                  = "Running %s"
	successTemplateConstant                = "Completed %s"
	errorOutputTemplateConstant            = "%s reported errors%s"
	executionFailureTemplateConstant       = "%s could not run: %s"
	commandLabelTemplateConstant           = "%s `%s`%s%s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	sessionSuffixTemplateConstant          = " [%s]"
	standardErrorSuffixTemplateConstant    = ": %s"
	unknownFailureMessageConstant          = "unknown error"
	emptyStringConstant                    = ""
	maximumScriptLabelLengthConstant       = 80
	truncatedScriptSuffixConstant          = "..."
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildCompletedMessage formats the message for a command that ran to completion. Commands
// that wrote to their error stream are described as having reported errors.
func (formatter CommandMessageFormatter) BuildCompletedMessage(command ShellCommand, result ExecutionResult) string {
	if len(result.StandardError) > 0 {
		return formatter.buildMessage(command, result, nil, messageStageErrorOutput)
	}
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildExecutionFailureMessage formats the message describing a process that could not be run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplateConstant, commandLabel)
	case messageStageErrorOutput:
		return fmt.Sprintf(errorOutputTemplateConstant, commandLabel, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(
		commandLabelTemplateConstant,
		command.Kind,
		formatter.truncateScript(command.Script),
		formatter.formatWorkingDirectorySuffix(command),
		formatter.formatSessionSuffix(command),
	)
}

func (formatter CommandMessageFormatter) truncateScript(script string) string {
	trimmedScript := strings.TrimSpace(script)
	if utf8.RuneCountInString(trimmedScript) <= maximumScriptLabelLengthConstant {
		return trimmedScript
	}
	cutOffset := 0
	for runeIndex := 0; runeIndex < maximumScriptLabelLengthConstant; runeIndex++ {
		_, runeWidth := utf8.DecodeRuneInString(trimmedScript[cutOffset:])
		cutOffset += runeWidth
	}
	return trimmedScript[:cutOffset] + truncatedScriptSuffixConstant
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatSessionSuffix(command ShellCommand) string {
	trimmedSessionID := strings.TrimSpace(command.SessionID)
	if len(trimmedSessionID) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(sessionSuffixTemplateConstant, trimmedSessionID)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
