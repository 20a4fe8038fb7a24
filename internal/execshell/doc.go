// Package execshell provides structured helpers for running shell command lines.
//
// It maps a logical ShellKind onto an operating system process invocation via
// ShellInvocationTable, runs it through a CommandRunner (OSCommandRunner by
// default), and wraps the lifecycle in ShellExecutor, which logs through zap
// and notifies CommandEventObserver implementations.
package execshell
