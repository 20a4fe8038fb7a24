// Package terminal runs editor terminal commands.
//
// Sessions are advisory correlation tokens: opening one mints a process-unique
// identifier and resolves a working directory, but no shell process is kept
// alive and later calls are not checked against previously issued sessions.
// Every command is a fresh run-to-completion spawn whose error stream, when
// non-empty, replaces the success stream in the returned CommandResult.
package terminal
