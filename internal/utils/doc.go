// Package utils exposes reusable helpers consumed by the codedeck commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI, along
// with the context accessor and flushing writer the commands share.
package utils
