// Package shell provides the exec and pwd commands that run terminal commands from the command line.
package shell
