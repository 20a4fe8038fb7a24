//go:build windows

package execshell

import "os/exec"

// configureProcessTree keeps the default cancellation, which kills the shell process; WaitDelay
// bounds the wait for any children still holding its output pipes.
func configureProcessTree(*exec.Cmd) {}
