//go:build !windows

package execshell

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessTree starts the shell in its own process group so cancellation reaches the
// commands it spawned.
func configureProcessTree(executable *exec.Cmd) {
	executable.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	executable.Cancel = func() error {
		if executable.Process == nil {
			return nil
		}
		killError := syscall.Kill(-executable.Process.Pid, syscall.SIGKILL)
		if errors.Is(killError, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return killError
	}
}
