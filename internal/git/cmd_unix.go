//go:build unix

package git

import (
	"os/exec"
	"syscall"
)

// BoundToContext makes cancellation of cmd's context kill the whole process
// group, so grandchildren holding the output pipes cannot outlive the
// deadline
func BoundToContext(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = WaitDelay
}
