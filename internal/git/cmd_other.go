//go:build !unix

package git

import "os/exec"

// BoundToContext caps how long Wait blocks on output pipes after cmd's
// context is done
func BoundToContext(cmd *exec.Cmd) {
	cmd.WaitDelay = WaitDelay
}
