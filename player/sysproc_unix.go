//go:build !windows

package player

import (
	"errors"
	"os/exec"
	"syscall"

	"github.com/samber/mo"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate asks the whole process group to shut down gracefully.
func terminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}

// forceTerminate kills the entire process group unconditionally.
func forceTerminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}

// exitStatusOf extracts the exit code or terminating signal from a finished process.
func exitStatusOf(cmd *exec.Cmd, waitErr error) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			state = exitErr.ProcessState
		}
	}
	if state == nil {
		return ExitStatus{}
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Signal: mo.Some(ws.Signal().String())}
	}
	return ExitStatus{Code: mo.Some(state.ExitCode())}
}
