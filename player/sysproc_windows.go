//go:build windows

package player

import (
	"errors"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/samber/mo"
)

func sysProcAttr() *syscall.SysProcAttr {
	// Windows has no process groups in the POSIX sense; taskkill's tree flag
	// below handles descendant GUI processes instead.
	return nil
}

// terminate asks the process tree to close. Signals do not propagate to GUI
// subprocesses reliably on Windows, so taskkill's recursive flag is the only
// dependable mechanism.
func terminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return exec.Command("taskkill", "/pid", strconv.Itoa(cmd.Process.Pid), "/t").Run()
}

// forceTerminate kills the process tree unconditionally.
func forceTerminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := exec.Command("taskkill", "/pid", strconv.Itoa(cmd.Process.Pid), "/f", "/t").Run(); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

// exitStatusOf extracts the exit code from a finished process. Windows has no
// termination signals to report.
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
	return ExitStatus{Code: mo.Some(state.ExitCode()), Signal: mo.None[string]()}
}
