package player

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/mo"
	"github.com/teamg-play/mpvhost/log"
)

// State is the lifecycle phase of a Handle. There is no transition out of
// StateTerminated; a new playback always constructs a fresh handle.
type State int32

const (
	StateIdle State = iota
	StateSpawning
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ExitStatus carries the subprocess termination outcome: an exit code when the
// process ended on its own, or the signal name when it was killed.
type ExitStatus struct {
	Code   mo.Option[int]
	Signal mo.Option[string]
}

// Handle owns exactly one external subprocess. The exit notification channel
// is closed exactly once, after the status fields are populated.
type Handle struct {
	cmd       *exec.Cmd
	pid       int
	spawnedAt time.Time
	stderr    io.Reader

	state  atomic.Int32
	exited chan struct{}

	statusMu sync.Mutex
	status   ExitStatus
}

// PID returns the operating system process identifier.
func (h *Handle) PID() int { return h.pid }

// SpawnedAt returns the time the subprocess was created.
func (h *Handle) SpawnedAt() time.Time { return h.spawnedAt }

// State returns the current lifecycle phase.
func (h *Handle) State() State { return State(h.state.Load()) }

// Exited returns a channel closed when the subprocess has terminated.
func (h *Handle) Exited() <-chan struct{} { return h.exited }

// Stderr exposes the subprocess diagnostic stream for classification.
func (h *Handle) Stderr() io.Reader { return h.stderr }

// ExitStatus returns the termination outcome. Only meaningful once Exited is closed.
func (h *Handle) ExitStatus() ExitStatus {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	return h.status
}

func (h *Handle) setState(s State) { h.state.Store(int32(s)) }

// Supervisor spawns, monitors and terminates external player subprocesses.
type Supervisor struct{}

// NewSupervisor creates a process supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// CheckBinary verifies the executable exists before any spawn attempt, so the
// caller gets an actionable error naming the missing file instead of an
// opaque spawn failure. Returns the resolved path.
func (s *Supervisor) CheckBinary(binary string) (string, error) {
	if strings.ContainsRune(binary, os.PathSeparator) {
		if _, err := os.Stat(binary); err != nil {
			return "", &BinaryNotFoundError{Missing: []string{binary}}
		}
		return binary, nil
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return "", &BinaryNotFoundError{Missing: []string{binary}}
	}
	return resolved, nil
}

// Start spawns the player with the given argument list. Spawn failures are
// reported synchronously; everything after a successful spawn is reported
// through the handle's exit notification.
func (s *Supervisor) Start(binary string, args []string, workingDir string, extraEnv []string) (*Handle, error) {
	resolved, err := s.CheckBinary(binary)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(resolved, args...)
	cmd.Dir = workingDir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	// Detach from the host process group so a host crash never takes the
	// terminal down with it, and so tree-kill semantics are well defined.
	cmd.SysProcAttr = sysProcAttr()

	cmd.Stdin = nil
	cmd.Stdout = nil
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Err: err}
	}

	h := &Handle{
		cmd:    cmd,
		stderr: stderr,
		exited: make(chan struct{}),
	}
	h.setState(StateSpawning)

	if err := cmd.Start(); err != nil {
		h.setState(StateTerminated)
		return nil, &SpawnError{Err: err}
	}

	h.pid = cmd.Process.Pid
	h.spawnedAt = time.Now()
	h.setState(StateRunning)

	// Reap the process and deliver the exit notification exactly once.
	go func() {
		waitErr := cmd.Wait()

		h.statusMu.Lock()
		h.status = exitStatusOf(cmd, waitErr)
		h.statusMu.Unlock()

		h.setState(StateTerminated)
		close(h.exited)
	}()

	log.Infof("player spawned: pid=%d binary=%s", h.pid, resolved)
	return h, nil
}

// Stop terminates the subprocess within the given bound. It first requests
// graceful termination, races a timer against the exit notification, and
// escalates to a hard kill if the timer fires first. It never hangs: the
// bound is a hard contract.
func (s *Supervisor) Stop(h *Handle, timeout time.Duration) error {
	if h == nil {
		return nil
	}

	select {
	case <-h.exited:
		return nil
	default:
	}

	h.setState(StateStopping)

	if err := terminate(h.cmd); err != nil {
		log.Warnf("graceful terminate pid=%d: %v", h.pid, err)
	}

	select {
	case <-h.exited:
	case <-time.After(timeout):
		log.Warnf("stop timeout for pid=%d, forcing kill", h.pid)
		if err := forceTerminate(h.cmd); err != nil {
			log.Errorf("force kill pid=%d: %v", h.pid, err)
		}
		// Resolve regardless of whether the kill landed. The reaper
		// goroutine still owns the exit notification.
	}

	return nil
}
