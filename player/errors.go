package player

import (
	"fmt"
	"strings"
	"time"
)

// BinaryNotFoundError indicates the player executable (or a required companion
// file) is missing. Detected before spawning so the caller gets the exact path.
type BinaryNotFoundError struct {
	Missing []string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("player binary not found: %s", strings.Join(e.Missing, ", "))
}

// SpawnError indicates the operating system refused to create the process.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn player: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StartupTimeoutError indicates the spawned process never signalled readiness
// within the configured bound.
type StartupTimeoutError struct {
	Timeout time.Duration
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("player did not become ready within %s", e.Timeout)
}

// ChannelConnectError indicates the control endpoint stayed unreachable after
// the process reported ready. Playback may continue without telemetry.
type ChannelConnectError struct {
	Endpoint Endpoint
	Err      error
}

func (e *ChannelConnectError) Error() string {
	return fmt.Sprintf("control channel %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *ChannelConnectError) Unwrap() error { return e.Err }

// PlaybackFailureError indicates the player reported an unrecoverable playback
// problem, either through classified stderr output or its exit code.
type PlaybackFailureError struct {
	Message  string
	ExitCode int
}

func (e *PlaybackFailureError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("could not play content (exit code %d)", e.ExitCode)
}
