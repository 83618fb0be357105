package player

import "os"

// Endpoint is the per-process control channel address the player listens on:
// a unix socket path on POSIX, a named pipe on Windows. Deriving it from the
// host pid guarantees concurrently running host instances never collide.
type Endpoint string

// HostEndpoint returns the control endpoint for this host process.
func HostEndpoint() Endpoint {
	return endpointForPID(os.Getpid())
}

func (e Endpoint) String() string { return string(e) }
