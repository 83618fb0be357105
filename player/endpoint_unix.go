//go:build !windows

package player

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/teamg-play/mpvhost/constant"
)

func endpointForPID(pid int) Endpoint {
	return Endpoint(filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d.sock", constant.Mpvhost, pid)))
}

// Cleanup removes a stale socket file left behind by a previous process.
// The player refuses to listen on a path that already exists.
func (e Endpoint) Cleanup() {
	_ = os.Remove(string(e))
}

func dialEndpoint(e Endpoint, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", string(e), timeout)
}
