//go:build windows

package player

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/teamg-play/mpvhost/constant"
)

func endpointForPID(pid int) Endpoint {
	return Endpoint(fmt.Sprintf(`\\.\pipe\%s-%d`, constant.Mpvhost, pid))
}

// Cleanup is a no-op on Windows; named pipes vanish with their owning process.
func (e Endpoint) Cleanup() {}

func dialEndpoint(e Endpoint, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(string(e), &timeout)
}
