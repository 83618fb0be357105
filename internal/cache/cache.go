// Package cache provides localized filesystem housekeeping for transient
// controller artifacts: expired cache entries and control endpoints left
// behind by crashed host instances.
package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teamg-play/mpvhost/constant"
	"github.com/teamg-play/mpvhost/where"
)

const TTL = 7 * 24 * time.Hour

// socketGracePeriod is how long a control socket may sit untouched before it
// is considered an orphan. Long enough that a live session is never hit.
const socketGracePeriod = 24 * time.Hour

// CollectGarbage prunes expired cache entries and stale per-process control
// sockets. Intended to run in the background at startup.
func CollectGarbage() {
	pruneOlderThan(where.Cache(), TTL, func(string) bool { return true })
	pruneOlderThan(os.TempDir(), socketGracePeriod, isOrphanSocket)
}

// isOrphanSocket matches the per-process control endpoint naming scheme.
func isOrphanSocket(name string) bool {
	return strings.HasPrefix(name, constant.Mpvhost+"-") && strings.HasSuffix(name, ".sock")
}

func pruneOlderThan(dir string, ttl time.Duration, match func(name string) bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		if info, err := entry.Info(); err == nil && time.Since(info.ModTime()) > ttl {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
