// Package geometry translates high-frequency host window events into
// low-frequency player commands: resize bursts are debounced down to a single
// geometry update, while minimize/restore transitions are forwarded 1:1.
package geometry

import (
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/player"
	"github.com/teamg-play/mpvhost/util"
)

// Target is the playback surface the sync pushes window state to.
type Target interface {
	UpdateGeometry(b player.Bounds)
	SetMinimized(minimized bool)
}

// Sync debounces resize events against a fixed quiescence period: a burst of
// events collapses to exactly one geometry update carrying the final bounds.
type Sync struct {
	target   Target
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	latest player.Bounds
}

// New creates a sync with an explicit debounce period.
func New(target Target, debounce time.Duration) *Sync {
	return &Sync{target: target, debounce: debounce}
}

// FromConfig creates a sync with the configured debounce period. A negative
// configured value is treated as zero, meaning no debouncing.
func FromConfig(target Target) *Sync {
	return New(target, time.Duration(util.Max(0, viper.GetInt(key.GeometryDebounce)))*time.Millisecond)
}

// Resize records new window bounds and schedules the debounced update. Each
// call within the quiescence period replaces the pending bounds and restarts
// the timer.
func (s *Sync) Resize(b player.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = b
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// Minimize forwards a host minimize event immediately. State transitions are
// never debounced.
func (s *Sync) Minimize() {
	s.target.SetMinimized(true)
}

// Restore forwards a host restore event immediately. Bounds that changed
// while the window was minimized could not render, so any pending update is
// flushed first and the window reappears at its latest geometry.
func (s *Sync) Restore() {
	s.Flush()
	s.target.SetMinimized(false)
}

// Flush pushes any pending bounds now, cancelling the timer. Used when the
// host window is about to close or hand off its surface.
func (s *Sync) Flush() {
	s.mu.Lock()
	pending := s.timer != nil
	if pending {
		s.timer.Stop()
		s.timer = nil
	}
	b := s.latest
	s.mu.Unlock()

	if pending {
		s.target.UpdateGeometry(b)
	}
}

// Stop cancels any pending update without delivering it.
func (s *Sync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Sync) fire() {
	s.mu.Lock()
	s.timer = nil
	b := s.latest
	s.mu.Unlock()

	s.target.UpdateGeometry(b)
}
