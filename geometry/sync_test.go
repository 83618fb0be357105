package geometry

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/teamg-play/mpvhost/player"
)

// fakeTarget records pushed window state.
type fakeTarget struct {
	mu        sync.Mutex
	updates   []player.Bounds
	minimized []bool
}

func (f *fakeTarget) UpdateGeometry(b player.Bounds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, b)
}

func (f *fakeTarget) SetMinimized(minimized bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimized = append(f.minimized, minimized)
}

func (f *fakeTarget) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeTarget) lastUpdate() player.Bounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

func TestSyncResize(t *testing.T) {
	Convey("Given a sync with a short debounce period", t, func() {
		target := &fakeTarget{}
		s := New(target, 50*time.Millisecond)

		Convey("A burst of resizes collapses to one update with the final bounds", func() {
			for i := 1; i <= 20; i++ {
				s.Resize(player.Bounds{Width: 100 + i, Height: 100 + i})
			}

			So(target.updateCount(), ShouldEqual, 0)

			time.Sleep(200 * time.Millisecond)
			So(target.updateCount(), ShouldEqual, 1)
			So(target.lastUpdate(), ShouldResemble, player.Bounds{Width: 120, Height: 120})
		})

		Convey("Separate bursts deliver separate updates", func() {
			s.Resize(player.Bounds{Width: 640, Height: 480})
			time.Sleep(200 * time.Millisecond)

			s.Resize(player.Bounds{Width: 800, Height: 600})
			time.Sleep(200 * time.Millisecond)

			So(target.updateCount(), ShouldEqual, 2)
			So(target.lastUpdate(), ShouldResemble, player.Bounds{Width: 800, Height: 600})
		})

		Convey("Stop cancels a pending update", func() {
			s.Resize(player.Bounds{Width: 640, Height: 480})
			s.Stop()

			time.Sleep(200 * time.Millisecond)
			So(target.updateCount(), ShouldEqual, 0)
		})

		Convey("Flush delivers a pending update immediately", func() {
			s.Resize(player.Bounds{Width: 640, Height: 480})
			s.Flush()

			So(target.updateCount(), ShouldEqual, 1)
			So(target.lastUpdate(), ShouldResemble, player.Bounds{Width: 640, Height: 480})

			Convey("And a second flush with nothing pending does nothing", func() {
				s.Flush()
				So(target.updateCount(), ShouldEqual, 1)
			})
		})
	})
}

func TestSyncMinimize(t *testing.T) {
	Convey("Minimize and restore are forwarded immediately, never debounced", t, func() {
		target := &fakeTarget{}
		s := New(target, time.Hour)

		s.Minimize()
		s.Restore()
		s.Minimize()

		So(target.minimized, ShouldResemble, []bool{true, false, true})

		Convey("Bounds changed while minimized are applied on restore", func() {
			s.Resize(player.Bounds{Width: 1280, Height: 720})
			So(target.updateCount(), ShouldEqual, 0)

			s.Restore()
			So(target.updateCount(), ShouldEqual, 1)
			So(target.lastUpdate(), ShouldResemble, player.Bounds{Width: 1280, Height: 720})
			So(target.minimized[len(target.minimized)-1], ShouldBeFalse)
		})
	})
}
