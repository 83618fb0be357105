package player

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSupervisor hands out pre-built handles and records the call sequence so
// tests can assert mutual exclusion between consecutive playbacks.
type fakeSupervisor struct {
	mu      sync.Mutex
	ops     []string
	pending []*Handle
	starts  int
}

func (f *fakeSupervisor) push(h *Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, h)
}

func (f *fakeSupervisor) Start(binary string, args []string, workingDir string, extraEnv []string) (*Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ops = append(f.ops, "start")
	f.starts++
	if len(f.pending) == 0 {
		return nil, &SpawnError{Err: errors.New("no handle queued")}
	}
	h := f.pending[0]
	f.pending = f.pending[1:]
	return h, nil
}

func (f *fakeSupervisor) Stop(h *Handle, timeout time.Duration) error {
	f.mu.Lock()
	f.ops = append(f.ops, "stop")
	f.mu.Unlock()

	if h != nil {
		finishHandle(h, ExitStatus{Signal: mo.Some("SIGTERM")})
	}
	return nil
}

func (f *fakeSupervisor) callSequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func newFakeHandle(stderr string) *Handle {
	h := &Handle{
		pid:    4242,
		stderr: strings.NewReader(stderr),
		exited: make(chan struct{}),
	}
	h.setState(StateRunning)
	return h
}

func finishHandle(h *Handle, status ExitStatus) {
	select {
	case <-h.exited:
		return
	default:
	}

	h.statusMu.Lock()
	h.status = status
	h.statusMu.Unlock()
	h.setState(StateTerminated)
	close(h.exited)
}

func exitedWith(code int) ExitStatus {
	return ExitStatus{Code: mo.Some(code)}
}

// newFakeClient builds a client over an in-memory pipe and returns the
// newline-delimited commands written to it.
func newFakeClient() (*Client, <-chan string) {
	clientEnd, serverEnd := net.Pipe()
	lines := make(chan string, 16)

	go func() {
		reader := bufio.NewReader(serverEnd)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimSpace(line)
		}
	}()

	c := &Client{
		conn:   clientEnd,
		stopCh: make(chan struct{}),
	}
	return c, lines
}

// acceptingConnect returns a connectFunc that succeeds unless the launch was
// already given up on, mirroring the real dialer's behavior against a dead
// process.
func acceptingConnect(commands *[]<-chan string, mu *sync.Mutex) connectFunc {
	return func(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error) {
		select {
		case <-giveUp:
			return nil, &ChannelConnectError{Endpoint: endpoint, Err: errors.New("gave up")}
		case <-time.After(20 * time.Millisecond):
		}

		select {
		case <-giveUp:
			return nil, &ChannelConnectError{Endpoint: endpoint, Err: errors.New("gave up")}
		default:
		}

		c, lines := newFakeClient()
		mu.Lock()
		*commands = append(*commands, lines)
		mu.Unlock()
		return c, nil
	}
}

// acceptingConnectOnce always attaches a fresh fake client, discarding the
// command stream.
func acceptingConnectOnce() connectFunc {
	return func(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error) {
		c, _ := newFakeClient()
		return c, nil
	}
}

func testOptions() Options {
	return Options{
		Binary:         "sh",
		VideoOut:       "gpu",
		GpuApi:         "auto",
		StartupTimeout: time.Second,
		StopTimeout:    200 * time.Millisecond,
		RetryAttempts:  0,
		RetryBackoff:   10 * time.Millisecond,
	}
}

func collectEvent(events <-chan Event, timeout time.Duration) (Event, bool) {
	select {
	case ev := <-events:
		return ev, true
	case <-time.After(timeout):
		return nil, false
	}
}

func TestSessionPlay(t *testing.T) {
	Convey("Given a session over a healthy fake player", t, func() {
		sup := &fakeSupervisor{}
		s := NewSessionWith(testOptions(), sup)

		var mu sync.Mutex
		var commands []<-chan string
		s.connect = acceptingConnect(&commands, &mu)

		handle := newFakeHandle("")
		sup.push(handle)

		Convey("Play succeeds and registers position telemetry", func() {
			err := s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1280, Height: 720}})
			So(err, ShouldBeNil)
			So(s.Active(), ShouldBeTrue)

			mu.Lock()
			lines := commands[0]
			mu.Unlock()

			select {
			case cmd := <-lines:
				So(cmd, ShouldEqual, `{"command":["observe_property",1,"time-pos"]}`)
			case <-time.After(time.Second):
				So("no observe command written", ShouldBeEmpty)
			}

			Convey("And Stop terminates the process and is idempotent", func() {
				s.Stop()
				So(s.Active(), ShouldBeFalse)
				So(sup.callSequence(), ShouldResemble, []string{"start", "stop"})

				s.Stop()
				So(sup.callSequence(), ShouldResemble, []string{"start", "stop"})
			})
		})

		Convey("Playing again fully stops the previous process before spawning", func() {
			So(s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 800, Height: 600}}), ShouldBeNil)

			sup.push(newFakeHandle(""))
			So(s.Play(Request{URL: "https://example.com/b.m3u8", Bounds: Bounds{Width: 800, Height: 600}}), ShouldBeNil)

			So(sup.callSequence(), ShouldResemble, []string{"start", "stop", "start"})
			So(s.Active(), ShouldBeTrue)

			Convey("And the superseded process emits no events", func() {
				_, got := collectEvent(s.Events(), 100*time.Millisecond)
				So(got, ShouldBeFalse)
			})
		})
	})
}

func TestSessionPlayValidation(t *testing.T) {
	Convey("Play rejects invalid media targets before spawning", t, func() {
		sup := &fakeSupervisor{}
		s := NewSessionWith(testOptions(), sup)

		So(s.Play(Request{URL: ""}), ShouldNotBeNil)
		So(s.Play(Request{URL: "https://example.com/a\n.m3u8"}), ShouldNotBeNil)
		So(sup.starts, ShouldEqual, 0)
	})
}

func TestSessionMissingBinary(t *testing.T) {
	Convey("Play with a missing binary fails with the binary's name", t, func() {
		opts := testOptions()
		opts.Binary = "definitely-not-a-player-binary"
		s := NewSessionWith(opts, NewSupervisor())

		err := s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1, Height: 1}})
		So(err, ShouldNotBeNil)

		var notFound *BinaryNotFoundError
		So(errors.As(err, &notFound), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "definitely-not-a-player-binary")
		So(s.Active(), ShouldBeFalse)
	})
}

func TestSessionFatalStderr(t *testing.T) {
	Convey("Given a player that reports a fatal error on stderr", t, func() {
		sup := &fakeSupervisor{}
		s := NewSessionWith(testOptions(), sup)

		var mu sync.Mutex
		var commands []<-chan string
		s.connect = acceptingConnect(&commands, &mu)

		handle := newFakeHandle("Failed to open https://example.com/a.m3u8\nerror loading stream\n")
		sup.push(handle)

		So(s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1, Height: 1}}), ShouldBeNil)

		Convey("Exactly one fatal error event is emitted", func() {
			ev, got := collectEvent(s.Events(), time.Second)
			So(got, ShouldBeTrue)

			fatal, ok := ev.(Error)
			So(ok, ShouldBeTrue)
			So(fatal.Fatal, ShouldBeTrue)
			So(fatal.Message, ShouldContainSubstring, "Failed to open")

			_, more := collectEvent(s.Events(), 100*time.Millisecond)
			So(more, ShouldBeFalse)

			Convey("And the failure exit produces a terminal exit event without a second error", func() {
				finishHandle(handle, exitedWith(1))

				ev, got := collectEvent(s.Events(), time.Second)
				So(got, ShouldBeTrue)

				exit, ok := ev.(Exited)
				So(ok, ShouldBeTrue)
				code, hasCode := exit.Code.Get()
				So(hasCode, ShouldBeTrue)
				So(code, ShouldEqual, 1)
			})
		})
	})
}

func TestSessionRetry(t *testing.T) {
	Convey("Given a player that dies with the generic failure exit code", t, func() {
		sup := &fakeSupervisor{}
		opts := testOptions()
		opts.RetryAttempts = 1
		s := NewSessionWith(opts, sup)

		var mu sync.Mutex
		var commands []<-chan string
		s.connect = acceptingConnect(&commands, &mu)

		first := newFakeHandle("")
		sup.push(first)

		So(s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1, Height: 1}}), ShouldBeNil)

		// Second launch attempt finds an already-dead process.
		second := newFakeHandle("")
		finishHandle(second, exitedWith(1))
		sup.push(second)

		finishHandle(first, exitedWith(1))

		Convey("It retries once, then surfaces one fatal error followed by the exit", func() {
			ev, got := collectEvent(s.Events(), 3*time.Second)
			So(got, ShouldBeTrue)

			fatal, ok := ev.(Error)
			So(ok, ShouldBeTrue)
			So(fatal.Fatal, ShouldBeTrue)
			So(fatal.Message, ShouldContainSubstring, "could not play content")

			ev, got = collectEvent(s.Events(), time.Second)
			So(got, ShouldBeTrue)
			_, ok = ev.(Exited)
			So(ok, ShouldBeTrue)

			sup.mu.Lock()
			starts := sup.starts
			sup.mu.Unlock()
			So(starts, ShouldEqual, 2)

			_, more := collectEvent(s.Events(), 100*time.Millisecond)
			So(more, ShouldBeFalse)
		})
	})
}

// gatedSupervisor blocks Start until released, then fails the spawn, so tests
// can interleave Stop with an in-flight launch.
type gatedSupervisor struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSupervisor) Start(string, []string, string, []string) (*Handle, error) {
	close(g.entered)
	<-g.release
	return nil, &SpawnError{Err: errors.New("spawn refused")}
}

func (g *gatedSupervisor) Stop(*Handle, time.Duration) error { return nil }

func TestSessionStopDuringLaunch(t *testing.T) {
	Convey("Stop racing an in-flight launch leaves the session consistent", t, func() {
		sup := &gatedSupervisor{entered: make(chan struct{}), release: make(chan struct{})}
		s := NewSessionWith(testOptions(), sup)

		playDone := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					playDone <- fmt.Errorf("play panicked: %v", r)
				}
			}()
			playDone <- s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1, Height: 1}})
		}()

		<-sup.entered
		s.Stop()
		close(sup.release)

		select {
		case err := <-playDone:
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldNotContainSubstring, "panicked")

			var spawn *SpawnError
			So(errors.As(err, &spawn), ShouldBeTrue)
		case <-time.After(time.Second):
			So("play never returned", ShouldBeEmpty)
		}

		So(s.Active(), ShouldBeFalse)
		s.Stop()
	})
}

func TestSessionRetryStartupHang(t *testing.T) {
	Convey("Given a relaunch whose control endpoint never becomes ready", t, func() {
		sup := &fakeSupervisor{}
		opts := testOptions()
		opts.RetryAttempts = 1
		opts.StartupTimeout = 50 * time.Millisecond
		s := NewSessionWith(opts, sup)

		var mu sync.Mutex
		connects := 0
		s.connect = func(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error) {
			mu.Lock()
			connects++
			n := connects
			mu.Unlock()

			if n == 1 {
				c, _ := newFakeClient()
				return c, nil
			}
			return nil, &ChannelConnectError{Endpoint: endpoint, Err: errors.New("never ready")}
		}

		first := newFakeHandle("")
		sup.push(first)
		So(s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 1, Height: 1}}), ShouldBeNil)

		// The relaunched process stays alive but never opens its endpoint.
		sup.push(newFakeHandle(""))
		finishHandle(first, exitedWith(1))

		Convey("One fatal error and the exit are emitted, then the session goes inactive", func() {
			ev, got := collectEvent(s.Events(), 3*time.Second)
			So(got, ShouldBeTrue)

			fatal, ok := ev.(Error)
			So(ok, ShouldBeTrue)
			So(fatal.Fatal, ShouldBeTrue)

			ev, got = collectEvent(s.Events(), time.Second)
			So(got, ShouldBeTrue)
			_, ok = ev.(Exited)
			So(ok, ShouldBeTrue)

			deadline := time.Now().Add(time.Second)
			for s.Active() && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			So(s.Active(), ShouldBeFalse)

			Convey("And a fresh Play is accepted afterwards", func() {
				s.connect = acceptingConnectOnce()
				sup.push(newFakeHandle(""))
				So(s.Play(Request{URL: "https://example.com/b.m3u8", Bounds: Bounds{Width: 1, Height: 1}}), ShouldBeNil)
				So(s.Active(), ShouldBeTrue)
			})
		})
	})
}

func TestSessionGeometry(t *testing.T) {
	Convey("UpdateGeometry", t, func() {
		Convey("With no active playback it is silently ignored", func() {
			s := NewSessionWith(testOptions(), &fakeSupervisor{})
			s.UpdateGeometry(Bounds{Width: 100, Height: 100})
			s.SetMinimized(true)
			So(s.SetOnTop(true), ShouldNotBeNil)
		})

		Convey("Bounds arriving before the channel attaches are queued and flushed", func() {
			sup := &fakeSupervisor{}
			s := NewSessionWith(testOptions(), sup)

			var mu sync.Mutex
			var commands []<-chan string

			entered := make(chan struct{})
			release := make(chan struct{})
			s.connect = func(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error) {
				close(entered)
				<-release

				c, lines := newFakeClient()
				mu.Lock()
				commands = append(commands, lines)
				mu.Unlock()
				return c, nil
			}

			sup.push(newFakeHandle(""))

			playDone := make(chan error, 1)
			go func() {
				playDone <- s.Play(Request{URL: "https://example.com/a.m3u8", Bounds: Bounds{Width: 800, Height: 600}})
			}()

			<-entered
			s.UpdateGeometry(Bounds{X: 3, Y: 4, Width: 640, Height: 480})
			s.UpdateGeometry(Bounds{X: 5, Y: 6, Width: 1024, Height: 768})
			close(release)

			So(<-playDone, ShouldBeNil)

			mu.Lock()
			lines := commands[0]
			mu.Unlock()

			var sent []string
			timeout := time.After(time.Second)
			for len(sent) < 2 {
				select {
				case cmd := <-lines:
					sent = append(sent, cmd)
				case <-timeout:
					So("expected two commands", ShouldBeEmpty)
				}
			}

			So(sent[0], ShouldEqual, `{"command":["observe_property",1,"time-pos"]}`)
			So(sent[1], ShouldEqual, `{"command":["set_property","geometry","1024x768+5+6"]}`)
		})
	})
}
