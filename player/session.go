package player

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/constant"
	"github.com/teamg-play/mpvhost/history"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/log"
	"github.com/teamg-play/mpvhost/util"
)

// genericFailureExit is the player's "could not play content" exit code,
// the only failure class eligible for automatic retry.
const genericFailureExit = 1

// observerTimePos is the observe_property id used for position telemetry.
const observerTimePos = 1

// positionSaveInterval is the minimum playback progress between resume
// position writes.
const positionSaveInterval = 5.0

// errSuperseded marks an in-flight play that lost to a newer request. It is
// swallowed, never surfaced.
var errSuperseded = errors.New("playback superseded")

// Options bundles the tunable parameters of a Session.
type Options struct {
	Binary     string
	VideoOut   string
	GpuApi     string
	Volume     int
	OnTop      bool
	WorkingDir string

	StartupTimeout time.Duration
	StopTimeout    time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration

	Resume bool
}

// OptionsFromConfig reads the session options from global configuration.
func OptionsFromConfig() Options {
	return Options{
		Binary:         viper.GetString(key.PlayerBinary),
		VideoOut:       viper.GetString(key.PlayerVideoOut),
		GpuApi:         viper.GetString(key.PlayerGpuApi),
		Volume:         viper.GetInt(key.PlayerVolume),
		OnTop:          viper.GetBool(key.PlayerOnTop),
		WorkingDir:     viper.GetString(key.PlayerWorkingDir),
		StartupTimeout: time.Duration(viper.GetInt(key.SessionStartupTimeout)) * time.Millisecond,
		StopTimeout:    time.Duration(viper.GetInt(key.SessionStopTimeout)) * time.Millisecond,
		RetryAttempts:  viper.GetInt(key.SessionRetryAttempts),
		RetryBackoff:   time.Duration(viper.GetInt(key.SessionRetryBackoff)) * time.Millisecond,
		Resume:         viper.GetBool(key.HistoryResume),
	}
}

// processSupervisor is the slice of Supervisor the session depends on.
type processSupervisor interface {
	Start(binary string, args []string, workingDir string, extraEnv []string) (*Handle, error)
	Stop(h *Handle, timeout time.Duration) error
}

// connectFunc is the control channel dialer, replaceable in tests.
type connectFunc func(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error)

// generation tracks one play request's lifetime. Any asynchronous step checks
// it is still acting for the current generation before mutating shared state
// or emitting events; stale continuations discard their results silently.
type generation struct {
	id      uint64
	cancel  chan struct{} // closed on supersede, stop or synchronous failure
	settled chan struct{} // closed once the synchronous phase of Play succeeded

	attempts     int
	fatalEmitted bool
	lastFatal    string
}

// Session is the single orchestrator a UI command maps to. It owns at most
// one active player handle; starting a new playback always fully terminates
// the previous process first. Construct one session per host window.
type Session struct {
	opts    Options
	sup     processSupervisor
	connect connectFunc

	endpoint Endpoint
	events   chan Event

	mu         sync.Mutex
	generation uint64
	current    *generation
	handle     *Handle
	client     *Client
	pending    mo.Option[Bounds]
	mediaURL   string
	lastPos    float64
	lastSaved  float64
}

// NewSession creates a session configured from global settings.
func NewSession() *Session {
	return NewSessionWith(OptionsFromConfig(), NewSupervisor())
}

// NewSessionWith creates a session with explicit options and supervisor.
func NewSessionWith(opts Options, sup processSupervisor) *Session {
	return &Session{
		opts:     opts,
		sup:      sup,
		connect:  Connect,
		endpoint: HostEndpoint(),
		events:   make(chan Event, 64),
	}
}

// Events returns the normalized playback event stream.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Play starts playback of the request, superseding any active playback. It
// returns once the new player is running and its control channel is attached,
// or with the final classified error after the automatic retry budget for
// generic playback failures is exhausted.
func (s *Session) Play(req Request) error {
	mediaURL, err := sanitizeMediaTarget(req.URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	title := sanitizeTitle(req.Title)
	if title == "" {
		title = constant.WindowTitle
	}

	g, prior, priorClient := s.supersede()

	// Never overlap two player processes: both would compete for the same
	// window region. Await full termination, bounded by the stop timeout.
	if priorClient != nil {
		priorClient.Close()
	}
	if prior != nil {
		_ = s.sup.Stop(prior, s.opts.StopTimeout)
		log.Infof("previous player terminated before new playback")
	}

	for {
		err := s.launchOnce(g, req, mediaURL, title)
		if err == nil {
			close(g.settled)
			return nil
		}
		if errors.Is(err, errSuperseded) {
			return nil
		}

		var failure *PlaybackFailureError
		if errors.As(err, &failure) && failure.ExitCode == genericFailureExit && s.retryBudgetLeft(g) {
			log.Warnf("playback failed (exit %d) after %s, retrying in %s",
				failure.ExitCode, util.Quantify(s.attemptCount(g), "attempt", "attempts"), s.opts.RetryBackoff)
			select {
			case <-time.After(s.opts.RetryBackoff):
			case <-g.cancel:
				return nil
			}
			continue
		}

		s.abort(g)
		return err
	}
}

// Stop terminates the active playback. Idempotent: calling it with no active
// handle is a no-op success.
func (s *Session) Stop() {
	s.mu.Lock()
	g := s.current
	h := s.handle
	c := s.client
	url := s.mediaURL
	pos := s.lastPos
	s.generation++
	s.current = nil
	s.handle = nil
	s.client = nil
	s.pending = mo.None[Bounds]()
	s.lastPos = 0
	s.lastSaved = 0
	s.mu.Unlock()

	if g != nil {
		close(g.cancel)
	}
	if c != nil {
		c.Close()
	}
	if h != nil {
		_ = s.sup.Stop(h, s.opts.StopTimeout)
	}

	if s.opts.Resume && url != "" && pos > 0 {
		if err := history.Save(url, pos); err != nil {
			log.Warnf("save resume position: %v", err)
		}
	}
}

// Close releases the session. Equivalent to Stop; the event channel stays
// open so late consumers never read from a closed channel.
func (s *Session) Close() {
	s.Stop()
}

// UpdateGeometry pushes new window bounds to the running player. Called with
// no active handle it is silently ignored; called before the control channel
// has attached it queues the latest bounds and flushes them on connect.
func (s *Session) UpdateGeometry(b Bounds) {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		return
	}
	c := s.client
	if c == nil {
		s.pending = mo.Some(b)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := c.SetProperty("geometry", b.Geometry()); err != nil {
		log.Warnf("update geometry: %v", err)
	}
}

// SetMinimized reflects a host window minimize/restore event onto the player
// surface. Not debounced: state transitions map 1:1 to commands.
func (s *Session) SetMinimized(minimized bool) {
	if c := s.activeClient(); c != nil {
		if err := c.SetProperty("window-minimized", minimized); err != nil {
			log.Warnf("set window-minimized: %v", err)
		}
	}
}

// SetOnTop toggles the always-on-top state of the player window.
func (s *Session) SetOnTop(onTop bool) error {
	c := s.activeClient()
	if c == nil {
		return errors.New("no active playback")
	}
	return c.SetProperty("ontop", onTop)
}

// Active reports whether a player handle currently exists.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

func (s *Session) activeClient() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// supersede invalidates the current generation and detaches its resources,
// returning them for synchronous teardown by the caller.
func (s *Session) supersede() (*generation, *Handle, *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevGen := s.current
	h := s.handle
	c := s.client

	s.generation++
	g := &generation{
		id:      s.generation,
		cancel:  make(chan struct{}),
		settled: make(chan struct{}),
	}
	s.current = g
	s.handle = nil
	s.client = nil
	s.pending = mo.None[Bounds]()
	s.mediaURL = ""
	s.lastPos = 0
	s.lastSaved = 0

	if prevGen != nil {
		close(prevGen.cancel)
	}
	return g, h, c
}

// abort marks a generation stale after a failed launch so stray goroutines
// discard their results. The cancel channel is closed only by whoever
// transitions the generation out of s.current under the lock, so close
// happens exactly once even when Stop or a superseding Play races the
// failing launch.
func (s *Session) abort(g *generation) {
	s.mu.Lock()
	if s.current != g {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.current = nil
	s.handle = nil
	s.client = nil
	s.mu.Unlock()
	close(g.cancel)
}

func (s *Session) isCurrent(g *generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == g
}

func (s *Session) attemptCount(g *generation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return g.attempts
}

func (s *Session) retryBudgetLeft(g *generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return g.attempts <= s.opts.RetryAttempts
}

// launchOnce performs one spawn attempt: binary verification, argument
// construction, spawn, readiness wait and control channel attach.
func (s *Session) launchOnce(g *generation, req Request, mediaURL, title string) error {
	s.mu.Lock()
	g.attempts++
	s.mu.Unlock()

	start := req.Start
	if start <= 0 && s.opts.Resume {
		start = history.Position(mediaURL).OrElse(0)
	}

	s.endpoint.Cleanup()

	args := buildArgs(launchSpec{
		Title:    title,
		Bounds:   req.Bounds,
		VideoOut: s.opts.VideoOut,
		GpuApi:   s.opts.GpuApi,
		Volume:   s.opts.Volume,
		OnTop:    s.opts.OnTop,
		Start:    start,
		Endpoint: s.endpoint,
		URL:      mediaURL,
	})

	workingDir := s.opts.WorkingDir
	var extraEnv []string
	if workingDir == "" && filepath.IsAbs(s.opts.Binary) {
		// Bundled player layouts keep scripts and config next to the binary.
		workingDir = filepath.Dir(s.opts.Binary)
		extraEnv = append(extraEnv, "MPV_HOME="+workingDir)
	}

	h, err := s.sup.Start(s.opts.Binary, args, workingDir, extraEnv)
	if err != nil {
		return err
	}

	if !s.adoptHandle(g, h, mediaURL) {
		_ = s.sup.Stop(h, s.opts.StopTimeout)
		return errSuperseded
	}

	go s.scanStderr(g, h)

	// Readiness is the control endpoint accepting connections. Abort the
	// wait as soon as the process dies or the request is superseded.
	giveUp := make(chan struct{})
	go func() {
		select {
		case <-h.Exited():
		case <-g.cancel:
		}
		close(giveUp)
	}()

	client, connErr := s.connect(s.endpoint, s.opts.StartupTimeout, giveUp, s.channelCallback(g))
	if connErr != nil {
		select {
		case <-g.cancel:
			return errSuperseded
		default:
		}

		select {
		case <-h.Exited():
			return s.startupFailure(g, h)
		default:
		}

		// Process alive but never became ready: kill it rather than leaving
		// an orphan competing for the window region.
		_ = s.sup.Stop(h, s.opts.StopTimeout)
		return &StartupTimeoutError{Timeout: s.opts.StartupTimeout}
	}

	if !s.adoptClient(g, client) {
		client.Close()
		return errSuperseded
	}

	if err := client.ObserveProperty(observerTimePos, "time-pos"); err != nil {
		// Telemetry is optional: playback continues without position events.
		log.Warnf("observe time-pos: %v", err)
	}

	s.flushPendingGeometry(client)

	go s.watchExit(g, req, mediaURL, title, h)
	return nil
}

func (s *Session) adoptHandle(g *generation, h *Handle, mediaURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != g {
		return false
	}
	s.handle = h
	s.mediaURL = mediaURL
	return true
}

func (s *Session) adoptClient(g *generation, c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != g {
		return false
	}
	s.client = c
	return true
}

func (s *Session) flushPendingGeometry(c *Client) {
	s.mu.Lock()
	pending := s.pending
	s.pending = mo.None[Bounds]()
	s.mu.Unlock()

	if b, ok := pending.Get(); ok {
		if err := c.SetProperty("geometry", b.Geometry()); err != nil {
			log.Warnf("flush queued geometry: %v", err)
		}
	}
}

// startupFailure classifies a process that died before becoming ready.
func (s *Session) startupFailure(g *generation, h *Handle) error {
	status := h.ExitStatus()

	s.mu.Lock()
	lastFatal := g.lastFatal
	if s.current == g {
		s.handle = nil
	}
	s.mu.Unlock()

	if code, ok := status.Code.Get(); ok {
		message := lastFatal
		if message == "" {
			message = "could not play content"
		}
		if code != genericFailureExit {
			message = fmt.Sprintf("player exited with code %d during startup", code)
		}
		return &PlaybackFailureError{Message: message, ExitCode: code}
	}

	signal, _ := status.Signal.Get()
	return &PlaybackFailureError{Message: fmt.Sprintf("player terminated by signal %s during startup", signal)}
}

// channelCallback translates raw control channel notifications into
// normalized events, guarded by the generation.
func (s *Session) channelCallback(g *generation) EventCallback {
	return func(name string, data interface{}) {
		if name != "time-pos" {
			return
		}
		seconds, ok := data.(float64)
		if !ok {
			return
		}

		s.mu.Lock()
		if s.current != g {
			s.mu.Unlock()
			return
		}
		s.lastPos = seconds
		url := s.mediaURL
		save := s.opts.Resume && seconds-s.lastSaved >= positionSaveInterval
		if save {
			s.lastSaved = seconds
		}
		s.mu.Unlock()

		if save {
			if err := history.Save(url, seconds); err != nil {
				log.Warnf("save resume position: %v", err)
			}
		}

		s.emit(g, TimePosition{Seconds: seconds})
	}
}

// scanStderr classifies the player's diagnostic stream. Fatal lines surface
// immediately as a fatal error event, at most once per play request;
// everything else stays diagnostic-only.
func (s *Session) scanStderr(g *generation, h *Handle) {
	scanner := bufio.NewScanner(h.Stderr())
	for scanner.Scan() {
		line := scanner.Text()

		switch Classify(line) {
		case SeverityFatal:
			s.mu.Lock()
			if s.current != g {
				s.mu.Unlock()
				return
			}
			g.lastFatal = line
			first := !g.fatalEmitted
			g.fatalEmitted = true
			s.mu.Unlock()

			log.Errorf("player stderr (fatal): %s", line)
			if first {
				s.emit(g, Error{Message: line, Fatal: true})
			}
		case SeverityIgnored:
			// Known noise.
		default:
			log.Debugf("player stderr: %s", line)
		}
	}
}

// watchExit consumes the exactly-once exit notification for a handle that
// reached the running state, drives the retry policy for generic playback
// failures, and emits the terminal events.
func (s *Session) watchExit(g *generation, req Request, mediaURL, title string, h *Handle) {
	<-h.Exited()

	// Exits during the synchronous phase of Play are handled there.
	select {
	case <-g.cancel:
		return
	case <-g.settled:
	}

	status := h.ExitStatus()

	s.mu.Lock()
	if s.current != g {
		s.mu.Unlock()
		return
	}
	s.handle = nil
	c := s.client
	s.client = nil
	url := s.mediaURL
	pos := s.lastPos
	lastFatal := g.lastFatal
	s.mu.Unlock()

	if c != nil {
		c.Close()
	}

	if s.opts.Resume && url != "" && pos > 0 {
		if err := history.Save(url, pos); err != nil {
			log.Warnf("save resume position: %v", err)
		}
	}

	code, hasCode := status.Code.Get()
	switch {
	case hasCode && code == 0:
		log.Infof("player exited normally")

	case hasCode && code == genericFailureExit && s.retryBudgetLeft(g):
		log.Warnf("playback failed (exit %d) after %s, retrying in %s",
			code, util.Quantify(s.attemptCount(g), "attempt", "attempts"), s.opts.RetryBackoff)
		select {
		case <-time.After(s.opts.RetryBackoff):
		case <-g.cancel:
			return
		}
		if !s.isCurrent(g) {
			return
		}
		if err := s.launchOnce(g, req, mediaURL, title); err != nil && !errors.Is(err, errSuperseded) {
			s.emitFatalOnce(g, err.Error())
			s.emit(g, Exited{Code: status.Code, Signal: status.Signal})
			s.abort(g)
		}
		return

	case hasCode && code == genericFailureExit:
		message := lastFatal
		if message == "" {
			message = "could not play content"
		}
		s.emitFatalOnce(g, message)

	case hasCode:
		s.emitFatalOnce(g, fmt.Sprintf("player exited with code %d", code))

	default:
		// Killed by signal: not a failure unless stderr said otherwise.
		if lastFatal != "" {
			s.emitFatalOnce(g, lastFatal)
		}
	}

	s.emit(g, Exited{Code: status.Code, Signal: status.Signal})
	s.abort(g)
}

// emitFatalOnce surfaces a fatal error event at most once per generation.
func (s *Session) emitFatalOnce(g *generation, message string) {
	s.mu.Lock()
	if s.current != g || g.fatalEmitted {
		s.mu.Unlock()
		return
	}
	g.fatalEmitted = true
	s.mu.Unlock()

	s.emit(g, Error{Message: message, Fatal: true})
}

// emit delivers an event if the generation is still current. Delivery is
// non-blocking: a full buffer drops the event rather than stalling playback.
func (s *Session) emit(g *generation, ev Event) {
	if !s.isCurrent(g) {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Warnf("event buffer full, dropping %T", ev)
	}
}
