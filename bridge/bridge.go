// Package bridge exposes the only control surface reachable from the untrusted
// UI context. No OS primitives, file paths or process handles cross this
// boundary; the UI sees opaque commands in and structured events out.
package bridge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/teamg-play/mpvhost/geometry"
	"github.com/teamg-play/mpvhost/log"
	"github.com/teamg-play/mpvhost/player"
)

// Event channel identifiers delivered to subscribers.
const (
	EventError   = "error"
	EventTimePos = "time-pos"
)

// Controller is the narrow playback surface the gateway forwards to.
type Controller interface {
	Play(req player.Request) error
	Stop()
	UpdateGeometry(b player.Bounds)
	SetMinimized(minimized bool)
	Events() <-chan player.Event
}

// Result is the structured outcome returned to the UI for command calls.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ValidationError reports malformed input rejected at the trust boundary
// before it can reach the subprocess layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Callback receives an event payload: a string message for "error", a float64
// position in seconds for "time-pos".
type Callback func(payload interface{})

// Gateway validates UI commands, forwards them to the playback session and
// fans session events back out to subscribers. Bounds updates pass through a
// debouncing sync so UI resize bursts collapse to a single player command.
type Gateway struct {
	session Controller
	sync    *geometry.Sync

	mu     sync.Mutex
	subs   map[string]map[int]Callback
	nextID int

	startOnce sync.Once
}

// New creates a gateway over the given playback controller.
func New(session Controller) *Gateway {
	return &Gateway{
		session: session,
		sync:    geometry.FromConfig(session),
		subs:    make(map[string]map[int]Callback),
	}
}

// Play validates the request and starts playback. Validation failures are
// rejected here and never reach the subprocess layer.
func (g *Gateway) Play(url string, bounds player.Bounds) Result {
	if err := validatePlay(url, bounds); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	g.ensurePump()

	if err := g.session.Play(player.Request{URL: strings.TrimSpace(url), Bounds: bounds}); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

// Stop terminates playback. Always succeeds, including with nothing playing.
func (g *Gateway) Stop() Result {
	g.sync.Stop()
	g.session.Stop()
	return Result{Success: true}
}

// UpdateBounds forwards window bounds to the player through the debouncer.
// Fire-and-forget: malformed bounds are dropped with a log line instead of
// an error reply.
func (g *Gateway) UpdateBounds(bounds player.Bounds) {
	if !bounds.Valid() {
		log.Warnf("dropping invalid bounds update: %+v", bounds)
		return
	}
	g.sync.Resize(bounds)
}

// Minimize forwards a host window minimize event. Never debounced.
func (g *Gateway) Minimize() {
	g.sync.Minimize()
}

// Restore forwards a host window restore event. Never debounced.
func (g *Gateway) Restore() {
	g.sync.Restore()
}

// Subscribe registers a callback for an event channel and returns its
// revocation function. Every subscription is independently revocable so UI
// navigation cycles cannot leak dangling listeners.
func (g *Gateway) Subscribe(event string, cb Callback) (unsubscribe func()) {
	g.ensurePump()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	id := g.nextID
	if g.subs[event] == nil {
		g.subs[event] = make(map[int]Callback)
	}
	g.subs[event][id] = cb

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs[event], id)
	}
}

// ensurePump starts the event fan-out loop on first use.
func (g *Gateway) ensurePump() {
	g.startOnce.Do(func() {
		go g.pump()
	})
}

// pump translates the session's normalized events into UI channel payloads.
// Benign exits carry no payload for the UI; the promise-style results of
// Play/Stop already cover the synchronous outcomes.
func (g *Gateway) pump() {
	for ev := range g.session.Events() {
		switch e := ev.(type) {
		case player.TimePosition:
			g.dispatch(EventTimePos, e.Seconds)
		case player.Error:
			if e.Fatal {
				g.dispatch(EventError, e.Message)
			}
		case player.Exited:
			log.Debugf("player exited: code=%v signal=%v", e.Code, e.Signal)
		}
	}
}

func (g *Gateway) dispatch(event string, payload interface{}) {
	g.mu.Lock()
	callbacks := make([]Callback, 0, len(g.subs[event]))
	for _, cb := range g.subs[event] {
		callbacks = append(callbacks, cb)
	}
	g.mu.Unlock()

	for _, cb := range callbacks {
		cb(payload)
	}
}

func validatePlay(url string, bounds player.Bounds) error {
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Field: "url", Reason: "must be a non-empty string"}
	}
	if !bounds.Valid() {
		return &ValidationError{Field: "bounds", Reason: "x, y, width and height must be non-negative integers"}
	}
	return nil
}
