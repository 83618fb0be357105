package player

import "github.com/samber/mo"

// Event is the normalized notification stream a Session emits. Values are
// created once, transmitted once and never mutated.
type Event interface {
	playbackEvent()
}

// TimePosition reports the current playback position in seconds.
type TimePosition struct {
	Seconds float64 `json:"seconds"`
}

// Error reports a playback problem. Fatal errors terminate the session;
// non-fatal ones are informational.
type Error struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Exited reports subprocess termination with either an exit code or the
// name of the signal that killed it.
type Exited struct {
	Code   mo.Option[int]    `json:"code"`
	Signal mo.Option[string] `json:"signal"`
}

func (TimePosition) playbackEvent() {}
func (Error) playbackEvent()        {}
func (Exited) playbackEvent()       {}
