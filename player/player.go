// Package player implements the out-of-process media player controller: it spawns,
// supervises and speaks the JSON-IPC control protocol to an external mpv process,
// and exposes a single stateful playback session per host window.
//
// The package is split along ownership lines: Supervisor owns the subprocess
// lifecycle, Client owns the control channel, and Session orchestrates both
// while normalizing everything that happens below it into Event values.
package player

import "fmt"

// Bounds describes a window region in host coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry renders the bounds in mpv's WxH+X+Y form.
func (b Bounds) Geometry() string {
	return fmt.Sprintf("%dx%d+%d+%d", b.Width, b.Height, b.X, b.Y)
}

// Valid reports whether every component is non-negative. Zero-sized bounds
// are legal: hosts report them transiently while a window is minimized or
// mid-animation, and mpv tolerates them.
func (b Bounds) Valid() bool {
	return b.X >= 0 && b.Y >= 0 && b.Width >= 0 && b.Height >= 0
}

// Request describes a single playback submission. It is immutable once handed
// to a Session.
type Request struct {
	// URL is the media location. Must be non-empty after trimming.
	URL string `json:"url"`

	// Bounds is the initial window region the player should occupy.
	Bounds Bounds `json:"bounds"`

	// Title overrides the player window title. Empty means the application default.
	Title string `json:"title,omitempty"`

	// Start is an explicit starting position in seconds. Zero means either the
	// beginning or, when resume history is enabled, the last saved position.
	Start float64 `json:"start,omitempty"`
}
