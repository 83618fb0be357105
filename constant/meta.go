// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Mpvhost is the canonical application identifier used for filesystem paths,
	// CLI branding and the per-process control endpoint name.
	Mpvhost = "mpvhost"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// WindowTitle is the title assigned to the external player window so the host
	// desktop shell can locate and reparent it.
	WindowTitle = "mpv"
)

// Build-time metadata, overridden via -ldflags by the release pipeline.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
