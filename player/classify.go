package player

import "strings"

// Severity is the classification outcome for a single stderr line.
type Severity int

const (
	// SeverityDiagnostic lines are logged and never surfaced to the UI.
	SeverityDiagnostic Severity = iota
	// SeverityIgnored lines are known noise that must never produce events,
	// even when they also contain a fatal substring.
	SeverityIgnored
	// SeverityFatal lines are authoritative signals of unrecoverable playback failure.
	SeverityFatal
)

// stderrRule binds a case-insensitive substring to a severity. Rules are
// evaluated in order and the first match wins, so ignore rules shadowing a
// fatal substring (e.g. "failed to load module" vs "failed to load") must
// stay ahead of it.
type stderrRule struct {
	substring string
	severity  Severity
}

var stderrRules = []stderrRule{
	{"fontconfig", SeverityIgnored},
	{"cannot connect to server", SeverityIgnored},
	{"failed to load module", SeverityIgnored},
	{"[cplayer] ", SeverityIgnored},

	{"cannot open file", SeverityFatal},
	{"failed to open", SeverityFatal},
	{"failed to load", SeverityFatal},
	{"error loading", SeverityFatal},
	{"failed to initialize", SeverityFatal},
	{"could not open", SeverityFatal},
	{"failed to connect", SeverityFatal},
	{"connection refused", SeverityFatal},
	{"connection timeout", SeverityFatal},
	{"protocol error", SeverityFatal},
	{"unsupported protocol", SeverityFatal},
	{"no video", SeverityFatal},
	{"no demuxer", SeverityFatal},
	{"no decoder", SeverityFatal},
	{"playback error", SeverityFatal},
	{"failed to get stream", SeverityFatal},
	{"failed to parse", SeverityFatal},
	{"failed to read", SeverityFatal},
}

// Classify maps a raw stderr line onto its severity.
func Classify(line string) Severity {
	lowered := strings.ToLower(line)
	for _, rule := range stderrRules {
		if strings.Contains(lowered, rule.substring) {
			return rule.severity
		}
	}
	return SeverityDiagnostic
}
