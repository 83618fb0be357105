package player

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
)

// launchSpec carries everything needed to build the player's command line.
type launchSpec struct {
	Title    string
	Bounds   Bounds
	VideoOut string
	GpuApi   string
	Volume   int
	OnTop    bool
	Start    float64
	Endpoint Endpoint
	URL      string
}

// buildArgs produces the deterministic argument list. The mandatory block
// keeps a fixed order that real player builds depend on; optional arguments
// follow it, and the control endpoint, the literal "--" separator and the
// media URL are always the final three entries so a URL starting with a dash
// can never be parsed as an option.
func buildArgs(spec launchSpec) []string {
	args := []string{
		fmt.Sprintf("--title=%s", spec.Title),
		fmt.Sprintf("--geometry=%s", spec.Bounds.Geometry()),
		"--no-border",
		"--force-window=yes",
		"--no-terminal",
		"--keep-open=always",
		fmt.Sprintf("--vo=%s", spec.VideoOut),
		fmt.Sprintf("--gpu-api=%s", spec.GpuApi),
		"--hwdec=auto-safe",
		"--cache=yes",
	}

	if spec.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", spec.Volume))
	}
	if spec.OnTop {
		args = append(args, "--ontop")
	}
	if spec.Start > 0 {
		args = append(args, fmt.Sprintf("--start=%d", int(math.Floor(spec.Start))))
	}

	args = append(args,
		fmt.Sprintf("--input-ipc-server=%s", spec.Endpoint),
		"--",
		spec.URL,
	)
	return args
}

// sanitizeMediaTarget validates that a URL is safe to hand to the subprocess.
// Any parseable scheme passes through: IPTV sources routinely stream over
// rtsp, rtmp or udp, and the "--" separator keeps even a hostile target from
// being read as an option. Targets without a scheme are treated as local
// paths.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.Contains(l, "://") {
		if _, err := url.Parse(l); err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		return l, nil
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle cleans up the window title before it reaches the command line.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
