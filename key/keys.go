// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// External Player Binary - these keys locate and describe the supervised playback process.
const (
	PlayerBinary     = "player.binary"
	PlayerVideoOut   = "player.video_output"
	PlayerGpuApi     = "player.gpu_api"
	PlayerVolume     = "player.volume"
	PlayerOnTop      = "player.ontop"
	PlayerWorkingDir = "player.working_dir"
)

// Playback Session Timing - these keys bound every suspension point of the session orchestrator.
const (
	SessionStartupTimeout = "session.startup_timeout_ms"
	SessionStopTimeout    = "session.stop_timeout_ms"
	SessionRetryAttempts  = "session.retry_attempts"
	SessionRetryBackoff   = "session.retry_backoff_ms"
)

// Window Geometry Synchronization - these keys tune the propagation of host window events.
const (
	GeometryDebounce = "geometry.debounce_ms"
)

// Resume History - these keys configure the persistence of playback positions.
const (
	HistoryResume           = "history.resume"
	HistoryMinResumeSeconds = "history.min_resume_seconds"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the command-line application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
