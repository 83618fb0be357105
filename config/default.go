// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/teamg-play/mpvhost/color"
	"github.com/teamg-play/mpvhost/constant"
	"github.com/teamg-play/mpvhost/key"
	"github.com/teamg-play/mpvhost/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Mpvhost + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return reflect.TypeOf(f.Value).String()
	}
}

// Default is the global registry of configuration fields and their factory values.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	gpuApi := "auto"
	if runtime.GOOS == constant.Windows {
		gpuApi = "d3d11"
	}

	register(key.PlayerBinary, "mpv", "Path to the external mpv binary.\nA bare name is resolved against PATH; an absolute path is verified before spawning")
	register(key.PlayerVideoOut, "gpu", "Video output driver passed as --vo")
	register(key.PlayerGpuApi, gpuApi, "GPU rendering API passed as --gpu-api\nPlatform default: d3d11 on Windows, auto elsewhere")
	register(key.PlayerVolume, 70, "Initial playback volume (0-130)")
	register(key.PlayerOnTop, false, "Keep the player window above all others (--ontop)")
	register(key.PlayerWorkingDir, "", "Working directory for the spawned player.\nEmpty means the binary's own directory when the binary path is absolute")
	register(key.SessionStartupTimeout, 5000, "Milliseconds to wait for the spawned player to signal readiness before failing with a startup timeout")
	register(key.SessionStopTimeout, 2000, "Milliseconds to wait for graceful termination before escalating to a hard kill")
	register(key.SessionRetryAttempts, 2, "Automatic retries for the generic playback failure exit code")
	register(key.SessionRetryBackoff, 2000, "Milliseconds between automatic playback retries")
	register(key.GeometryDebounce, 100, "Quiescence period in milliseconds for collapsing bursts of window resize events")
	register(key.HistoryResume, true, "Persist playback positions and resume media from the last watched position")
	register(key.HistoryMinResumeSeconds, 30, "Minimum saved position in seconds required before a resume offset is applied")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
