package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// OrgFolder is the per-user directory name under the OS config dir.
	OrgFolder = "VideoBreakPro"

	DefaultIntervalMinutes = 40
	DefaultConfigName      = "config.yaml"
)

var (
	DefaultPlayerArgs = []string{"--fullscreen", "--play-and-exit"}
	DefaultExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".m4v"}
)

// DataDir returns the per-user application directory
// (%APPDATA%\VideoBreakPro on Windows, ~/.config/VideoBreakPro elsewhere).
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		base, _ = os.UserHomeDir()
	}
	return filepath.Join(base, OrgFolder)
}

// DefaultPath is where the CLI looks for a config file when --config is omitted.
func DefaultPath() string {
	return filepath.Join(DataDir(), DefaultConfigName)
}

func defaultPlayerPath() string {
	if runtime.GOOS == "windows" {
		return `C:\Program Files\VideoLAN\VLC\vlc.exe`
	}
	return "vlc"
}

// Default returns a fully populated config. Parse decodes on top of it, so
// omitted fields keep these values.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Playback: PlaybackConfig{
			VideoFolder: filepath.Join(dataDir, "videos"),
			PlayerPath:  defaultPlayerPath(),
			PlayerArgs:  append([]string(nil), DefaultPlayerArgs...),
			Extensions:  append([]string(nil), DefaultExtensions...),
			DataDir:     dataDir,
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: DefaultIntervalMinutes,
			AutoStart:       true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File: LoggingFile{
				Enabled: true,
				Path:    filepath.Join(dataDir, "run.log"),
			},
		},
		Control: ControlConfig{
			Signals:          true,
			PlayNowPerMinute: 6,
			PlayNowBurst:     1,
		},
		Systemd: SystemdConfig{Notify: true},
	}
}

// ExpandHome resolves a leading "~" so paths in the config file can be portable.
func ExpandHome(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[1:])
	}
	return p
}
