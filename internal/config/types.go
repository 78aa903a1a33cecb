package config

// Config is the on-disk configuration.
//
// A committed *Config is never mutated: every reload produces a new value, so a
// pointer returned by ConfigManager.Get can be read without locking.
type Config struct {
	Playback  PlaybackConfig  `json:"playback"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Logging   LoggingConfig   `json:"logging"`
	Control   ControlConfig   `json:"control"`
	Systemd   SystemdConfig   `json:"systemd"`

	// Storage keeps a playback history. Nil or driver "none" disables it.
	Storage *StorageConfig `json:"storage,omitempty"`
}

// PlaybackConfig describes what gets played and how the player is launched.
type PlaybackConfig struct {
	VideoFolder string `json:"video_folder"`
	PlayerPath  string `json:"player_path"`

	// PlayerArgs precede the playlist path on the player's command line.
	// Default: ["--fullscreen", "--play-and-exit"].
	PlayerArgs []string `json:"player_args,omitempty"`

	// Extensions is the case-insensitive set of file suffixes considered media.
	Extensions []string `json:"extensions,omitempty"`

	// DataDir holds playlists and, by default, the history store and log file.
	DataDir string `json:"data_dir,omitempty"`
}

// SchedulerConfig controls the recurring playback cadence.
//
// Interval, when set, wins over IntervalMinutes. It accepts a Go duration
// ("40m", "1h30m") or HH:MM ("00:40").
type SchedulerConfig struct {
	IntervalMinutes int    `json:"interval_minutes"`
	Interval        string `json:"interval,omitempty"`

	// AutoStart starts the recurring schedule as soon as the daemon is up.
	AutoStart bool `json:"autostart"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ControlConfig configures the signal-based remote control.
//
// SIGUSR1 plays now, SIGUSR2 toggles the schedule, SIGHUP reloads the config.
type ControlConfig struct {
	Signals bool `json:"signals"`

	// Manual playbacks requested faster than this are dropped.
	PlayNowPerMinute int `json:"play_now_per_minute,omitempty"`
	PlayNowBurst     int `json:"play_now_burst,omitempty"`
}

// SystemdConfig enables sd_notify integration (READY, STATUS, WATCHDOG).
// It is a no-op when the process is not started by systemd.
type SystemdConfig struct {
	Notify bool `json:"notify"`
}

// StorageConfig controls the optional playback history.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "~/.config/VideoBreakPro/history.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	MaxRecords  int    `json:"max_records,omitempty"`
}

// Clone returns a deep copy safe to modify.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Playback.PlayerArgs = append([]string(nil), c.Playback.PlayerArgs...)
	cp.Playback.Extensions = append([]string(nil), c.Playback.Extensions...)
	if c.Storage != nil {
		s := *c.Storage
		cp.Storage = &s
	}
	return &cp
}
