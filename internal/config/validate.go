package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrPlayerNotFound is returned by ValidatePlayback when player_path does not
// resolve to an executable.
var ErrPlayerNotFound = errors.New("player executable not found")

// Validate checks structural invariants. It is run on every hot reload and a
// config failing it is never committed.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Scheduler.IntervalMinutes < 1 && strings.TrimSpace(cfg.Scheduler.Interval) == "" {
		return fmt.Errorf("scheduler.interval_minutes must be >= 1")
	}
	if strings.TrimSpace(cfg.Scheduler.Interval) != "" {
		if _, err := ParseInterval(cfg.Scheduler.Interval); err != nil {
			return fmt.Errorf("scheduler.interval: %w", err)
		}
	}
	if strings.TrimSpace(cfg.Playback.VideoFolder) == "" {
		return fmt.Errorf("playback.video_folder is required")
	}
	for i, ext := range cfg.Playback.Extensions {
		if !strings.HasPrefix(strings.TrimSpace(ext), ".") {
			return fmt.Errorf("playback.extensions[%d]: %q must start with '.'", i, ext)
		}
	}
	if cfg.Control.PlayNowPerMinute < 0 {
		return fmt.Errorf("control.play_now_per_minute must be >= 0")
	}
	if cfg.Control.PlayNowBurst < 0 {
		return fmt.Errorf("control.play_now_burst must be >= 0")
	}
	if _, err := StorageSettings(cfg); err != nil {
		return err
	}
	return nil
}

// ValidatePlayback is the pre-flight check run before starting the schedule or
// playing on demand: the folder must be set and the player must exist.
func ValidatePlayback(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if _, err := ResolvePlayer(cfg.Playback.PlayerPath); err != nil {
		return err
	}
	return nil
}

// ResolvePlayer turns player_path into an absolute executable path. Bare names
// ("vlc", "mpv") are looked up in PATH.
func ResolvePlayer(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("playback.player_path: %w", ErrPlayerNotFound)
	}
	if st, err := os.Stat(p); err == nil && !st.IsDir() {
		return p, nil
	}
	resolved, err := exec.LookPath(p)
	if err != nil {
		return "", fmt.Errorf("playback.player_path %q: %w", p, ErrPlayerNotFound)
	}
	return resolved, nil
}

// Storage is the parsed form of StorageConfig.
type Storage struct {
	Enabled     bool
	Driver      string
	Path        string
	BusyTimeout time.Duration
	MaxRecords  int
}

// StorageSettings maps the storage section. A nil section or driver "none"
// disables the history store.
func StorageSettings(cfg *Config) (Storage, error) {
	if cfg == nil || cfg.Storage == nil {
		return Storage{}, nil
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" || driver == "none" {
		return Storage{}, nil
	}
	switch driver {
	case "file", "sqlite", "sqlite3":
	default:
		return Storage{}, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return Storage{}, fmt.Errorf("storage.path is required for driver %q", driver)
	}
	bt, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return Storage{}, err
	}
	if cfg.Storage.MaxRecords < 0 {
		return Storage{}, fmt.Errorf("storage.max_records must be >= 0")
	}
	return Storage{
		Enabled:     true,
		Driver:      driver,
		Path:        ExpandHome(cfg.Storage.Path),
		BusyTimeout: bt,
		MaxRecords:  cfg.Storage.MaxRecords,
	}, nil
}

// ParseDurationField parses an optional Go duration string. Empty means zero.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
