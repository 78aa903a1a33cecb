package app

import (
	"time"

	"videobreak/internal/config"
	"videobreak/internal/media"
	"videobreak/internal/scheduler"
	"videobreak/internal/storage"
	logx "videobreak/pkg/logx"
)

func LogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// MediaOptions maps the playback section onto the player.
func MediaOptions(cfg *config.Config) media.Options {
	return media.Options{
		Args:        cfg.Playback.PlayerArgs,
		Extensions:  cfg.Playback.Extensions,
		PlaylistDir: cfg.Playback.DataDir,
	}
}

// StorageConfig maps the storage section. enabled=false means no history.
func StorageConfig(cfg *config.Config) (sc storage.Config, enabled bool, err error) {
	s, err := config.StorageSettings(cfg)
	if err != nil || !s.Enabled {
		return storage.Config{}, false, err
	}
	busy := s.BusyTimeout
	if busy == 0 && s.Driver != "file" {
		busy = time.Second
	}
	return storage.Config{
		Driver:      s.Driver,
		Path:        s.Path,
		BusyTimeout: busy,
		MaxRecords:  s.MaxRecords,
	}, true, nil
}

// ScheduleConfig is the per-cycle snapshot handed to the scheduler. A player
// path that does not resolve is passed through as-is; the player then fails
// and the failure is logged for that cycle.
func ScheduleConfig(cfg *config.Config) scheduler.Config {
	player := cfg.Playback.PlayerPath
	if resolved, err := config.ResolvePlayer(player); err == nil {
		player = resolved
	}
	return scheduler.Config{
		Interval:   cfg.Scheduler.EffectiveInterval(),
		Directory:  cfg.Playback.VideoFolder,
		PlayerPath: player,
	}
}

func runRecord(r scheduler.Run) storage.PlaybackRun {
	rec := storage.PlaybackRun{
		ID:        r.ID,
		Trigger:   string(r.Trigger),
		StartedAt: r.StartedAt,
		TookMS:    r.Took.Milliseconds(),
		Directory: r.Directory,
		Player:    r.PlayerPath,
		Files:     r.Result.Files,
		Skipped:   r.Result.Skipped,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}
