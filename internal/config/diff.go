package config

import (
	"reflect"
	"sort"
	"strings"

	logx "videobreak/pkg/logx"
)

// SummarizeConfigChange returns (1) a sorted list of changed sections and
// (2) structured attrs for logging the new values of those sections.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Playback, newCfg.Playback) {
		changed = append(changed, "playback")
		attrs = append(attrs,
			logx.String("playback.video_folder", newCfg.Playback.VideoFolder),
			logx.String("playback.player_path", newCfg.Playback.PlayerPath),
			logx.Int("playback.extensions", len(newCfg.Playback.Extensions)),
		)
	}

	if oldCfg.Scheduler.EffectiveInterval() != newCfg.Scheduler.EffectiveInterval() ||
		oldCfg.Scheduler.AutoStart != newCfg.Scheduler.AutoStart {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Duration("scheduler.interval", newCfg.Scheduler.EffectiveInterval()),
			logx.Bool("scheduler.autostart", newCfg.Scheduler.AutoStart),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Control != newCfg.Control {
		changed = append(changed, "control")
		attrs = append(attrs,
			logx.Bool("control.signals", newCfg.Control.Signals),
			logx.Int("control.play_now_per_minute", newCfg.Control.PlayNowPerMinute),
		)
	}

	if oldCfg.Systemd != newCfg.Systemd {
		changed = append(changed, "systemd")
		attrs = append(attrs, logx.Bool("systemd.notify", newCfg.Systemd.Notify))
	}

	oldS, _ := StorageSettings(oldCfg)
	newS, _ := StorageSettings(newCfg)
	if oldS != newS {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", newS.Driver),
			logx.Bool("storage.path_set", strings.TrimSpace(newS.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
