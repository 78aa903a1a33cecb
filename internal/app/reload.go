package app

import (
	"context"

	"videobreak/internal/config"
	logx "videobreak/pkg/logx"
)

// startConfigReload applies hot-reloaded configs. The scheduler needs no
// push: it reads the committed config at the start of every cycle.
func (a *App) startConfigReload() {
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.apply(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})
}

func (a *App) apply(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(LogConfig(newCfg))
	a.player.SetOptions(MediaOptions(newCfg))
	a.ctl.SetLimit(newCfg.Control.PlayNowPerMinute, newCfg.Control.PlayNowBurst)

	rr := restartRequired(sections)
	if oldCfg.Control.Signals != newCfg.Control.Signals {
		rr = append(rr, "control.signals")
	}
	if len(rr) > 0 {
		a.log.Warn("config change needs a restart to take effect", logx.String("sections", joinSections(rr)))
	}

	fields := append([]logx.Field{logx.String("changed", joinSections(sections))}, attrs...)
	a.log.Info("config reloaded", fields...)
}
