package scheduler

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	logx "videobreak/pkg/logx"
)

func (s *Scheduler) loop(gen uint64, stop <-chan struct{}, next time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.fault(gen, fmt.Errorf("scheduler loop panic: %v", r), string(debug.Stack()))
		}
	}()

	for {
		if !s.wait(stop, next) {
			return
		}

		// Directory and player are read at fire time so edits made while the
		// cycle was pending apply to this playback.
		cfg, err := s.snapshot()
		if err != nil {
			s.fault(gen, err, "")
			return
		}
		s.invoke(TriggerSchedule, cfg)

		select {
		case <-stop:
			return
		default:
		}

		cfg, err = s.snapshot()
		if err != nil {
			s.fault(gen, err, "")
			return
		}
		next = s.nextFire(cfg)
		if !s.publishNext(gen, next, cfg.EffectiveInterval()) {
			return
		}
	}
}

// wait polls until the clock reaches at. It returns false when the loop was
// stopped first; a stop that races with the fire wins.
func (s *Scheduler) wait(stop <-chan struct{}, at time.Time) bool {
	t := s.clock.NewTicker(s.poll)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return false
		case <-s.ctx.Done():
			return false
		case <-t.Chan():
			if s.clock.Now().Before(at) {
				continue
			}
			select {
			case <-stop:
				return false
			default:
				return true
			}
		}
	}
}

// nextFire is now+interval truncated to the whole second, so it can land up
// to one second before now+interval. It is never earlier than now.
func (s *Scheduler) nextFire(cfg Config) time.Time {
	return cron.Every(cfg.EffectiveInterval()).Next(s.clock.Now())
}

// publishNext records the next fire time unless the loop has been superseded
// by Stop or a newer Start.
func (s *Scheduler) publishNext(gen uint64, next time.Time, interval time.Duration) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.state != Running {
		s.mu.Unlock()
		return false
	}
	s.next = next
	st := s.statusLocked()
	s.mu.Unlock()

	s.log.Debug("next playback scheduled", logx.Time("at", next), logx.Duration("interval", interval))
	s.notify(st)
	return true
}

// fault handles a failure outside the action: the loop is gone, so the
// scheduler reverts to Idle.
func (s *Scheduler) fault(gen uint64, err error, stack string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.state != Running {
		s.mu.Unlock()
		return
	}
	s.halt()
	st := s.statusLocked()
	s.mu.Unlock()

	s.log.Error("scheduler loop crashed; now idle", logx.Err(err), logx.Stack(stack))
	s.notify(st)
}

// invoke runs the action once. Errors and panics are contained here.
func (s *Scheduler) invoke(trigger Trigger, cfg Config) Run {
	run := Run{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		StartedAt:  s.clock.Now(),
		Directory:  cfg.Directory,
		PlayerPath: cfg.PlayerPath,
	}
	log := s.log.With(logx.String("run_id", run.ID), logx.String("trigger", string(trigger)))

	func() {
		defer func() {
			if r := recover(); r != nil {
				run.Err = fmt.Errorf("playback panic: %v", r)
				log.Error("playback panic", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			}
		}()
		if s.action == nil {
			run.Err = fmt.Errorf("no playback action")
			return
		}
		run.Result, run.Err = s.action.Play(s.ctx, cfg.Directory, cfg.PlayerPath)
	}()
	run.Took = s.clock.Since(run.StartedAt)

	switch {
	case run.Err != nil:
		log.Warn("playback failed", logx.String("dir", cfg.Directory), logx.Err(run.Err))
	case run.Result.Skipped:
		log.Info("no videos found; playback skipped", logx.String("dir", cfg.Directory))
	default:
		log.Info("playback finished", logx.Int("files", run.Result.Files), logx.Duration("took", run.Took))
	}

	if s.record != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("run recorder panic", logx.Any("panic", r))
				}
			}()
			s.record(run)
		}()
	}
	return run
}
