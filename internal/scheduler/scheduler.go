package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	logx "videobreak/pkg/logx"
)

type Scheduler struct {
	source   ConfigSource
	action   Action
	observer Observer

	clock  clockwork.Clock
	poll   time.Duration
	log    logx.Logger
	record Recorder
	spawn  Spawner

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// notifyMu serializes "change state, then tell the observer" so observers
	// never see transitions out of order. Always taken before mu.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	next   time.Time
	gen    uint64
	stopCh chan struct{}
	closed bool
}

// New builds an idle Scheduler. A nil observer is allowed.
func New(source ConfigSource, action Action, observer Observer, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		action:   action,
		observer: observer,
		clock:    clockwork.NewRealClock(),
		poll:     PollInterval,
		spawn:    goSpawner{},
		parent:   context.Background(),
	}
	for _, o := range opts {
		o(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.parent)
	s.log = s.log.With(logx.Component("scheduler"))
	return s
}

// Start begins the recurring schedule. It is a no-op while already running.
// The first fire time is computed before Start returns, so Estimate reports it
// immediately.
func (s *Scheduler) Start() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.state == Running || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	cfg, err := s.snapshot()
	if err != nil {
		s.log.Error("scheduler not started: config unavailable", logx.Err(err))
		return
	}
	next := s.nextFire(cfg)

	s.mu.Lock()
	s.state = Running
	s.next = next
	s.gen++
	gen := s.gen
	stop := make(chan struct{})
	s.stopCh = stop
	st := s.statusLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	s.spawn.Go("scheduler.loop", func() {
		defer s.wg.Done()
		s.loop(gen, stop, next)
	})

	s.log.Info("scheduler started",
		logx.Duration("interval", cfg.EffectiveInterval()),
		logx.Time("next_fire_at", next),
	)
	s.notify(st)
}

// Stop cancels the schedule. The observer is told Idle on every call, even
// when the scheduler was already idle. A playback already in progress runs to
// completion.
func (s *Scheduler) Stop() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	wasRunning := s.halt()
	st := s.statusLocked()
	s.mu.Unlock()

	if wasRunning {
		s.log.Info("scheduler stopped")
	}
	s.notify(st)
}

// halt closes the current loop's stop channel and resets to Idle. Callers hold mu.
func (s *Scheduler) halt() bool {
	wasRunning := s.state == Running
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.state = Idle
	s.next = time.Time{}
	return wasRunning
}

// PlayNow runs one playback in the background with the current config. It does
// not touch the schedule: the state and the next fire time are left as they
// are, and it may overlap a scheduled playback.
func (s *Scheduler) PlayNow() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.spawn.Go("scheduler.play_now", func() {
		defer s.wg.Done()
		cfg, err := s.snapshot()
		if err != nil {
			s.log.Error("manual playback aborted: config unavailable", logx.Err(err))
			return
		}
		s.invoke(TriggerManual, cfg)
	})
}

// Estimate returns the next fire time, if one is scheduled.
func (s *Scheduler) Estimate() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next, !s.next.IsZero()
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Running
}

// Close stops the schedule, cancels in-flight playbacks and waits for every
// goroutine the scheduler started, or for ctx.
func (s *Scheduler) Close(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) statusLocked() Status {
	return Status{State: s.state, NextFireAt: s.next}
}

func (s *Scheduler) notify(st Status) {
	if s.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("observer panic", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
		}
	}()
	s.observer(st)
}

func (s *Scheduler) snapshot() (cfg Config, err error) {
	if s.source == nil {
		return Config{}, fmt.Errorf("no config source")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("config source panic: %v", r)
		}
	}()
	return s.source(), nil
}
