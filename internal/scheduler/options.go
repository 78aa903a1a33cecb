package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	logx "videobreak/pkg/logx"
)

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithPollInterval overrides PollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.poll = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.record = r }
}

func WithSpawner(sp Spawner) Option {
	return func(s *Scheduler) {
		if sp != nil {
			s.spawn = sp
		}
	}
}

// WithContext sets the parent of the context handed to the action. Cancelling
// it aborts in-flight playbacks; Close cancels it too.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		if ctx != nil {
			s.parent = ctx
		}
	}
}
