package scheduler

import (
	"context"
	"time"
)

const (
	// PollInterval is how often a pending cycle checks the clock.
	PollInterval = 500 * time.Millisecond

	// MinInterval is the shortest cadence the loop accepts; shorter values are
	// raised to it.
	MinInterval = time.Second
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Config is the snapshot a cycle works from.
type Config struct {
	Interval   time.Duration
	Directory  string
	PlayerPath string
}

// EffectiveInterval returns Interval raised to MinInterval.
func (c Config) EffectiveInterval() time.Duration {
	if c.Interval < MinInterval {
		return MinInterval
	}
	return c.Interval
}

// ConfigSource returns the current configuration. It is called once per cycle
// and once per manual playback, so it should be cheap.
type ConfigSource func() Config

// Result describes what a playback did.
type Result struct {
	Files   int
	Skipped bool
}

// Action performs one playback. Implementations should return promptly once
// ctx is cancelled.
type Action interface {
	Play(ctx context.Context, directory, playerPath string) (Result, error)
}

type ActionFunc func(ctx context.Context, directory, playerPath string) (Result, error)

func (f ActionFunc) Play(ctx context.Context, directory, playerPath string) (Result, error) {
	return f(ctx, directory, playerPath)
}

// Status is what observers see. A zero NextFireAt means nothing is scheduled.
type Status struct {
	State      State
	NextFireAt time.Time
}

func (s Status) Scheduled() bool { return !s.NextFireAt.IsZero() }

type Observer func(Status)

type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Run is one finished playback attempt.
type Run struct {
	ID         string
	Trigger    Trigger
	StartedAt  time.Time
	Took       time.Duration
	Directory  string
	PlayerPath string
	Result     Result
	Err        error
}

// Recorder receives every finished Run. It is called on the goroutine that ran
// the playback.
type Recorder func(Run)

// Spawner starts background goroutines. The default is a plain `go` statement.
type Spawner interface {
	Go(name string, fn func())
}

type SpawnerFunc func(name string, fn func())

func (f SpawnerFunc) Go(name string, fn func()) { f(name, fn) }

type goSpawner struct{}

func (goSpawner) Go(_ string, fn func()) { go fn() }
