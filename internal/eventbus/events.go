package eventbus

import "time"

// Event types published by videobreak components.
const (
	// TypeSchedulerState carries a SchedulerState. Published on every
	// scheduler transition (idle/running, next fire time updated).
	TypeSchedulerState = "scheduler.state"

	// TypePlaybackFinished carries a PlaybackFinished after every playback
	// attempt, scheduled or manual.
	TypePlaybackFinished = "playback.finished"
)

// Event is one published fact. Data holds the payload named by Type; use the
// typed accessors rather than asserting on Data directly.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type SchedulerState struct {
	Running bool
	// NextFireAt is zero when no fire is scheduled.
	NextFireAt time.Time
}

type PlaybackFinished struct {
	RunID   string
	Trigger string
	Files   int
	Skipped bool
	Took    time.Duration
	Err     string
}

// StateEvent wraps s as a TypeSchedulerState event stamped at.
func StateEvent(at time.Time, s SchedulerState) Event {
	return Event{Type: TypeSchedulerState, Time: at, Data: s}
}

// PlaybackEvent wraps p as a TypePlaybackFinished event stamped at.
func PlaybackEvent(at time.Time, p PlaybackFinished) Event {
	return Event{Type: TypePlaybackFinished, Time: at, Data: p}
}

func (e Event) SchedulerState() (SchedulerState, bool) {
	s, ok := e.Data.(SchedulerState)
	return s, ok && e.Type == TypeSchedulerState
}

func (e Event) PlaybackFinished() (PlaybackFinished, bool) {
	p, ok := e.Data.(PlaybackFinished)
	return p, ok && e.Type == TypePlaybackFinished
}
