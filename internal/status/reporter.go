package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/jonboulle/clockwork"

	"videobreak/internal/eventbus"
	logx "videobreak/pkg/logx"
)

const DefaultRefresh = time.Second

// Reporter follows scheduler and playback events. It logs transitions and
// keeps the service manager's status line current, countdown included.
type Reporter struct {
	bus      eventbus.Bus
	log      logx.Logger
	clock    clockwork.Clock
	notifier Notifier
	refresh  time.Duration
	watchdog time.Duration

	mu       sync.Mutex
	state    eventbus.SchedulerState
	last     *eventbus.PlaybackFinished
	lastLine string
}

type Option func(*Reporter)

func WithClock(c clockwork.Clock) Option { return func(r *Reporter) { r.clock = c } }

// WithNotifier replaces SdNotifier. A nil notifier disables notifications.
func WithNotifier(n Notifier) Option { return func(r *Reporter) { r.notifier = n } }

// WithWatchdog pings the watchdog every d/2. Zero disables pings.
func WithWatchdog(d time.Duration) Option { return func(r *Reporter) { r.watchdog = d } }

func WithRefresh(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.refresh = d
		}
	}
}

func NewReporter(bus eventbus.Bus, log logx.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		bus:      bus,
		log:      log.With(logx.Component("status")),
		clock:    clockwork.NewRealClock(),
		notifier: SdNotifier{},
		refresh:  DefaultRefresh,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run reports READY, follows events until ctx is done, then reports STOPPING.
func (r *Reporter) Run(ctx context.Context) error {
	ch, unsub := r.bus.Subscribe(32)
	defer unsub()
	r.catchUp()

	r.notify(daemon.SdNotifyReady)
	r.pushStatus()

	refresh := r.clock.NewTicker(r.refresh)
	defer refresh.Stop()

	var ping <-chan time.Time
	if r.watchdog > 0 {
		t := r.clock.NewTicker(r.watchdog / 2)
		defer t.Stop()
		ping = t.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			r.notify(daemon.SdNotifyStopping)
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ev)
			r.pushStatus()
		case <-refresh.Chan():
			r.pushStatus()
		case <-ping:
			r.notify(daemon.SdNotifyWatchdog)
		}
	}
}

// catchUp replays what was published before Run subscribed, such as the
// schedule an autostart began. Anything newer is already queued on the
// subscription and is handled after it.
func (r *Reporter) catchUp() {
	for _, typ := range []string{eventbus.TypeSchedulerState, eventbus.TypePlaybackFinished} {
		if ev, ok := r.bus.Last(typ); ok {
			r.handle(ev)
		}
	}
}

func (r *Reporter) handle(ev eventbus.Event) {
	switch d := ev.Data.(type) {
	case eventbus.SchedulerState:
		r.mu.Lock()
		prev := r.state
		r.state = d
		r.mu.Unlock()

		switch {
		case d.Running && !d.NextFireAt.IsZero():
			r.log.Info("next playback",
				logx.Time("at", d.NextFireAt),
				logx.String("in", humanize.RelTime(d.NextFireAt, r.clock.Now(), "ago", "from now")),
			)
		case !d.Running && prev.Running:
			r.log.Info("schedule idle")
		}
	case eventbus.PlaybackFinished:
		r.mu.Lock()
		r.last = &d
		r.mu.Unlock()
		r.log.Debug("playback recorded", logx.String("run_id", d.RunID), logx.String("outcome", outcome(d)))
	}
}

// Line is the one-line status, e.g. "running, next playback in 12:34".
func (r *Reporter) Line() string {
	r.mu.Lock()
	state, last := r.state, r.last
	r.mu.Unlock()

	var line string
	switch {
	case !state.Running:
		line = "idle"
	case state.NextFireAt.IsZero():
		line = "running"
	default:
		line = "running, next playback in " + FormatCountdown(state.NextFireAt.Sub(r.clock.Now()))
	}
	if last != nil {
		line += fmt.Sprintf(" (last %s: %s)", last.Trigger, outcome(*last))
	}
	return line
}

func (r *Reporter) pushStatus() {
	line := r.Line()
	r.mu.Lock()
	same := line == r.lastLine
	r.lastLine = line
	r.mu.Unlock()
	if !same {
		r.notify("STATUS=" + line)
	}
}

func (r *Reporter) notify(state string) {
	if r.notifier == nil {
		return
	}
	if _, err := r.notifier.Notify(state); err != nil {
		r.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
	}
}

func outcome(p eventbus.PlaybackFinished) string {
	switch {
	case p.Err != "":
		return "failed"
	case p.Skipped:
		return "no videos"
	default:
		return english.Plural(p.Files, "video", "")
	}
}
