package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"videobreak/internal/config"
	"videobreak/internal/control"
	"videobreak/internal/eventbus"
	"videobreak/internal/media"
	"videobreak/internal/runtime/supervisor"
	"videobreak/internal/scheduler"
	"videobreak/internal/status"
	"videobreak/internal/storage"
	logx "videobreak/pkg/logx"
)

// ErrNotStarted is returned by schedule operations before Start.
var ErrNotStarted = errors.New("app not started")

type App struct {
	cfgPath string

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger // comp=app
	root  logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	clock    clockwork.Clock
	player   *media.Player
	sched    *scheduler.Scheduler
	ctl      *control.Controller
	notifier status.Notifier
}

type Option func(*App)

// WithRunner replaces the process runner used to start the player.
func WithRunner(r media.Runner) Option {
	return func(a *App) { a.player = media.NewPlayer(afero.NewOsFs(), r, MediaOptions(a.cfgm.Get()), a.root) }
}

func WithClock(c clockwork.Clock) Option { return func(a *App) { a.clock = c } }

// WithNotifier replaces the sd_notify sink. Only used when systemd.notify is on.
func WithNotifier(n status.Notifier) Option { return func(a *App) { a.notifier = n } }

// New loads the config (a missing file means defaults), sets up logging and
// opens the history store. Nothing runs until Start.
func New(cfgPath string, opts ...Option) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.LoadOrDefault()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(LogConfig(cfg))
	appLog := log.With(logx.Component("app"))

	var store storage.Store
	if sc, enabled, err := StorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log)
		if err != nil {
			return nil, err
		}
		store = st
		appLog.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	a := &App{
		cfgPath:  cfgPath,
		cfgm:     cfgm,
		log:      appLog,
		root:     log,
		logs:     logSvc,
		store:    store,
		clock:    clockwork.NewRealClock(),
		notifier: status.SdNotifier{},
	}
	a.player = media.NewPlayer(afero.NewOsFs(), media.ExecRunner{}, MediaOptions(cfg), log)
	for _, o := range opts {
		o(a)
	}
	a.bus = eventbus.New(eventbus.WithClock(a.clock))
	a.ctl = control.New(a, log, cfg.Control.PlayNowPerMinute, cfg.Control.PlayNowBurst)
	return a, nil
}

func (a *App) Config() *config.Config { return a.cfgm.Get() }

func (a *App) Bus() eventbus.Bus { return a.bus }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.root), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.root.With(logx.Component("config")))

	cfg := a.cfgm.Get()
	a.sched = scheduler.New(
		func() scheduler.Config { return ScheduleConfig(a.cfgm.Get()) },
		a.player,
		a.observe,
		scheduler.WithClock(a.clock),
		scheduler.WithLogger(a.root),
		scheduler.WithContext(a.sup.Context()),
		scheduler.WithSpawner(scheduler.SpawnerFunc(a.sup.Spawn)),
		scheduler.WithRecorder(a.record),
	)

	a.startReporter(cfg)
	if cfg.Control.Signals {
		a.sup.Go("control.signals", a.ctl.Run)
	}

	// Keep this debug-level; the reporter logs the interesting transitions.
	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	a.startConfigReload()
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if cfg.Scheduler.AutoStart {
		if err := a.StartSchedule(); err != nil {
			a.log.Warn("autostart skipped", logx.Err(err))
		}
	}

	a.log.Info("app started",
		logx.String("config", a.cfgPath),
		logx.String("video_folder", cfg.Playback.VideoFolder),
		logx.Duration("interval", cfg.Scheduler.EffectiveInterval()),
	)
	return nil
}

func (a *App) startReporter(cfg *config.Config) {
	opts := []status.Option{status.WithClock(a.clock)}
	if cfg.Systemd.Notify {
		opts = append(opts, status.WithNotifier(a.notifier))
		if wd, err := status.WatchdogInterval(); err != nil {
			a.log.Warn("systemd watchdog check failed", logx.Err(err))
		} else if wd > 0 {
			opts = append(opts, status.WithWatchdog(wd))
		}
	} else {
		opts = append(opts, status.WithNotifier(nil))
	}
	r := status.NewReporter(a.bus, a.root, opts...)
	a.sup.GoRestart("status.reporter", r.Run,
		supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		supervisor.WithMaxRestarts(5),
	)
}

func (a *App) observe(st scheduler.Status) {
	a.bus.Publish(eventbus.StateEvent(a.clock.Now(), eventbus.SchedulerState{
		Running:    st.State == scheduler.Running,
		NextFireAt: st.NextFireAt,
	}))
}

func (a *App) record(r scheduler.Run) {
	ev := eventbus.PlaybackFinished{
		RunID:   r.ID,
		Trigger: string(r.Trigger),
		Files:   r.Result.Files,
		Skipped: r.Result.Skipped,
		Took:    r.Took,
	}
	if r.Err != nil {
		ev.Err = r.Err.Error()
	}
	a.bus.Publish(eventbus.PlaybackEvent(a.clock.Now(), ev))

	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.store.AppendRun(ctx, runRecord(r)); err != nil {
		a.log.Warn("history append failed", logx.String("run_id", r.ID), logx.Err(err))
	}
}

// StartSchedule checks that playback can work, then starts the recurring
// schedule. It is a no-op when already running.
func (a *App) StartSchedule() error {
	if a.sched == nil {
		return ErrNotStarted
	}
	if err := config.ValidatePlayback(a.cfgm.Get()); err != nil {
		return err
	}
	a.sched.Start()
	return nil
}

func (a *App) StopSchedule() error {
	if a.sched == nil {
		return ErrNotStarted
	}
	a.sched.Stop()
	return nil
}

// Toggle starts the schedule when idle and stops it when running.
func (a *App) Toggle() error {
	if a.sched == nil {
		return ErrNotStarted
	}
	if a.sched.Running() {
		return a.StopSchedule()
	}
	return a.StartSchedule()
}

// PlayNow starts one playback in the background. The schedule is untouched.
func (a *App) PlayNow() error {
	if a.sched == nil {
		return ErrNotStarted
	}
	if err := config.ValidatePlayback(a.cfgm.Get()); err != nil {
		return err
	}
	a.sched.PlayNow()
	return nil
}

// Reload re-reads the config file. An invalid file is rejected and the
// running config is kept.
func (a *App) Reload(ctx context.Context) error {
	changed, err := a.cfgm.Reload(ctx)
	if err != nil {
		return err
	}
	if !changed {
		a.log.Info("config unchanged")
	}
	return nil
}

// Status reports the scheduler state; Idle before Start.
func (a *App) Status() scheduler.Status {
	if a.sched == nil {
		return scheduler.Status{State: scheduler.Idle}
	}
	return a.sched.Status()
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeStore()
		a.logs.Close()
		return nil
	}
	a.log.Info("stopping",
		logx.String("reason", string(reason)),
		logx.Int64("goroutines", a.sup.Counters().Active),
	)

	// Scheduler first so in-flight playbacks are cancelled before the
	// supervisor waits for them.
	a.step(ctx, "scheduler", 3*time.Second, func(c context.Context) error { return a.sched.Close(c) })
	a.step(ctx, "supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Stop(c) })
	a.step(ctx, "storage", time.Second, func(context.Context) error { return a.closeStore() })

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// step runs one shutdown step with an upper bound so one component can't stall
// the whole stop.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	// respect the caller's deadline; never extend it
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < max {
			max = rem
		}
	}
	if max <= 0 {
		a.log.Warn("stop step skipped: deadline reached", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}

func restartRequired(sections []string) []string {
	var out []string
	for _, s := range sections {
		switch s {
		case "storage", "systemd":
			out = append(out, s)
		}
	}
	return out
}

func joinSections(s []string) string { return strings.Join(s, ",") }
