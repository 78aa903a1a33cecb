package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedSource(d time.Duration) ConfigSource {
	return func() Config { return Config{Interval: d, Directory: "/videos", PlayerPath: "vlc"} }
}

func observer() (Observer, chan Status) {
	ch := make(chan Status, 64)
	return func(s Status) { ch <- s }, ch
}

func nextStatus(t *testing.T, ch <-chan Status) Status {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no observer notification")
		return Status{}
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func closeOnCleanup(t *testing.T, s *Scheduler) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Close(ctx))
	})
}

// countingAction reports every call on calls and returns skipped.
func countingAction() (Action, *atomic.Int32, chan struct{}) {
	var n atomic.Int32
	calls := make(chan struct{}, 16)
	return ActionFunc(func(context.Context, string, string) (Result, error) {
		n.Add(1)
		calls <- struct{}{}
		return Result{Skipped: true}, nil
	}), &n, calls
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("action not invoked")
	}
}

func TestStartEstimateWithinInterval(t *testing.T) {
	t.Parallel()
	now := base.Add(300 * time.Millisecond)
	for _, iv := range []time.Duration{time.Second, 2 * time.Second, 90 * time.Second, 40 * time.Minute} {
		fc := clockwork.NewFakeClockAt(now)
		action, _, _ := countingAction()
		s := New(fixedSource(iv), action, nil, WithClock(fc))
		closeOnCleanup(t, s)

		s.Start()
		est, ok := s.Estimate()
		require.True(t, ok, "interval %s", iv)
		assert.False(t, est.Before(now), "interval %s: estimate %s before now", iv, est)
		assert.False(t, est.After(now.Add(iv)), "interval %s: estimate %s past now+interval", iv, est)
	}
}

func TestFireTimeDropsSubSecond(t *testing.T) {
	t.Parallel()
	now := base.Add(700 * time.Millisecond)
	fc := clockwork.NewFakeClockAt(now)
	action, _, _ := countingAction()
	s := New(fixedSource(time.Minute), action, nil, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	est, ok := s.Estimate()
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Minute), est, "up to a second earlier than now+interval")
	assert.True(t, now.Add(time.Minute).Sub(est) < time.Second)
}

func TestIntervalCoercedToOneSecond(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	action, _, _ := countingAction()
	s := New(fixedSource(0), action, nil, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	est, ok := s.Estimate()
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Second), est)
}

func TestStartNotifiesBeforeReturning(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	action, _, _ := countingAction()
	s := New(fixedSource(time.Minute), action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	select {
	case st := <-ch:
		assert.Equal(t, Running, st.State)
		assert.Equal(t, base.Add(time.Minute), st.NextFireAt)
	default:
		t.Fatal("Start returned without notifying")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	action, plays, _ := countingAction()
	s := New(fixedSource(time.Second), action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Stop()
	assert.Equal(t, Status{State: Idle}, nextStatus(t, ch))

	s.Start()
	assert.Equal(t, Running, nextStatus(t, ch).State)

	s.Stop()
	s.Stop()
	assert.Equal(t, Status{State: Idle}, nextStatus(t, ch))
	assert.Equal(t, Status{State: Idle}, nextStatus(t, ch))
	_, ok := s.Estimate()
	assert.False(t, ok)

	fc.Advance(5 * time.Second)
	assert.Never(t, func() bool { return plays.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	action, plays, calls := countingAction()
	s := New(fixedSource(time.Second), action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	est, _ := s.Estimate()
	s.Start()
	s.Start()
	again, _ := s.Estimate()
	assert.Equal(t, est, again)
	assert.Len(t, ch, 1, "repeated Start must not notify")

	require.NoError(t, fc.BlockUntilContext(testCtx(t), 1))
	fc.Advance(time.Second)
	waitCall(t, calls)
	assert.Never(t, func() bool { return plays.Load() > 1 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestTwoSecondScenario(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	action, plays, _ := countingAction()
	s := New(fixedSource(2*time.Second), action, obs, WithClock(fc))
	closeOnCleanup(t, s)
	ctx := testCtx(t)

	s.Start()
	assert.Equal(t, Status{State: Running, NextFireAt: base.Add(2 * time.Second)}, nextStatus(t, ch))

	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(2 * time.Second)
	assert.Equal(t, Status{State: Running, NextFireAt: base.Add(4 * time.Second)}, nextStatus(t, ch))
	assert.EqualValues(t, 1, plays.Load())

	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)
	s.Stop()
	assert.Equal(t, Status{State: Idle}, nextStatus(t, ch))

	fc.Advance(2 * time.Second)
	assert.Never(t, func() bool { return plays.Load() > 1 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestPlayNowKeepsSchedule(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	action, _, calls := countingAction()
	s := New(fixedSource(time.Minute), action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	nextStatus(t, ch)
	before, _ := s.Estimate()

	s.PlayNow()
	waitCall(t, calls)

	after, ok := s.Estimate()
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, Running, s.Status().State)
	assert.Never(t, func() bool { return len(ch) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestPlayNowWhileIdle(t *testing.T) {
	t.Parallel()
	var runs []Run
	var mu sync.Mutex
	action, _, calls := countingAction()
	s := New(fixedSource(time.Minute), action, nil,
		WithClock(clockwork.NewFakeClockAt(base)),
		WithRecorder(func(r Run) {
			mu.Lock()
			runs = append(runs, r)
			mu.Unlock()
		}),
	)
	closeOnCleanup(t, s)

	s.PlayNow()
	waitCall(t, calls)
	assert.Equal(t, Status{State: Idle}, s.Status())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(runs) == 1
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, TriggerManual, runs[0].Trigger)
	assert.NotEmpty(t, runs[0].ID)
	assert.True(t, runs[0].Result.Skipped)
}

func TestIntervalChangeAppliesToNextCycle(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	var interval atomic.Int64
	interval.Store(int64(time.Minute))
	source := func() Config { return Config{Interval: time.Duration(interval.Load()), Directory: "/videos"} }
	action, plays, _ := countingAction()
	s := New(source, action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	assert.Equal(t, base.Add(time.Minute), nextStatus(t, ch).NextFireAt)
	require.NoError(t, fc.BlockUntilContext(testCtx(t), 1))

	interval.Store(int64(5 * time.Second))
	fc.Advance(5 * time.Second)
	assert.Never(t, func() bool { return plays.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)

	fc.Advance(55 * time.Second)
	assert.Equal(t, Status{State: Running, NextFireAt: base.Add(65 * time.Second)}, nextStatus(t, ch))
	assert.EqualValues(t, 1, plays.Load())
}

func TestPlaybackFailuresKeepLoopAlive(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	var n atomic.Int32
	action := ActionFunc(func(context.Context, string, string) (Result, error) {
		switch n.Add(1) {
		case 1:
			return Result{}, errors.New("player crashed")
		case 2:
			panic("boom")
		default:
			return Result{Files: 2}, nil
		}
	})
	var mu sync.Mutex
	var runs []Run
	s := New(fixedSource(time.Second), action, obs, WithClock(fc), WithRecorder(func(r Run) {
		mu.Lock()
		runs = append(runs, r)
		mu.Unlock()
	}))
	closeOnCleanup(t, s)
	ctx := testCtx(t)

	s.Start()
	nextStatus(t, ch)
	for i := 1; i <= 3; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(time.Second)
		st := nextStatus(t, ch)
		assert.Equal(t, Running, st.State)
		assert.Equal(t, base.Add(time.Duration(i+1)*time.Second), st.NextFireAt)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, runs, 3)
	assert.EqualError(t, runs[0].Err, "player crashed")
	assert.ErrorContains(t, runs[1].Err, "boom")
	assert.NoError(t, runs[2].Err)
	assert.Equal(t, 2, runs[2].Result.Files)
	assert.Equal(t, TriggerSchedule, runs[2].Trigger)
}

func TestSourcePanicRevertsToIdle(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClockAt(base)
	obs, ch := observer()
	var n atomic.Int32
	source := func() Config {
		if n.Add(1) == 2 {
			panic("config store gone")
		}
		return Config{Interval: time.Second}
	}
	action, plays, _ := countingAction()
	s := New(source, action, obs, WithClock(fc))
	closeOnCleanup(t, s)

	s.Start()
	assert.Equal(t, Running, nextStatus(t, ch).State)
	require.NoError(t, fc.BlockUntilContext(testCtx(t), 1))
	fc.Advance(time.Second)

	assert.Equal(t, Status{State: Idle}, nextStatus(t, ch))
	assert.EqualValues(t, 0, plays.Load())
	assert.False(t, s.Running())

	s.Start()
	assert.Equal(t, Running, nextStatus(t, ch).State)
}

func TestCloseCancelsInFlightPlayback(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	var cancelled atomic.Bool
	action := ActionFunc(func(ctx context.Context, _, _ string) (Result, error) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return Result{}, ctx.Err()
	})
	s := New(fixedSource(time.Minute), action, nil, WithClock(clockwork.NewFakeClockAt(base)))

	s.PlayNow()
	<-started
	require.NoError(t, s.Close(testCtx(t)))
	assert.True(t, cancelled.Load())

	// Closed schedulers ignore further requests.
	s.Start()
	s.PlayNow()
	assert.False(t, s.Running())
}

func TestSpawnerOwnsGoroutines(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var names []string
	sp := SpawnerFunc(func(name string, fn func()) {
		mu.Lock()
		names = append(names, name)
		mu.Unlock()
		go fn()
	})
	action, _, calls := countingAction()
	s := New(fixedSource(time.Minute), action, nil, WithClock(clockwork.NewFakeClockAt(base)), WithSpawner(sp))
	closeOnCleanup(t, s)

	s.Start()
	s.PlayNow()
	waitCall(t, calls)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"scheduler.loop", "scheduler.play_now"}, names)
}
