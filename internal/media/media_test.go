package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videobreak/internal/scheduler"
	logx "videobreak/pkg/logx"
)

type call struct {
	name     string
	args     []string
	playlist string
}

// fakeRunner records invocations along with the playlist content at the time
// the player would have read it.
type fakeRunner struct {
	fs  afero.Fs
	err error

	mu    sync.Mutex
	calls []call
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	body, _ := afero.ReadFile(r.fs, args[len(args)-1])
	r.mu.Lock()
	r.calls = append(r.calls, call{name: name, args: args, playlist: string(body)})
	r.mu.Unlock()
	return r.err
}

func (r *fakeRunner) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func touch(t *testing.T, fs afero.Fs, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fs, n, []byte("x"), 0o644))
	}
}

func TestLibraryListFiltersAndSorts(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	dir := "/videos"
	touch(t, fs,
		filepath.Join(dir, "b.MKV"),
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "c.m4v"),
		filepath.Join(dir, "nested", "d.mp4"),
	)

	got, err := NewLibrary(fs, nil).List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "b.MKV"),
		filepath.Join(dir, "c.m4v"),
	}, got)

	got, err = NewLibrary(fs, []string{"TXT"}).List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, got)
}

func TestLibraryListMissingDir(t *testing.T) {
	t.Parallel()
	got, err := NewLibrary(afero.NewMemMapFs(), nil).List("/nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnsureFolderWritesHintOnce(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	lib := NewLibrary(fs, nil)
	require.NoError(t, lib.EnsureFolder("/videos"))

	hint := filepath.Join("/videos", HintFileName)
	body, err := afero.ReadFile(fs, hint)
	require.NoError(t, err)
	assert.Contains(t, string(body), ".mp4")

	require.NoError(t, afero.WriteFile(fs, hint, []byte("edited"), 0o644))
	require.NoError(t, lib.EnsureFolder("/videos"))
	body, _ = afero.ReadFile(fs, hint)
	assert.Equal(t, "edited", string(body))

	assert.Error(t, lib.EnsureFolder(" "))
}

func TestWritePlaylist(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	p, err := WritePlaylist(fs, "/data", []string{"/v/a.mp4", "/v/b.mkv"})
	require.NoError(t, err)
	assert.Equal(t, ".m3u", filepath.Ext(p))
	body, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	assert.Equal(t, "/v/a.mp4\n/v/b.mkv\n", string(body))
}

func TestPlayerPlaysPlaylist(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	touch(t, fs, "/videos/2.mp4", "/videos/1.avi")
	runner := &fakeRunner{fs: fs}
	p := NewPlayer(fs, runner, Options{PlaylistDir: "/data"}, logx.Nop())

	res, err := p.Play(context.Background(), "/videos", "/usr/bin/vlc")
	require.NoError(t, err)
	assert.Equal(t, scheduler.Result{Files: 2}, res)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/usr/bin/vlc", calls[0].name)
	require.Len(t, calls[0].args, 3)
	assert.Equal(t, []string{"--fullscreen", "--play-and-exit"}, calls[0].args[:2])
	assert.Equal(t, "/videos/1.avi\n/videos/2.mp4\n", calls[0].playlist)

	left, _ := afero.ReadDir(fs, "/data")
	assert.Empty(t, left, "playlist is removed after playback")
}

func TestPlayerEmptyFolderSkips(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	runner := &fakeRunner{fs: fs}
	p := NewPlayer(fs, runner, Options{PlaylistDir: "/data"}, logx.Nop())

	res, err := p.Play(context.Background(), "/videos", "vlc")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, runner.Calls())

	ok, _ := afero.Exists(fs, filepath.Join("/videos", HintFileName))
	assert.True(t, ok, "folder created with hint")
}

func TestPlayerReportsRunnerError(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	touch(t, fs, "/videos/a.mp4")
	runner := &fakeRunner{fs: fs, err: ErrPlayerNotFound}
	p := NewPlayer(fs, runner, Options{PlaylistDir: "/data"}, logx.Nop())

	res, err := p.Play(context.Background(), "/videos", "vlc")
	require.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Equal(t, 1, res.Files)
}

func TestPlayerOptionsSwap(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	touch(t, fs, "/videos/a.webm", "/videos/b.mp4")
	runner := &fakeRunner{fs: fs}
	p := NewPlayer(fs, runner, Options{PlaylistDir: "/data"}, logx.Nop())

	p.SetOptions(Options{Args: []string{"--fs"}, Extensions: []string{".webm"}, PlaylistDir: "/data"})
	_, err := p.Play(context.Background(), "/videos", "mpv")
	require.NoError(t, err)
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "--fs", calls[0].args[0])
	assert.Equal(t, "/videos/a.webm\n", calls[0].playlist)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	t.Parallel()
	err := ExecRunner{}.Run(context.Background(), filepath.Join(t.TempDir(), "no-such-player"))
	require.True(t, errors.Is(err, ErrPlayerNotFound), "got %v", err)
}

// An empty folder must not start the player, yet the schedule carries on.
func TestScheduledCycleWithEmptyFolder(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	runner := &fakeRunner{fs: fs}
	player := NewPlayer(fs, runner, Options{PlaylistDir: "/data"}, logx.Nop())

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(start)
	states := make(chan scheduler.Status, 16)
	runs := make(chan scheduler.Run, 16)
	source := func() scheduler.Config {
		return scheduler.Config{Interval: 2 * time.Second, Directory: "/videos", PlayerPath: "vlc"}
	}
	s := scheduler.New(source, player, func(st scheduler.Status) { states <- st },
		scheduler.WithClock(fc),
		scheduler.WithRecorder(func(r scheduler.Run) { runs <- r }),
	)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	s.Start()
	<-states
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(2 * time.Second)

	select {
	case r := <-runs:
		assert.True(t, r.Result.Skipped)
		assert.NoError(t, r.Err)
	case <-ctx.Done():
		t.Fatal("cycle did not fire")
	}
	select {
	case st := <-states:
		assert.Equal(t, scheduler.Running, st.State)
		assert.Equal(t, start.Add(4*time.Second), st.NextFireAt)
	case <-ctx.Done():
		t.Fatal("next cycle not scheduled")
	}
	assert.Empty(t, runner.Calls())
}

func TestPlayerRelativeFolderYieldsAbsolutePlaylist(t *testing.T) {
	root := t.TempDir()
	// t.Chdir needs Go 1.24; restore the working directory by hand.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	fs := afero.NewOsFs()
	require.NoError(t, fs.MkdirAll("videos", 0o755))
	touch(t, fs, filepath.Join("videos", "a.mp4"))

	runner := &fakeRunner{fs: fs}
	p := NewPlayer(fs, runner, Options{PlaylistDir: filepath.Join(root, "data")}, logx.Nop())

	res, err := p.Play(context.Background(), "videos", "vlc")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	// TempDir may sit behind a symlink; compare against what Abs resolves.
	want, err := filepath.Abs(filepath.Join("videos", "a.mp4"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(want))
	assert.Equal(t, want+"\n", calls[0].playlist)

	files, err := p.Videos("videos")
	require.NoError(t, err)
	assert.Equal(t, []string{want}, files)
}
