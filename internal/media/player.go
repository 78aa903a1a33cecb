package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"videobreak/internal/scheduler"
	logx "videobreak/pkg/logx"
)

// DefaultPlayerArgs go before the playlist path.
var DefaultPlayerArgs = []string{"--fullscreen", "--play-and-exit"}

// Options can be swapped at runtime with SetOptions.
type Options struct {
	Args       []string
	Extensions []string
	// PlaylistDir holds temporary playlists; empty means the OS temp dir.
	PlaylistDir string
}

// Player is the playback action: discover videos, write a playlist, run the
// player until it exits.
type Player struct {
	fs     afero.Fs
	runner Runner
	log    logx.Logger
	opts   atomic.Pointer[Options]
}

var _ scheduler.Action = (*Player)(nil)

func NewPlayer(fsys afero.Fs, runner Runner, opts Options, log logx.Logger) *Player {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	p := &Player{fs: fsys, runner: runner, log: log.With(logx.Component("media"))}
	p.SetOptions(opts)
	return p
}

func (p *Player) SetOptions(o Options) {
	o.Args = slices.Clone(o.Args)
	if o.Args == nil {
		o.Args = slices.Clone(DefaultPlayerArgs)
	}
	o.Extensions = slices.Clone(o.Extensions)
	if o.PlaylistDir == "" {
		o.PlaylistDir = filepath.Join(os.TempDir(), "videobreak")
	}
	p.opts.Store(&o)
}

func (p *Player) Options() Options { return *p.opts.Load() }

func (p *Player) library() *Library {
	return NewLibrary(p.fs, p.opts.Load().Extensions)
}

// Videos lists what the next playback would play.
func (p *Player) Videos(dir string) ([]string, error) {
	return p.library().List(dir)
}

// Prepare ensures the folder exists and collects its videos. It returns a
// Request with no Files when there is nothing to play.
func (p *Player) Prepare(dir string) (Request, error) {
	dir, err := absDir(dir)
	if err != nil {
		return Request{}, err
	}
	lib := p.library()
	if err := lib.EnsureFolder(dir); err != nil {
		return Request{}, err
	}
	files, err := lib.List(dir)
	if err != nil {
		return Request{}, err
	}
	return Request{Directory: dir, Files: files}, nil
}

// Play runs one playback. An empty folder is reported as skipped and the
// player is not started.
func (p *Player) Play(ctx context.Context, dir, player string) (scheduler.Result, error) {
	req, err := p.Prepare(dir)
	if err != nil {
		return scheduler.Result{}, err
	}
	if len(req.Files) == 0 {
		return scheduler.Result{Skipped: true}, nil
	}
	if player == "" {
		return scheduler.Result{Files: len(req.Files)}, fmt.Errorf("%w: player path not set", ErrPlayerNotFound)
	}

	opts := p.opts.Load()
	req.Playlist, err = WritePlaylist(p.fs, opts.PlaylistDir, req.Files)
	if err != nil {
		return scheduler.Result{Files: len(req.Files)}, err
	}
	defer func() {
		if err := p.fs.Remove(req.Playlist); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
			p.log.Debug("playlist cleanup failed", logx.String("path", req.Playlist), logx.Err(err))
		}
	}()

	args := append(slices.Clone(opts.Args), req.Playlist)
	p.log.Info("starting player",
		logx.String("player", filepath.Base(player)),
		logx.Int("files", len(req.Files)),
		logx.String("playlist", req.Playlist),
	)
	start := time.Now()
	err = p.runner.Run(ctx, player, args...)
	p.log.Info("player finished", logx.Duration("took", time.Since(start)), logx.Err(err))
	return scheduler.Result{Files: len(req.Files)}, err
}
