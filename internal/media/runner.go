package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ErrPlayerNotFound is returned when the player executable cannot be started.
var ErrPlayerNotFound = errors.New("player executable not found")

// Runner starts the player and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type RunnerFunc func(ctx context.Context, name string, args ...string) error

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

// ExecRunner runs the player as a child process. Cancelling ctx kills it.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player exited with code %d: %w", ee.ExitCode(), err)
	}
	return fmt.Errorf("run player: %w", err)
}
