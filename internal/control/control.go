// Package control maps out-of-band requests (POSIX signals) onto the app.
package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	logx "videobreak/pkg/logx"
)

// ErrThrottled is returned when a manual playback arrives faster than the
// configured limit.
var ErrThrottled = errors.New("play now throttled")

type Command int

const (
	PlayNow Command = iota + 1
	Toggle
	Reload
)

func (c Command) String() string {
	switch c {
	case PlayNow:
		return "play_now"
	case Toggle:
		return "toggle"
	case Reload:
		return "reload"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// Handler is what commands act on.
type Handler interface {
	PlayNow() error
	Toggle() error
	Reload(ctx context.Context) error
}

type Controller struct {
	h       Handler
	log     logx.Logger
	limiter atomic.Pointer[rate.Limiter]

	// registered is called once signal delivery is set up.
	registered func()
}

// New builds a Controller. perMinute <= 0 disables throttling of PlayNow.
func New(h Handler, log logx.Logger, perMinute, burst int) *Controller {
	c := &Controller{h: h, log: log.With(logx.Component("control"))}
	c.SetLimit(perMinute, burst)
	return c
}

func (c *Controller) SetLimit(perMinute, burst int) {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	c.limiter.Store(rate.NewLimiter(limit, burst))
}

// Dispatch runs one command.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd {
	case PlayNow:
		if !c.limiter.Load().Allow() {
			return ErrThrottled
		}
		return c.h.PlayNow()
	case Toggle:
		return c.h.Toggle()
	case Reload:
		return c.h.Reload(ctx)
	default:
		return fmt.Errorf("unknown command %d", int(cmd))
	}
}

// Run translates signals into commands until ctx is done. On platforms without
// the control signals it only waits for ctx.
func (c *Controller) Run(ctx context.Context) error {
	if len(signalCommands) == 0 {
		c.log.Debug("signal control unavailable on this platform")
		if c.registered != nil {
			c.registered()
		}
		<-ctx.Done()
		return nil
	}

	sigs := make([]os.Signal, 0, len(signalCommands))
	for s := range signalCommands {
		sigs = append(sigs, s)
	}
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)
	if c.registered != nil {
		c.registered()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			cmd := signalCommands[sig]
			c.log.Info("control signal", logx.String("signal", sig.String()), logx.String("command", cmd.String()))
			if err := c.Dispatch(ctx, cmd); err != nil {
				c.log.Warn("control command failed", logx.String("command", cmd.String()), logx.Err(err))
			}
		}
	}
}
