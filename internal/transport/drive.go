package transport

import (
	"context"
	"errors"
	"time"

	"github.com/Neev4n/linecli/pkg/shell"
)

// Runner is the part of a shell Drive needs.
type Runner interface {
	Run(ctx context.Context, elapsed time.Duration) error
}

// Drive ticks r every tick until the session ends: the shell returns
// shell.ErrExit, the client hangs up, or ctx is done. Output is flushed after
// every tick. A clean end returns nil.
func Drive(ctx context.Context, r Runner, c *Conn, tick time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// a hang up must also release a command blocked on RequestInput
	c.Source.onExhausted = cancel

	last := time.Now()
	for {
		select {
		case <-c.Source.Exhausted():
			return c.Source.Err()
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		err := r.Run(ctx, now.Sub(last))
		last = now

		if ferr := c.Sink.Flush(); ferr != nil && err == nil {
			err = ferr
		}

		select {
		case <-c.Source.Exhausted():
			return c.Source.Err()
		default:
		}

		switch {
		case errors.Is(err, shell.ErrExit):
			return nil
		case err != nil:
			return err
		}

		c.Source.Wait(ctx, tick)
	}
}
