package transport

import (
	"context"
	"os"

	"golang.org/x/term"
)

// Console runs one session on the process terminal. When stdin is a terminal
// it is switched to raw mode for the duration, so every key reaches the line
// editor unbuffered and unechoed.
func Console(ctx context.Context, serve ServeFunc) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, oldState)
	}

	c := NewConn("console", "", os.Stdin, os.Stdout)
	defer c.Close()

	return serve(ctx, c)
}
