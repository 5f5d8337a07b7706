// Package transport connects shells to byte streams: the local terminal, SSH
// sessions and WebSocket clients.
package transport

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Conn is one client as a shell sees it.
type Conn struct {
	ID        string
	Transport string
	Remote    string
	User      string
	Started   time.Time

	Source *ReaderSource
	Sink   *bufio.Writer
}

// ServeFunc runs a shell session on c until it ends.
type ServeFunc func(ctx context.Context, c *Conn) error

func NewConn(transport, remote string, r io.Reader, w io.Writer) *Conn {
	return &Conn{
		ID:        uuid.NewString(),
		Transport: transport,
		Remote:    remote,
		Started:   time.Now(),
		Source:    NewReaderSource(&hangupReader{r: r}),
		Sink:      bufio.NewWriter(w),
	}
}

// Yield is a shell Yield func for c: it pushes pending output to the client
// and then sleeps until input arrives, ctx is done or poll passes.
func (c *Conn) Yield(ctx context.Context, poll time.Duration) func() {
	return func() {
		_ = c.Sink.Flush()
		c.Source.Wait(ctx, poll)
	}
}

func (c *Conn) Close() {
	_ = c.Sink.Flush()
	c.Source.Close()
}
