package shell

import (
	"context"
)

// ByteSource is polled for input. TryRead never blocks; ok is false when no
// byte is available right now.
type ByteSource interface {
	TryRead() (c byte, ok bool)
}

// Handler runs a dispatched command. line is the full line as typed,
// arguments included.
type Handler func(ctx context.Context, s *Shell, line string) error

// SourceFunc adapts a function to ByteSource.
type SourceFunc func() (byte, bool)

func (f SourceFunc) TryRead() (byte, bool) {
	return f()
}

// SinkFunc adapts a function to io.ByteWriter.
type SinkFunc func(c byte)

func (f SinkFunc) WriteByte(c byte) error {
	f(c)
	return nil
}

// HeapAlloc is the stock allocator.
func HeapAlloc(n int) []byte {
	return make([]byte, n)
}
