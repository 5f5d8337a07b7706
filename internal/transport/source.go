package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

const (
	sourceBuffer = 4096
	readChunk    = 512
)

// ReaderSource turns a blocking io.Reader into a shell.ByteSource. A
// goroutine pumps the reader into a bounded queue; the shell polls it. It is
// meant for exactly one consumer.
type ReaderSource struct {
	ch   chan byte
	stop chan struct{}

	peeked    byte
	hasPeeked bool

	once        sync.Once
	exhausted   chan struct{}
	onExhausted func()
	err         error
}

func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{
		ch:        make(chan byte, sourceBuffer),
		stop:      make(chan struct{}),
		exhausted: make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *ReaderSource) pump(r io.Reader) {
	defer close(s.ch)

	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		for _, c := range buf[:n] {
			select {
			case s.ch <- c:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return
		}
	}
}

// TryRead never blocks.
func (s *ReaderSource) TryRead() (byte, bool) {
	if s.hasPeeked {
		s.hasPeeked = false
		return s.peeked, true
	}

	select {
	case c, ok := <-s.ch:
		if !ok {
			s.exhaust()
			return 0, false
		}
		return c, true
	default:
		return 0, false
	}
}

// Wait blocks until a byte is ready, the source runs dry, ctx is done or d
// passes, whichever comes first.
func (s *ReaderSource) Wait(ctx context.Context, d time.Duration) {
	if s.hasPeeked {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case c, ok := <-s.ch:
		if !ok {
			s.exhaust()
			return
		}
		s.peeked, s.hasPeeked = c, true
	case <-s.exhausted:
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *ReaderSource) exhaust() {
	s.once.Do(func() {
		close(s.exhausted)
		if s.onExhausted != nil {
			s.onExhausted()
		}
	})
}

// Exhausted is closed once the reader has ended and every byte it produced
// has been consumed.
func (s *ReaderSource) Exhausted() <-chan struct{} {
	return s.exhausted
}

// Err returns the read error that ended the source, nil for a clean EOF. It
// is only meaningful after Exhausted is closed.
func (s *ReaderSource) Err() error {
	select {
	case <-s.exhausted:
		return s.err
	default:
		return nil
	}
}

// Close stops the pump. The underlying reader is not closed.
func (s *ReaderSource) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}
