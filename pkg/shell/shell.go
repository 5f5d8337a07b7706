package shell

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// exit error
var ErrExit = errors.New("exit")

var (
	ErrMissingAllocator = errors.New("shell: missing allocator")
	ErrMissingSource    = errors.New("shell: missing byte source")
	ErrMissingSink      = errors.New("shell: missing byte sink")
	ErrBufferSize       = errors.New("shell: line buffer too small")
)

const (
	DefaultBufferSize   = 32
	DefaultPollInterval = 10 * time.Millisecond

	// GuestName is the name of the user every session starts as.
	GuestName = "guest"
)

// HistoryMode selects how the previous command can be recalled.
type HistoryMode uint8

const (
	HistoryOff HistoryMode = 0
	// HistoryOnEnter recalls on enter at an empty prompt.
	HistoryOnEnter HistoryMode = 1
	// HistoryUpArrow recalls on the ESC x 'A' sequence.
	HistoryUpArrow HistoryMode = 2
	HistoryBoth                = HistoryOnEnter | HistoryUpArrow
)

// Features enumerates the optional capabilities of a Shell.
type Features struct {
	History         HistoryMode
	Autocomplete    bool
	UserManagement  bool
	ArgumentParsing bool
	// IdleTimeout logs a non-guest user out after this much inactivity.
	// Zero disables it.
	IdleTimeout time.Duration
}

// Hooks are optional observation points. Any of them may be nil.
type Hooks struct {
	OnDispatch    func(user, command string)
	OnSwitch      func(from, to string)
	OnAuthFailure func(user string)
	OnLogout      func(user string)
}

// Config is everything New needs. Alloc, Source and Sink are mandatory.
type Config struct {
	Alloc  func(n int) []byte
	Source ByteSource
	Sink   io.ByteWriter

	LineEnd     byte
	GuestPrompt string
	Features    Features

	// BufferSize is the line capacity including the terminator slot.
	BufferSize int

	// Yield is called between polls while waiting for interactive input.
	// When nil the shell sleeps PollInterval instead.
	Yield        func()
	PollInterval time.Duration

	Logger *zerolog.Logger
	Hooks  Hooks
}

// type Shell
type Shell struct {
	source   ByteSource
	sink     io.ByteWriter
	lineEnd  byte
	features Features
	hooks    Hooks
	log      zerolog.Logger

	yield        func()
	pollInterval time.Duration

	buf    []byte
	cursor int

	history    []byte
	historyLen int

	escAwaiting bool
	escSeen     int

	commands commandList
	users    []*User
	current  *User

	idle time.Duration
	args []string
}

// func New
func New(cfg Config) (*Shell, error) {
	if cfg.Alloc == nil {
		return nil, ErrMissingAllocator
	}
	if cfg.Source == nil {
		return nil, ErrMissingSource
	}
	if cfg.Sink == nil {
		return nil, ErrMissingSink
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	s := &Shell{
		source:       cfg.Source,
		sink:         cfg.Sink,
		lineEnd:      cfg.LineEnd,
		features:     cfg.Features,
		hooks:        cfg.Hooks,
		log:          zerolog.Nop(),
		yield:        cfg.Yield,
		pollInterval: cfg.PollInterval,
		buf:          cfg.Alloc(size),
		history:      cfg.Alloc(size),
	}

	if len(s.buf) < 2 || len(s.history) < len(s.buf) {
		return nil, ErrBufferSize
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}

	guest := &User{name: GuestName, prompt: cfg.GuestPrompt}
	s.users = []*User{guest}
	s.current = guest

	s.registerBuiltins()
	return s, nil
}

// Run drains every byte currently available from the source, dispatching
// completed lines, and advances the idle timer by elapsed. It never waits for
// input unless a command asks for it.
func (s *Shell) Run(ctx context.Context, elapsed time.Duration) error {
	s.checkIdle(elapsed)

	for {
		c, ok := s.source.TryRead()
		if !ok {
			return nil
		}
		s.idle = 0

		line, done := s.feed(c, false, false)
		if !done {
			continue
		}

		if err := s.dispatch(ctx, line); err != nil {
			return err
		}
		s.ShowPrompt()
	}
}

// RequestInput blocks until a full line has been typed and returns it. With
// mask set every typed byte is echoed as '*'. History recall and
// autocompletion are off while it waits.
func (s *Shell) RequestInput(ctx context.Context, mask bool) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if c, ok := s.source.TryRead(); ok {
			s.idle = 0
			if line, done := s.feed(c, mask, true); done {
				return line, nil
			}
			continue
		}

		s.wait(ctx)
	}
}

func (s *Shell) wait(ctx context.Context) {
	if s.yield != nil {
		s.yield()
		return
	}

	t := time.NewTimer(s.pollInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Shell) dispatch(ctx context.Context, line string) error {
	cmd, _ := s.Lookup(commandKey(line), false, 0)
	if cmd == nil {
		s.log.Debug().Str("line", line).Msg("no matching command")
		return nil
	}

	if s.features.History != HistoryOff {
		s.remember(line)
	}
	if s.features.ArgumentParsing {
		s.parseArgs(line)
	}

	s.log.Debug().Str("user", s.current.name).Str("command", cmd.name).Msg("dispatch")
	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(s.current.name, cmd.name)
	}

	if cmd.handler == nil {
		return nil
	}

	err := cmd.handler(ctx, s, line)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrExit),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	s.log.Warn().Err(err).Str("command", cmd.name).Msg("command failed")
	return nil
}

// ShowPrompt echoes the prompt of the current user.
func (s *Shell) ShowPrompt() {
	s.echo(s.current.prompt)
}

// Write sends p to the sink unchanged, so commands can print with fmt.Fprint.
func (s *Shell) Write(p []byte) (int, error) {
	for _, c := range p {
		s.writeByte(c)
	}
	return len(p), nil
}

func (s *Shell) echo(str string) {
	for i := 0; i < len(str); i++ {
		s.writeByte(str[i])
	}
}

// sink errors are not ours to handle
func (s *Shell) writeByte(c byte) {
	_ = s.sink.WriteByte(c)
}
