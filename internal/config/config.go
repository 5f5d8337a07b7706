package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/Neev4n/linecli/pkg/shell"
)

var (
	ErrLineEnd = errors.New("config: unknown line end")
	ErrHistory = errors.New("config: unknown history mode")
)

type Settings struct {
	// Engine
	LineEnd         string        `envconfig:"LINE_END" default:"cr"`
	GuestPrompt     string        `envconfig:"GUEST_PROMPT" default:"guest> "`
	BufferSize      int           `envconfig:"BUFFER_SIZE" default:"64"`
	History         string        `envconfig:"HISTORY" default:"both"`
	Autocomplete    bool          `envconfig:"AUTOCOMPLETE" default:"true"`
	UserManagement  bool          `envconfig:"USER_MANAGEMENT" default:"true"`
	ArgumentParsing bool          `envconfig:"ARGUMENT_PARSING" default:"true"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"5m"`
	TickInterval    time.Duration `envconfig:"TICK_INTERVAL" default:"20ms"`
	UsersFile       string        `envconfig:"USERS_FILE" default:""`

	// Transports
	SSHAddr     string `envconfig:"SSH_ADDR" default:":2222"`
	HostKeyFile string `envconfig:"HOST_KEY_FILE" default:"./linecli_host_key"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxSessions int    `envconfig:"MAX_SESSIONS" default:"64"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads Settings from LINECLI_* environment variables.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process("LINECLI", &s); err != nil {
		return Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	return s, nil
}

// LineEndByte maps the LINE_END setting ("cr", "lf" or a single character).
func (s Settings) LineEndByte() (byte, error) {
	switch strings.ToLower(s.LineEnd) {
	case "cr", `\r`:
		return '\r', nil
	case "lf", `\n`:
		return '\n', nil
	}
	if len(s.LineEnd) == 1 {
		return s.LineEnd[0], nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLineEnd, s.LineEnd)
}

func (s Settings) HistoryMode() (shell.HistoryMode, error) {
	switch strings.ToLower(s.History) {
	case "off", "":
		return shell.HistoryOff, nil
	case "enter":
		return shell.HistoryOnEnter, nil
	case "arrow":
		return shell.HistoryUpArrow, nil
	case "both":
		return shell.HistoryBoth, nil
	}
	return shell.HistoryOff, fmt.Errorf("%w: %q", ErrHistory, s.History)
}

func (s Settings) Features() (shell.Features, error) {
	history, err := s.HistoryMode()
	if err != nil {
		return shell.Features{}, err
	}

	return shell.Features{
		History:         history,
		Autocomplete:    s.Autocomplete,
		UserManagement:  s.UserManagement,
		ArgumentParsing: s.ArgumentParsing,
		IdleTimeout:     s.IdleTimeout,
	}, nil
}

// Logger builds the process logger. LogFormat "json" writes raw JSON lines,
// anything else a human readable console format.
func (s Settings) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("config: log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	if s.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
