// Package session assembles a shell for every connection: engine settings,
// the command catalog, the users file and metrics hooks.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Neev4n/linecli/internal/commands"
	"github.com/Neev4n/linecli/internal/config"
	"github.com/Neev4n/linecli/internal/metrics"
	"github.com/Neev4n/linecli/internal/transport"
	"github.com/Neev4n/linecli/internal/users"
	"github.com/Neev4n/linecli/pkg/shell"
)

type Manager struct {
	settings config.Settings
	lineEnd  byte
	features shell.Features
	accounts []users.Entry
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewManager validates everything a session will need up front, so a bad
// users file fails at startup rather than on first connect. accounts and m
// may be nil.
func NewManager(s config.Settings, accounts *users.File, m *metrics.Metrics, log zerolog.Logger) (*Manager, error) {
	lineEnd, err := s.LineEndByte()
	if err != nil {
		return nil, err
	}
	features, err := s.Features()
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		settings: s,
		lineEnd:  lineEnd,
		features: features,
		metrics:  m,
		log:      log,
	}

	if accounts != nil {
		catalog := commands.NewCatalog(commands.Env{})
		for _, e := range accounts.Users {
			for _, name := range e.Commands {
				if _, err := catalog.Get(name); err != nil {
					return nil, fmt.Errorf("user %s: %w", e.Name, err)
				}
			}
		}
		mgr.accounts = accounts.Users
	}

	return mgr, nil
}

// NewShell builds the shell for c. ctx bounds its interactive reads.
func (m *Manager) NewShell(ctx context.Context, c *transport.Conn) (*shell.Shell, error) {
	log := m.log.With().
		Str("session", c.ID).
		Str("transport", c.Transport).
		Logger()

	var hooks shell.Hooks
	if m.metrics != nil {
		hooks = m.metrics.Hooks()
	}

	sh, err := shell.New(shell.Config{
		Alloc:        shell.HeapAlloc,
		Source:       c.Source,
		Sink:         c.Sink,
		LineEnd:      m.lineEnd,
		GuestPrompt:  m.settings.GuestPrompt,
		Features:     m.features,
		BufferSize:   m.settings.BufferSize,
		Yield:        c.Yield(ctx, m.settings.TickInterval),
		PollInterval: m.settings.TickInterval,
		Logger:       &log,
		Hooks:        hooks,
	})
	if err != nil {
		return nil, err
	}

	catalog := commands.NewCatalog(commands.Env{
		SessionID: c.ID,
		Remote:    c.Remote,
		Started:   c.Started,
	})
	for _, spec := range catalog.Common() {
		sh.AddCommand(spec)
	}

	for _, e := range m.accounts {
		u := sh.AddUser(e.Settings())
		for _, name := range e.Commands {
			spec, err := catalog.Get(name)
			if err != nil {
				return nil, err
			}
			u.AddCommand(spec)
		}
	}

	return sh, nil
}

// Serve runs a session on c until the client leaves. It is a
// transport.ServeFunc.
func (m *Manager) Serve(ctx context.Context, c *transport.Conn) error {
	sh, err := m.NewShell(ctx, c)
	if err != nil {
		return err
	}

	if m.metrics != nil {
		defer m.metrics.SessionOpened(c.Transport)()
	}

	log := m.log.With().Str("session", c.ID).Str("transport", c.Transport).Logger()
	log.Info().Str("remote", c.Remote).Str("client_user", c.User).Msg("session started")

	sh.ShowPrompt()
	err = transport.Drive(ctx, sh, c, m.settings.TickInterval)

	log.Info().
		Dur("duration", time.Since(c.Started)).
		Str("user", sh.CurrentUser().Name()).
		Msg("session ended")
	return err
}
