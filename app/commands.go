package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/Neev4n/linecli/internal/config"
	"github.com/Neev4n/linecli/internal/metrics"
	"github.com/Neev4n/linecli/internal/server"
	"github.com/Neev4n/linecli/internal/session"
	"github.com/Neev4n/linecli/internal/transport"
	"github.com/Neev4n/linecli/internal/users"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linecli",
		Short:         "A small line-oriented command shell",
		Long:          `linecli runs a command shell with users, history and completion on the local terminal, over SSH or over WebSocket. Settings come from LINECLI_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newConsoleCmd(), newServeCmd(), newHashCmd())
	return root
}

// app is what every subcommand that runs sessions needs.
type app struct {
	settings config.Settings
	log      zerolog.Logger
	metrics  *metrics.Metrics
	sessions *session.Manager
}

func setup(logOut io.Writer) (*app, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := s.Logger(logOut)
	if err != nil {
		return nil, err
	}

	var accounts *users.File
	if s.UsersFile != "" {
		if accounts, err = users.Load(s.UsersFile); err != nil {
			return nil, err
		}
		log.Info().Str("file", s.UsersFile).Int("users", len(accounts.Users)).Msg("users loaded")
	}

	m := metrics.New()
	mgr, err := session.NewManager(s, accounts, m, log)
	if err != nil {
		return nil, err
	}

	return &app{settings: s, log: log, metrics: m, sessions: mgr}, nil
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run one session on this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			err = transport.Console(cmd.Context(), a.sessions.Serve)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	var noSSH, noHTTP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over SSH and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noSSH && noHTTP {
				return errors.New("nothing to serve")
			}

			a, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			if !noSSH {
				key, err := transport.LoadOrGenerateHostKey(a.settings.HostKeyFile)
				if err != nil {
					return fmt.Errorf("host key: %w", err)
				}
				srv := &transport.SSHServer{
					HostKey:     key,
					MaxSessions: a.settings.MaxSessions,
					Serve:       a.sessions.Serve,
					Log:         a.log,
				}
				g.Go(func() error { return srv.ListenAndServe(ctx, a.settings.SSHAddr) })
			}

			if !noHTTP {
				h := server.NewRouter(a.sessions.Serve, a.metrics, a.settings.MaxSessions, a.log)
				g.Go(func() error { return server.ListenAndServe(ctx, a.settings.HTTPAddr, h, a.log) })
			}

			err = g.Wait()
			a.log.Info().Msg("shut down")
			return err
		},
	}

	cmd.Flags().BoolVar(&noSSH, "no-ssh", false, "do not start the SSH listener")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not start the HTTP listener")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print a bcrypt hash for a users file password_hash field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("empty password")
			}

			hash, err := users.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
