// Package commands holds the commands a linecli host installs on every
// session, plus the ones a users file can grant to individual users.
package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Neev4n/linecli/pkg/shell"
)

const newline = "\r\n"

var ErrUnknownCommand = errors.New("unknown command")

// Env is what commands may know about the session they run in.
type Env struct {
	SessionID string
	Remote    string
	Started   time.Time
	Now       func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// commonNames are installed for everyone, in this order.
var commonNames = []string{"echo", "type", "whoami", "args", "logout", "exit"}

type Catalog struct {
	env   Env
	specs map[string]shell.CommandSpec
}

func NewCatalog(env Env) *Catalog {
	c := &Catalog{env: env, specs: map[string]shell.CommandSpec{}}
	c.register()
	return c
}

// Get returns the command called name.
func (c *Catalog) Get(name string) (shell.CommandSpec, error) {
	spec, ok := c.specs[name]
	if !ok {
		return shell.CommandSpec{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return spec, nil
}

// Common returns the commands every user sees.
func (c *Catalog) Common() []shell.CommandSpec {
	out := make([]shell.CommandSpec, 0, len(commonNames))
	for _, name := range commonNames {
		out = append(out, c.specs[name])
	}
	return out
}

// Names returns every command name, sorted.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.specs))
}

func (c *Catalog) add(name, description string, h shell.Handler) {
	c.specs[name] = shell.CommandSpec{Name: name, Description: description, Handler: h}
}

func (c *Catalog) register() {

	c.add("echo", "print its arguments", func(ctx context.Context, s *shell.Shell, line string) error {
		words, err := Tokenize(line)
		if err != nil {
			fmt.Fprint(s, "echo: ", err, newline)
			return nil
		}
		fmt.Fprint(s, strings.Join(words[1:], " "), newline)
		return nil
	})

	c.add("exit", "close the session", func(ctx context.Context, s *shell.Shell, line string) error {
		return shell.ErrExit
	})

	c.add("type", "tell whether a name is a command", func(ctx context.Context, s *shell.Shell, line string) error {
		words, err := Tokenize(line)
		if err != nil || len(words) < 2 {
			fmt.Fprint(s, "type: usage: type NAME", newline)
			return nil
		}

		for _, name := range words[1:] {
			if cmd, _ := s.Lookup(name, false, 0); cmd != nil {
				fmt.Fprint(s, name, " is a shell command", newline)
				continue
			}
			fmt.Fprint(s, name, ": not found", newline)
		}
		return nil
	})

	c.add("whoami", "print the current user", func(ctx context.Context, s *shell.Shell, line string) error {
		fmt.Fprint(s, s.CurrentUser().Name(), newline)
		return nil
	})

	c.add("args", "print the parsed arguments", func(ctx context.Context, s *shell.Shell, line string) error {
		if s.Argc() == 0 {
			fmt.Fprint(s, "argument parsing is off", newline)
			return nil
		}
		for i, arg := range s.Args() {
			fmt.Fprintf(s, "%d: %q%s", i, arg, newline)
		}
		return nil
	})

	c.add("logout", "return to the guest user", func(ctx context.Context, s *shell.Shell, line string) error {
		if s.CurrentUser() == s.Guest() {
			return nil
		}
		_, err := s.SwitchUser(ctx, s.Guest().Name())
		return err
	})

	c.add("uptime", "print how long the session has been open", func(ctx context.Context, s *shell.Shell, line string) error {
		up := c.env.now().Sub(c.env.Started).Truncate(time.Second)
		fmt.Fprint(s, up, newline)
		return nil
	})

	c.add("users", "list the users", func(ctx context.Context, s *shell.Shell, line string) error {
		for _, u := range s.Users() {
			mark := " "
			if u == s.CurrentUser() {
				mark = "*"
			}
			fmt.Fprint(s, mark, " ", u.Name())
			if u.Protected() {
				fmt.Fprint(s, " (password)")
			}
			fmt.Fprint(s, newline)
		}
		return nil
	})

	c.add("session", "print the session id and peer", func(ctx context.Context, s *shell.Shell, line string) error {
		fmt.Fprint(s, "id: ", c.env.SessionID, newline)
		if c.env.Remote != "" {
			fmt.Fprint(s, "remote: ", c.env.Remote, newline)
		}
		return nil
	})
}
