package shell

import (
	"context"
	"time"
)

// UserSettings describes a user at registration time. A user without a
// PasswordCheck can be selected without authenticating.
type UserSettings struct {
	Name          string
	PasswordCheck func(password string) bool
	Prompt        string
}

// User owns the commands only it can see.
type User struct {
	name          string
	passwordCheck func(string) bool
	prompt        string
	commands      commandList
}

func (u *User) Name() string   { return u.name }
func (u *User) Prompt() string { return u.prompt }

// Protected reports whether selecting the user needs a password.
func (u *User) Protected() bool { return u.passwordCheck != nil }

// AddCommand registers a command visible only while u is the current user.
func (u *User) AddCommand(spec CommandSpec) bool {
	if u == nil {
		return false
	}
	u.commands.add(spec)
	return true
}

// AddUser registers a user after every existing one. Names are not checked
// for duplicates; the first registered user with a name wins.
func (s *Shell) AddUser(us UserSettings) *User {
	if s == nil {
		return nil
	}

	u := &User{
		name:          us.Name,
		passwordCheck: us.PasswordCheck,
		prompt:        us.Prompt,
	}
	s.users = append(s.users, u)
	return u
}

// Guest returns the permanent unauthenticated user.
func (s *Shell) Guest() *User {
	return s.users[0]
}

// CurrentUser returns the user commands currently run as.
func (s *Shell) CurrentUser() *User {
	return s.current
}

// Users returns all users, guest first.
func (s *Shell) Users() []*User {
	out := make([]*User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Shell) findUser(name string) *User {
	for _, u := range s.users {
		if u.name == name {
			return u
		}
	}
	return nil
}

// SwitchUser makes the user called name current. Protected users are asked
// for their password with masked echo. It reports whether the switch
// happened; an unknown name or a rejected password leaves everything as it
// was. The error is only set when reading the password was cancelled.
func (s *Shell) SwitchUser(ctx context.Context, name string) (bool, error) {
	u := s.findUser(name)
	if u == nil {
		s.log.Debug().Str("user", name).Msg("unknown user")
		return false, nil
	}

	if u.passwordCheck != nil {
		s.echo("pass: ")
		password, err := s.RequestInput(ctx, true)
		if err != nil {
			return false, err
		}
		if !u.passwordCheck(password) {
			s.log.Info().Str("user", name).Msg("authentication failed")
			if s.hooks.OnAuthFailure != nil {
				s.hooks.OnAuthFailure(name)
			}
			return false, nil
		}
	}

	s.changeUser(u)
	return true, nil
}

// changeUser never lets history or a half read escape sequence cross users.
func (s *Shell) changeUser(u *User) {
	from := s.current.name
	s.current = u
	s.forget()
	s.resetEscape()

	s.log.Info().Str("from", from).Str("to", u.name).Msg("user switched")
	if s.hooks.OnSwitch != nil {
		s.hooks.OnSwitch(from, u.name)
	}
}

func (s *Shell) checkIdle(elapsed time.Duration) {
	s.idle += elapsed

	timeout := s.features.IdleTimeout
	if timeout <= 0 || s.idle <= timeout || s.current == s.Guest() {
		return
	}

	from := s.current.name
	s.changeUser(s.Guest())
	s.ShowPrompt()
	s.idle = 0

	s.log.Info().Str("user", from).Dur("idle", timeout).Msg("idle logout")
	if s.hooks.OnLogout != nil {
		s.hooks.OnLogout(from)
	}
}
