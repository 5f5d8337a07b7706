package shell

import (
	"context"
)

func (s *Shell) registerBuiltins() {

	s.AddCommand(CommandSpec{
		Name:        "help",
		Description: "print out all the commands",
		Handler: func(ctx context.Context, s *Shell, line string) error {
			for _, cmd := range s.Commands() {
				s.echo(cmd.name)
				s.echo(lineEndEcho)
				if cmd.description != "" {
					s.echo("\t")
					s.echo(cmd.description)
					s.echo(lineEndEcho)
				}
			}
			return nil
		},
	})

	if !s.features.UserManagement {
		return
	}

	s.AddCommand(CommandSpec{
		Name:        "su",
		Description: "select user",
		Handler: func(ctx context.Context, s *Shell, line string) error {
			// "su name" skips the question when arguments are parsed
			name, ok := s.Arg(1)
			if !ok || s.Argc() != 2 {
				s.echo("user: ")

				var err error
				if name, err = s.RequestInput(ctx, false); err != nil {
					return err
				}
			}

			_, err := s.SwitchUser(ctx, name)
			return err
		},
	})
}
