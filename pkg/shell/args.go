package shell

import (
	"strings"
)

// Every space separates two arguments, so "a  b" has an empty argument in
// the middle. Argument 0 is the command name.

func (s *Shell) parseArgs(line string) {
	s.args = strings.Split(line, " ")
}

// Argc returns the number of arguments of the command being run, or 0 when
// argument parsing is off.
func (s *Shell) Argc() int {
	return len(s.args)
}

// Arg returns argument n of the command being run.
func (s *Shell) Arg(n int) (string, bool) {
	if n < 0 || n >= len(s.args) {
		return "", false
	}
	return s.args[n], true
}

// Args returns a copy of all arguments, command name included.
func (s *Shell) Args() []string {
	out := make([]string, len(s.args))
	copy(out, s.args)
	return out
}
