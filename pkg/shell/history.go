package shell

// The history is one slot holding the last dispatched line.

func (s *Shell) remember(line string) {
	s.historyLen = copy(s.history[:len(s.buf)-1], line)
}

func (s *Shell) forget() {
	s.historyLen = 0
}

func (s *Shell) previous() string {
	return string(s.history[:s.historyLen])
}

// LastCommand returns the line that would be recalled, or "" when the slot is
// empty.
func (s *Shell) LastCommand() string {
	return s.previous()
}
