package shell

// autocomplete treats the pending input as a prefix. A single match replaces
// the input; several matches are listed, then the prompt and the untouched
// input are redrawn.
func (s *Shell) autocomplete() {
	partial := s.Pending()

	switch s.CountMatches(partial, true) {
	case 0:
		return

	case 1:
		cmd, _ := s.Lookup(partial, true, 0)
		s.eraseLine()
		s.putOnPrompt(cmd.name)

	default:
		s.writeByte('\n')
		for skip := 0; ; {
			cmd, at := s.Lookup(partial, true, skip)
			if cmd == nil {
				break
			}
			s.echo(cmd.name)
			s.writeByte('\n')
			skip = at + 1
		}

		s.echo(lineEndEcho)
		s.ShowPrompt()
		s.echo(partial)
	}
}
