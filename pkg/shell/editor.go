package shell

const (
	keyBackspace = 0x08
	keyTab       = 0x09
	keyCR        = 0x0d
	keyEscape    = 0x1b
	keyUp        = 0x41
	keyDelete    = 0x7f

	// bytes consumed after ESC before a sequence completes
	escapeLength = 2

	eraseSequence = "\b \b"
	lineEndEcho   = "\r\n"
)

// feed runs one input byte through the line editor. It returns the completed
// line when c was the line end byte. Interactive reads pass interactive so
// that neither history nor command names are injected into the answer.
func (s *Shell) feed(c byte, mask, interactive bool) (string, bool) {
	switch {
	case c == s.lineEnd:
		s.resetEscape()

		if !interactive && s.features.History&HistoryOnEnter != 0 &&
			s.cursor == 0 && s.historyLen > 0 {
			s.putOnPrompt(s.previous())
			return "", false
		}

		line := string(s.buf[:s.cursor])
		s.echo(lineEndEcho)
		s.cursor = 0
		return line, true

	case s.features.History&HistoryUpArrow != 0 && s.decodeEscape(c, !interactive):

	case c == keyBackspace || c == keyDelete:
		s.eraseLast()

	case c == keyCR:
		// dropped so CRLF line endings complete only once

	case s.features.Autocomplete && c == keyTab:
		if !interactive {
			s.autocomplete()
		}

	default:
		s.insert(c, mask)
	}

	return "", false
}

// decodeEscape claims c when it starts or continues an escape sequence.
func (s *Shell) decodeEscape(c byte, recall bool) bool {
	// a repeated ESC keeps the bytes already counted
	if c == keyEscape {
		s.escAwaiting = true
		return true
	}
	if !s.escAwaiting {
		return false
	}

	s.escSeen++
	if s.escSeen < escapeLength {
		return true
	}
	s.resetEscape()

	// every sequence clears the prompt, only up arrow puts something back
	s.eraseLine()
	if recall && c == keyUp {
		s.putOnPrompt(s.previous())
	}
	return true
}

func (s *Shell) resetEscape() {
	s.escAwaiting = false
	s.escSeen = 0
}

func (s *Shell) insert(c byte, mask bool) {
	if s.cursor+1 >= len(s.buf) {
		return
	}

	s.buf[s.cursor] = c
	s.cursor++

	if mask {
		s.writeByte('*')
	} else {
		s.writeByte(c)
	}
}

func (s *Shell) eraseLast() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	s.echo(eraseSequence)
	return true
}

func (s *Shell) eraseLine() {
	for s.eraseLast() {
	}
}

// putOnPrompt replaces the (already erased) line with text and echoes it.
func (s *Shell) putOnPrompt(text string) {
	if limit := len(s.buf) - 1; len(text) > limit {
		text = text[:limit]
	}
	s.echo(text)
	s.cursor = copy(s.buf, text)
}

// Pending returns what has been typed on the prompt so far.
func (s *Shell) Pending() string {
	return string(s.buf[:s.cursor])
}
