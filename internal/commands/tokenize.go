package commands

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrUnclosedQuote  = errors.New("unclosed quote")
	ErrDanglingEscape = errors.New("dangling escape")
)

type quoteState int

const (
	unquoted quoteState = iota
	inSingle
	inDouble
)

// tokenizer splits a command line into words the way a POSIX shell would:
// single quotes keep everything literally, double quotes only honour \" and
// \\, and a backslash outside quotes escapes the next character.
type tokenizer struct {
	state   quoteState
	escaped bool
	word    strings.Builder
	// quoted marks a word that exists even when empty, as in ''.
	quoted bool
	words  []string
}

// Tokenize returns the words of line.
func Tokenize(line string) ([]string, error) {
	t := &tokenizer{words: []string{}}

	for _, r := range line {
		switch t.state {
		case unquoted:
			t.unquoted(r)
		case inSingle:
			t.single(r)
		case inDouble:
			t.double(r)
		}
	}

	if t.state != unquoted {
		return nil, ErrUnclosedQuote
	}
	if t.escaped {
		return nil, ErrDanglingEscape
	}

	t.flush()
	return t.words, nil
}

func (t *tokenizer) flush() {
	if t.word.Len() == 0 && !t.quoted {
		return
	}
	t.words = append(t.words, t.word.String())
	t.word.Reset()
	t.quoted = false
}

func (t *tokenizer) unquoted(r rune) {
	if t.escaped {
		t.word.WriteRune(r)
		t.escaped = false
		return
	}

	switch {
	case unicode.IsSpace(r):
		t.flush()
	case r == '\'':
		t.state, t.quoted = inSingle, true
	case r == '"':
		t.state, t.quoted = inDouble, true
	case r == '\\':
		t.escaped = true
	default:
		t.word.WriteRune(r)
	}
}

func (t *tokenizer) single(r rune) {
	if r == '\'' {
		t.state = unquoted
		return
	}
	t.word.WriteRune(r)
}

func (t *tokenizer) double(r rune) {
	if t.escaped {
		if r != '\\' && r != '"' {
			t.word.WriteRune('\\')
		}
		t.word.WriteRune(r)
		t.escaped = false
		return
	}

	switch r {
	case '"':
		t.state = unquoted
	case '\\':
		t.escaped = true
	default:
		t.word.WriteRune(r)
	}
}
