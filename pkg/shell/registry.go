package shell

import (
	"strings"
)

// CommandSpec describes a command at registration time.
type CommandSpec struct {
	Name        string
	Description string
	Handler     Handler
}

// Command is a registered command. It belongs to exactly one list.
type Command struct {
	name        string
	description string
	handler     Handler
}

func (c *Command) Name() string        { return c.name }
func (c *Command) Description() string { return c.description }

func (c *Command) matches(query string, prefix bool) bool {
	if prefix {
		return strings.HasPrefix(c.name, query)
	}
	return c.name == query
}

// commandList keeps registration order; entries are never removed.
type commandList []*Command

func (l *commandList) add(spec CommandSpec) {
	*l = append(*l, &Command{
		name:        spec.Name,
		description: spec.Description,
		handler:     spec.Handler,
	})
}

// AddCommand registers a command available to every user.
func (s *Shell) AddCommand(spec CommandSpec) bool {
	if s == nil {
		return false
	}
	s.commands.add(spec)
	return true
}

// Lookup returns the first command matching query whose position is at least
// skip, and that position. Positions run across the global commands followed
// by the current user's commands. It returns nil, -1 when nothing matches.
func (s *Shell) Lookup(query string, prefix bool, skip int) (*Command, int) {
	return s.search(query, prefix, skip, nil)
}

// CountMatches returns how many visible commands match query.
func (s *Shell) CountMatches(query string, prefix bool) int {
	n := 0
	s.search(query, prefix, 0, &n)
	return n
}

// Commands returns the visible commands in search order.
func (s *Shell) Commands() []*Command {
	out := make([]*Command, 0, len(s.commands)+len(s.current.commands))
	out = append(out, s.commands...)
	return append(out, s.current.commands...)
}

// search stops at the first hit unless count is set, in which case it counts
// every hit and returns the last one.
func (s *Shell) search(query string, prefix bool, skip int, count *int) (*Command, int) {
	var found *Command
	at := -1
	index := 0

	for _, list := range [2]commandList{s.commands, s.current.commands} {
		for _, c := range list {
			if index >= skip && c.matches(query, prefix) {
				found, at = c, index
				if count == nil {
					return found, at
				}
				*count++
			}
			index++
		}
	}

	return found, at
}

// commandKey is the part of a line a command is looked up by.
func commandKey(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return line
}
