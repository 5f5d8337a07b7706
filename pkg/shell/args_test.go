package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Parse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "command only",
			input:    "args",
			expected: []string{"args"},
		},
		{
			name:     "two arguments",
			input:    "args led on",
			expected: []string{"args", "led", "on"},
		},
		{
			name:     "double space yields empty argument",
			input:    "args a  b",
			expected: []string{"args", "a", "", "b"},
		},
		{
			name:     "trailing space yields empty argument",
			input:    "args a ",
			expected: []string{"args", "a", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Features{ArgumentParsing: true})

			var got []string
			var argc int
			h.sh.AddCommand(CommandSpec{
				Name: "args",
				Handler: func(ctx context.Context, s *Shell, line string) error {
					got = s.Args()
					argc = s.Argc()
					return nil
				},
			})

			h.run(t, tt.input+"\n")

			assert.Equal(t, tt.expected, got)
			assert.Equal(t, len(tt.expected), argc)
		})
	}
}

func TestArgs_Arg(t *testing.T) {
	h := newHarness(t, Features{ArgumentParsing: true})
	h.sh.AddCommand(CommandSpec{Name: "led"})

	h.run(t, "led 3 off\n")

	arg, ok := h.sh.Arg(0)
	require.True(t, ok)
	assert.Equal(t, "led", arg)

	arg, ok = h.sh.Arg(2)
	require.True(t, ok)
	assert.Equal(t, "off", arg)

	_, ok = h.sh.Arg(3)
	assert.False(t, ok)

	_, ok = h.sh.Arg(-1)
	assert.False(t, ok)
}

func TestArgs_DisabledLeavesNoArguments(t *testing.T) {
	h := newHarness(t, Features{})
	h.sh.AddCommand(CommandSpec{Name: "led"})

	h.run(t, "led 3 off\n")

	assert.Zero(t, h.sh.Argc())
	_, ok := h.sh.Arg(0)
	assert.False(t, ok)
}

func TestArgs_OnlyResetOnDispatch(t *testing.T) {
	h := newHarness(t, Features{ArgumentParsing: true})
	h.sh.AddCommand(CommandSpec{Name: "led"})

	h.run(t, "led 1\n")
	h.run(t, "unknown x y z\n")

	assert.Equal(t, []string{"led", "1"}, h.sh.Args())
}
