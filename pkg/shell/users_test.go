package shell

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinCheck(pin string) func(string) bool {
	return func(p string) bool { return p == pin }
}

func TestSwitchUser_Password(t *testing.T) {
	var failures []string

	in := &scriptSource{}
	out := &bytes.Buffer{}
	sh, err := New(Config{
		Alloc:       HeapAlloc,
		Source:      in,
		Sink:        out,
		LineEnd:     '\n',
		GuestPrompt: "cli>",
		Features:    Features{UserManagement: true},
		Hooks: Hooks{
			OnAuthFailure: func(user string) { failures = append(failures, user) },
		},
	})
	require.NoError(t, err)
	sh.AddUser(UserSettings{Name: "admin", PasswordCheck: pinCheck("1234"), Prompt: "admin>"})

	in.push("su\nadmin\nwrong\n")
	require.NoError(t, sh.Run(context.Background(), 0))

	assert.Equal(t, "guest", sh.CurrentUser().Name())
	assert.Equal(t, []string{"admin"}, failures)
	assert.Equal(t, "su\r\nuser: admin\r\npass: *****\r\ncli>", out.String())

	out.Reset()
	in.push("su\nadmin\n1234\n")
	require.NoError(t, sh.Run(context.Background(), 0))

	assert.Equal(t, "admin", sh.CurrentUser().Name())
	assert.Equal(t, "su\r\nuser: admin\r\npass: ****\r\nadmin>", out.String())
}

func TestSwitchUser_WithoutPassword(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true, ArgumentParsing: true})
	h.sh.AddUser(UserSettings{Name: "op", Prompt: "op>"})

	h.run(t, "su op\n")

	assert.Equal(t, "op", h.sh.CurrentUser().Name())
	assert.Equal(t, "su op\r\nop>", h.out.String())
}

func TestSwitchUser_UnknownNameIsIgnored(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true})

	h.run(t, "su\nnobody\n")

	assert.Same(t, h.sh.Guest(), h.sh.CurrentUser())
}

func TestSwitchUser_BackToGuest(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true, ArgumentParsing: true})
	h.sh.AddUser(UserSettings{Name: "op", Prompt: "op>"})

	h.run(t, "su op\n")
	h.run(t, "su guest\n")

	assert.Same(t, h.sh.Guest(), h.sh.CurrentUser())
}

func TestSwitchUser_DuplicateNameFirstWins(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true, ArgumentParsing: true})
	first := h.sh.AddUser(UserSettings{Name: "op", Prompt: "first>"})
	h.sh.AddUser(UserSettings{Name: "op", Prompt: "second>"})

	h.run(t, "su op\n")

	assert.Same(t, first, h.sh.CurrentUser())
}

func TestSwitchUser_ArgumentCountDecidesPrompt(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true, ArgumentParsing: true})
	h.sh.AddUser(UserSettings{Name: "op", Prompt: "op>"})

	// three tokens fall back to asking
	h.run(t, "su op x\nop\n")

	assert.Equal(t, "op", h.sh.CurrentUser().Name())
	assert.Contains(t, h.out.String(), "user: op\r\n")
}

func TestSwitchUser_ClearsHistory(t *testing.T) {
	h := newHarness(t, Features{History: HistoryBoth, UserManagement: true, ArgumentParsing: true})
	get := h.counter("get")
	h.sh.AddUser(UserSettings{Name: "op", Prompt: "op>"})

	h.run(t, "get\n")
	require.Equal(t, "get", h.sh.LastCommand())

	h.run(t, "su op\n")
	assert.Empty(t, h.sh.LastCommand())

	h.out.Reset()
	h.run(t, "\n")
	assert.Empty(t, h.sh.Pending())
	assert.Equal(t, "\r\nop>", h.out.String())

	h.run(t, "\x1b[A")
	assert.Empty(t, h.sh.Pending())
	assert.Equal(t, 1, *get)
}

func TestSwitchUser_FailedAuthKeepsHistory(t *testing.T) {
	h := newHarness(t, Features{History: HistoryOnEnter, UserManagement: true, ArgumentParsing: true})
	h.sh.AddUser(UserSettings{Name: "admin", PasswordCheck: pinCheck("1234")})

	h.run(t, "su admin\nnope\n")

	assert.Same(t, h.sh.Guest(), h.sh.CurrentUser())
	assert.Equal(t, "su admin", h.sh.LastCommand())
}

func TestSwitchUser_ResetsEscapeState(t *testing.T) {
	h := newHarness(t, Features{History: HistoryUpArrow})
	op := h.sh.AddUser(UserSettings{Name: "op"})

	h.run(t, "\x1b")
	require.True(t, h.sh.escAwaiting)

	h.sh.changeUser(op)

	assert.False(t, h.sh.escAwaiting)
	assert.Zero(t, h.sh.escSeen)
}

func TestSwitchUser_PasswordReadCancelled(t *testing.T) {
	h := newHarness(t, Features{UserManagement: true})
	h.sh.AddUser(UserSettings{Name: "admin", PasswordCheck: pinCheck("1234")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := h.sh.SwitchUser(ctx, "admin")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, h.sh.Guest(), h.sh.CurrentUser())
}

func TestAddUser_KeepsOrderBehindGuest(t *testing.T) {
	h := newHarness(t, Features{})
	h.sh.AddUser(UserSettings{Name: "a"})
	h.sh.AddUser(UserSettings{Name: "b", PasswordCheck: pinCheck("x")})

	var names []string
	for _, u := range h.sh.Users() {
		names = append(names, u.Name())
	}

	assert.Equal(t, []string{"guest", "a", "b"}, names)
	assert.False(t, h.sh.Users()[1].Protected())
	assert.True(t, h.sh.Users()[2].Protected())
}

func newIdleHarness(t *testing.T, timeout time.Duration, logouts *[]string) (*Shell, *scriptSource, *bytes.Buffer) {
	t.Helper()

	in := &scriptSource{}
	out := &bytes.Buffer{}
	sh, err := New(Config{
		Alloc:       HeapAlloc,
		Source:      in,
		Sink:        out,
		LineEnd:     '\n',
		GuestPrompt: "cli>",
		Features: Features{
			History:         HistoryBoth,
			UserManagement:  true,
			ArgumentParsing: true,
			IdleTimeout:     timeout,
		},
		Hooks: Hooks{
			OnLogout: func(user string) { *logouts = append(*logouts, user) },
		},
	})
	require.NoError(t, err)

	sh.AddUser(UserSettings{Name: "admin", Prompt: "admin>"})
	sh.AddCommand(CommandSpec{Name: "get"})
	return sh, in, out
}

func TestIdleTimeout_LogsOutToGuest(t *testing.T) {
	var logouts []string
	sh, in, out := newIdleHarness(t, 30*time.Second, &logouts)
	ctx := context.Background()

	in.push("su admin\nget\n")
	require.NoError(t, sh.Run(ctx, 0))
	require.Equal(t, "admin", sh.CurrentUser().Name())
	require.Equal(t, "get", sh.LastCommand())
	out.Reset()

	require.NoError(t, sh.Run(ctx, 31*time.Second))

	assert.Same(t, sh.Guest(), sh.CurrentUser())
	assert.Empty(t, sh.LastCommand())
	assert.Equal(t, "cli>", out.String())
	assert.Equal(t, []string{"admin"}, logouts)
}

func TestIdleTimeout_AccumulatesAcrossTicks(t *testing.T) {
	var logouts []string
	sh, in, _ := newIdleHarness(t, 30*time.Second, &logouts)
	ctx := context.Background()

	in.push("su admin\n")
	require.NoError(t, sh.Run(ctx, 0))

	for i := 0; i < 3; i++ {
		require.NoError(t, sh.Run(ctx, 10*time.Second))
	}
	assert.Equal(t, "admin", sh.CurrentUser().Name(), "exactly the threshold is not idle enough")

	require.NoError(t, sh.Run(ctx, time.Millisecond))
	assert.Same(t, sh.Guest(), sh.CurrentUser())
}

func TestIdleTimeout_InputResetsTimer(t *testing.T) {
	var logouts []string
	sh, in, _ := newIdleHarness(t, 30*time.Second, &logouts)
	ctx := context.Background()

	in.push("su admin\n")
	require.NoError(t, sh.Run(ctx, 0))

	require.NoError(t, sh.Run(ctx, 20*time.Second))
	in.push("g")
	require.NoError(t, sh.Run(ctx, 5*time.Second))
	require.NoError(t, sh.Run(ctx, 20*time.Second))

	assert.Equal(t, "admin", sh.CurrentUser().Name())
	assert.Empty(t, logouts)
}

func TestIdleTimeout_NeverEvictsGuest(t *testing.T) {
	sequences := [][]time.Duration{
		{31 * time.Second},
		{time.Hour, time.Hour},
		{0, 29 * time.Second, 2 * time.Second},
		{time.Millisecond, 59 * time.Second, 24 * time.Hour},
	}

	for i, seq := range sequences {
		t.Run(fmt.Sprintf("sequence %d", i), func(t *testing.T) {
			var logouts []string
			sh, _, out := newIdleHarness(t, 30*time.Second, &logouts)

			for _, elapsed := range seq {
				require.NoError(t, sh.Run(context.Background(), elapsed))
			}

			assert.Same(t, sh.Guest(), sh.CurrentUser())
			assert.Empty(t, logouts)
			assert.Zero(t, out.Len())
		})
	}
}

func TestIdleTimeout_DisabledByZero(t *testing.T) {
	var logouts []string
	sh, in, _ := newIdleHarness(t, 0, &logouts)

	in.push("su admin\n")
	require.NoError(t, sh.Run(context.Background(), 0))
	require.NoError(t, sh.Run(context.Background(), 24*time.Hour))

	assert.Equal(t, "admin", sh.CurrentUser().Name())
}
