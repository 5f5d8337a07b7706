package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neev4n/linecli/internal/users"
)

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"console", "serve", "hash"})
}

func TestHashCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("s3cret\n"))
	root.SetArgs([]string{"hash"})

	require.NoError(t, root.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"), hash)
	assert.True(t, users.CheckPassword("s3cret", hash))
}

func TestHashCmd_EmptyPassword(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetIn(strings.NewReader("\n"))
	root.SetArgs([]string{"hash"})

	assert.Error(t, root.Execute())
}

func TestServeCmd_NothingToServe(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--no-ssh", "--no-http"})

	err := root.Execute()
	assert.EqualError(t, err, "nothing to serve")
}

func TestSetup_BadUsersFile(t *testing.T) {
	t.Setenv("LINECLI_USERS_FILE", "/nonexistent/users.yaml")

	_, err := setup(&bytes.Buffer{})
	assert.Error(t, err)
}
