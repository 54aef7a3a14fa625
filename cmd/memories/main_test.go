package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriesapp/memories/client/feed"
	"github.com/memoriesapp/memories/client/internal/apitest"
	"github.com/memoriesapp/memories/client/internal/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"signin", "signup", "google-login", "whoami", "logout", "feed", "search", "like", "delete"} {
		assert.Contains(t, names, want)
	}
}

func TestSignInRequiresFlags(t *testing.T) {
	_, _, err := execute(t, "signin", "--state-dir", t.TempDir(), "--api-url", "http://localhost:1")
	require.Error(t, err)
}

func TestSessionFlow(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	acc := srv.AddAccount("Ada", "Lovelace", "ada@example.com", "pw")
	mine := srv.AddPost(types.Post{Title: "Mine", Message: "hello there", Creator: acc.ID, Tags: []string{"trip"}})
	other := srv.AddPost(types.Post{Title: "Other", Creator: "someone-else", Tags: []string{"food"}})

	common := []string{"--state-dir", t.TempDir(), "--api-url", srv.URL}
	run := func(args ...string) (string, string, error) {
		return execute(t, append(args, common...)...)
	}

	out, _, err := run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")

	_, stderr, err := run("signin", "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, stderr, "Incorrect email or password!")

	out, _, err = run("signin", "--email", "ada@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	// session survives across invocations
	out, _, err = run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as")

	out, _, err = run("feed")
	require.NoError(t, err)
	assert.Contains(t, out, mine.ID)
	assert.Contains(t, out, other.ID)
	assert.Contains(t, out, "(yours)")

	out, _, err = run("like", other.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 like")
	got, _ := srv.Post(other.ID)
	assert.Equal(t, []string{acc.ID}, got.Likes)

	out, _, err = run("search", "--tags", "trip")
	require.NoError(t, err)
	assert.Contains(t, out, mine.ID)
	assert.NotContains(t, out, other.ID)

	_, _, err = run("delete", other.ID)
	require.ErrorIs(t, err, feed.ErrForbidden)
	assert.Equal(t, 0, srv.Calls(apitest.RouteDelete))

	out, _, err = run("delete", mine.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+mine.ID)
	_, ok := srv.Post(mine.ID)
	assert.False(t, ok)

	out, _, err = run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	out, _, err = run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestLikeRequiresSession(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	p := srv.AddPost(types.Post{Title: "x", Creator: "c"})

	_, _, err := execute(t, "like", p.ID, "--state-dir", t.TempDir(), "--api-url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, 0, srv.Calls(apitest.RouteLike))
}
