package main

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestResolveURL(t *testing.T) {
	t.Chdir(t.TempDir())

	got, err := resolveURL("postgres://flag@host/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag@host/db", got)

	t.Setenv("CLERK_DB_URL", "")
	t.Setenv("CLERK_DB_HOST", "pg")
	t.Setenv("CLERK_DB_NAME", "clerk")
	t.Setenv("CLERK_DB_USER", "clerk")
	t.Setenv("CLERK_DB_PASSWORD", "pw")

	got, err = resolveURL("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://clerk:pw@pg:5432/clerk?sslmode=disable", got)
}

func TestParseSteps(t *testing.T) {
	n, err := parseSteps("-2")
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	for _, arg := range []string{"0", "two"} {
		_, err := parseSteps(arg)
		assert.Error(t, err, arg)
	}
}

func TestCommands(t *testing.T) {
	cmd := rootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "steps", "force", "version"}, names)
}
