package session_test

import (
	"cush/internal/domain/entity"
	"cush/internal/infrastructure/adapter/session"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixed(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func failing() (string, error) {
	return "", errors.New("unavailable")
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestContextProvider_Snapshot(t *testing.T) {
	t.Run("all sources available", func(t *testing.T) {
		p := session.NewContextProviderWithSources(session.Sources{
			Username: fixed("alice"),
			Hostname: fixed("box.example.com"),
			Getwd:    fixed("/home/alice/src"),
			Home:     fixed("/home/alice"),
			Euid:     func() int { return 1000 },
		})

		assert.Equal(t, entity.PromptContext{
			User: "alice",
			Host: "box.example.com",
			Dir:  "/home/alice/src",
			Home: "/home/alice",
		}, p.Snapshot())
	})

	t.Run("euid zero is root", func(t *testing.T) {
		p := session.NewContextProviderWithSources(session.Sources{
			Username: fixed("root"),
			Euid:     func() int { return 0 },
		})

		assert.True(t, p.Snapshot().Root)
	})

	t.Run("failed lookups fall back to the environment", func(t *testing.T) {
		p := session.NewContextProviderWithSources(session.Sources{
			Username: failing,
			Hostname: failing,
			Getwd:    failing,
			Home:     failing,
			Euid:     func() int { return 1000 },
			Getenv: env(map[string]string{
				"LOGNAME":  "bob",
				"HOSTNAME": "build01",
				"PWD":      "/srv",
				"HOME":     "/home/bob",
			}),
		})

		ctx := p.Snapshot()

		assert.Equal(t, "bob", ctx.User)
		assert.Equal(t, "build01", ctx.Host)
		assert.Equal(t, "/srv", ctx.Dir)
		assert.Equal(t, "/home/bob", ctx.Home)
	})

	t.Run("USER wins over LOGNAME", func(t *testing.T) {
		p := session.NewContextProviderWithSources(session.Sources{
			Username: failing,
			Getenv:   env(map[string]string{"USER": "carol", "LOGNAME": "bob"}),
		})

		assert.Equal(t, "carol", p.Snapshot().User)
	})

	t.Run("nothing available still yields placeholders", func(t *testing.T) {
		p := session.NewContextProviderWithSources(session.Sources{
			Username: failing,
			Hostname: failing,
			Getwd:    failing,
			Home:     failing,
			Getenv:   env(nil),
		})

		ctx := p.Snapshot()

		assert.Equal(t, "?", ctx.User)
		assert.Equal(t, "?", ctx.Host)
		assert.Equal(t, "?", ctx.Dir)
		assert.Empty(t, ctx.Home)
	})

	t.Run("snapshot follows the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		ctx := session.NewContextProvider().Snapshot()

		wd, err := os.Getwd()
		assert.NoError(t, err)
		assert.Equal(t, wd, ctx.Dir)
		assert.NotEmpty(t, ctx.User)
		assert.NotEmpty(t, ctx.Host)
	})
}
