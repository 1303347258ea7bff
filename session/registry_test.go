package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveOrCreate(t *testing.T) {
	registry := NewRegistry()

	t.Run("no cookie creates a session", func(t *testing.T) {
		id, isNew := registry.ResolveOrCreate("")
		require.True(t, isNew)
		require.Len(t, id, idLength)

		for _, c := range id {
			require.Contains(t, hexAlphabet, string(c))
		}
	})

	t.Run("known id is reused", func(t *testing.T) {
		id, _ := registry.ResolveOrCreate("")

		resolved, isNew := registry.ResolveOrCreate("sessionId=" + id)
		require.False(t, isNew)
		require.Equal(t, id, resolved)
	})

	t.Run("stale id yields a fresh session", func(t *testing.T) {
		resolved, isNew := registry.ResolveOrCreate("sessionId=deadbeefdeadbeef")
		require.True(t, isNew)
		require.NotEqual(t, "deadbeefdeadbeef", resolved)
	})

	t.Run("cookie among others", func(t *testing.T) {
		id, _ := registry.ResolveOrCreate("")

		resolved, isNew := registry.ResolveOrCreate(
			"theme=dark; sessionId=" + id + "; lang=en",
		)
		require.False(t, isNew)
		require.Equal(t, id, resolved)
	})

	t.Run("ids do not collide", func(t *testing.T) {
		a, _ := registry.ResolveOrCreate("")
		b, _ := registry.ResolveOrCreate("")
		require.NotEqual(t, a, b)
	})
}

func TestRegistry_FileOwnership(t *testing.T) {
	registry := NewRegistry()
	id, _ := registry.ResolveOrCreate("")

	t.Run("unknown file is not owned", func(t *testing.T) {
		require.False(t, registry.OwnsFile(id, "nothing.txt"))
	})

	t.Run("uploaded file is owned", func(t *testing.T) {
		registry.AddUploadedFile(id, "report.pdf")
		require.True(t, registry.OwnsFile(id, "report.pdf"))
	})

	t.Run("ownership is per session", func(t *testing.T) {
		other, _ := registry.ResolveOrCreate("")
		require.False(t, registry.OwnsFile(other, "report.pdf"))
	})

	t.Run("remove drops one occurrence", func(t *testing.T) {
		registry.AddUploadedFile(id, "dup.txt")
		registry.AddUploadedFile(id, "dup.txt")

		require.True(t, registry.RemoveFile(id, "dup.txt"))
		require.True(t, registry.OwnsFile(id, "dup.txt"))
		require.True(t, registry.RemoveFile(id, "dup.txt"))
		require.False(t, registry.OwnsFile(id, "dup.txt"))
	})

	t.Run("removing an unowned file reports false", func(t *testing.T) {
		require.False(t, registry.RemoveFile(id, "ghost.txt"))
	})
}

func TestExtractID(t *testing.T) {
	for _, tc := range []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{"empty header", "", "", false},
		{"plain", "sessionId=abc123", "abc123", true},
		{"with suffix", "sessionId=abc123; theme=dark", "abc123", true},
		{"with prefix", "lang=en; sessionId=abc123", "abc123", true},
		{"no session cookie", "lang=en; theme=dark", "", false},
		{"empty value", "sessionId=; lang=en", "", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, found := extractID(tc.header)
			require.Equal(t, tc.found, found)
			require.Equal(t, tc.want, got)
		})
	}
}
