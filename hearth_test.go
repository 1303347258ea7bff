package hearth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearth-web/hearth/settings"
)

func TestNew(t *testing.T) {
	t.Run("empty settings are filled", func(t *testing.T) {
		app := New(settings.Settings{}, nil)
		require.Equal(t, settings.Default().TCP.ReadBufferSize, app.Settings().TCP.ReadBufferSize)
		require.NotNil(t, app.Sessions())
		require.NotNil(t, app.Pool())
	})

	t.Run("stopping an idle app is a no-op", func(t *testing.T) {
		app := New(settings.Settings{}, nil)
		require.NoError(t, app.Stop())
		require.NoError(t, app.GracefulShutdown())
	})
}

func TestSessionPersistence(t *testing.T) {
	cfg := settings.Settings{}
	cfg.Session.FilePath = filepath.Join(t.TempDir(), "sessions.bin")

	app := New(cfg, nil)
	id, isNew := app.Sessions().ResolveOrCreate("")
	require.True(t, isNew)
	app.Sessions().AddUploadedFile(id, "kept.txt")
	app.PersistSessions()

	restored := New(cfg, nil)
	restored.RestoreSessions()

	_, isNew = restored.Sessions().ResolveOrCreate("sessionId=" + id)
	require.False(t, isNew)
	require.True(t, restored.Sessions().OwnsFile(id, "kept.txt"))
}

func TestRestoreMissingDumpIsAdvisory(t *testing.T) {
	cfg := settings.Settings{}
	cfg.Session.FilePath = filepath.Join(t.TempDir(), "absent.bin")

	app := New(cfg, nil)
	app.RestoreSessions()

	_, isNew := app.Sessions().ResolveOrCreate("")
	require.True(t, isNew)
}
