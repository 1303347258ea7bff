package hearth

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/hearth-web/hearth/http/status"
	httpserver "github.com/hearth-web/hearth/internal/server/http"
	"github.com/hearth-web/hearth/internal/server/tcp"
	"github.com/hearth-web/hearth/internal/spill"
	"github.com/hearth-web/hearth/session"
	"github.com/hearth-web/hearth/settings"
)

// Handler re-exports the request-handling contract, so embedders don't
// need to import internal packages
type Handler = httpserver.Handler

type HandlerFunc = httpserver.HandlerFunc

const persistInterval = 30 * time.Second

// App ties the pieces together: limits, the spill pool, the session
// registry and the transport. One App runs one listener
type App struct {
	cfg      settings.Settings
	logger   *slog.Logger
	registry *session.Registry
	pool     *spill.Pool
	tcp      *tcp.Server

	stopPersist chan struct{}
}

func New(cfg settings.Settings, logger *slog.Logger) *App {
	cfg = settings.Fill(cfg)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: session.NewRegistry(),
		pool:     spill.NewPool(cfg.Spill.TempDir),
	}
}

func (a *App) Settings() settings.Settings {
	return a.cfg
}

func (a *App) Sessions() *session.Registry {
	return a.registry
}

func (a *App) Pool() *spill.Pool {
	return a.pool
}

// RestoreSessions loads the session dump. Session state is advisory, so a
// missing or corrupt dump only makes it into the log
func (a *App) RestoreSessions() {
	if err := a.registry.Deserialize(a.cfg.Session.FilePath); err != nil {
		a.logger.Warn("session restore skipped", "err", err)
	}
}

// PersistSessions dumps the registry, advisory like RestoreSessions
func (a *App) PersistSessions() {
	if err := a.registry.Serialize(a.cfg.Session.FilePath); err != nil {
		a.logger.Warn("session persist failed", "err", err)
	}
}

// ListenAndServe restores the session registry, serves until the listener
// is stopped and persists the registry on the way out
func (a *App) ListenAndServe(addr string, handler Handler) error {
	a.RestoreSessions()

	sock, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	server := httpserver.NewServer(a.cfg, handler, a.pool, a.logger)
	a.tcp = tcp.NewServer(sock, server.Serve)

	a.stopPersist = make(chan struct{})
	go a.persistLoop()

	a.logger.Info("listening", "addr", addr)

	err = a.tcp.Start()
	close(a.stopPersist)
	a.PersistSessions()

	if errors.Is(err, status.ErrShutdown) {
		return nil
	}

	return err
}

func (a *App) persistLoop() {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.PersistSessions()
		case <-a.stopPersist:
			return
		}
	}
}

// Stop closes the listener and every open connection
func (a *App) Stop() error {
	if a.tcp == nil {
		return nil
	}

	return a.tcp.Stop()
}

// GracefulShutdown closes the listener, letting open connections finish
func (a *App) GracefulShutdown() error {
	if a.tcp == nil {
		return nil
	}

	return a.tcp.GracefulShutdown()
}
