// Package api exposes the orchestrator over HTTP: synchronous and
// streaming chat, session CRUD, health, the peer inventory, and the
// embedded web UI.
package api

import (
	"context"
	_ "embed"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/opsmaestro/maestro/pkg/config"
	"github.com/opsmaestro/maestro/pkg/events"
	"github.com/opsmaestro/maestro/pkg/session"
)

//go:embed static/index.html
var indexHTML []byte

// Orchestrator is the subset of orchestrator behavior the handlers need.
type Orchestrator interface {
	Ready() bool
	Model() string
	ConnectedPeers() []string
	ConfiguredPeers() []config.PeerConfig
	Chat(ctx context.Context, userID, sessionID, text string) (string, error)
	ChatStream(ctx context.Context, userID, sessionID, text string, emit events.Emitter) (string, error)
	DeleteSession(sessionID string) error
}

// Server is the HTTP API server.
type Server struct {
	orch  Orchestrator
	store *session.Store
	echo  *echo.Echo
	http  *http.Server
}

// NewServer creates the server and registers all routes.
func NewServer(orch Orchestrator, store *session.Store) *Server {
	e := echo.New()
	s := &Server{
		orch:  orch,
		store: store,
		echo:  e,
	}

	e.Use(securityHeaders())
	e.Use(corsHeaders())

	e.GET("/health", s.healthHandler)
	e.GET("/servers", s.listServersHandler)
	e.POST("/chat", s.chatHandler)
	e.POST("/chat/stream", s.chatStreamHandler)
	e.GET("/sessions", s.listSessionsHandler)
	e.GET("/sessions/:id", s.getSessionHandler)
	e.DELETE("/sessions/:id", s.deleteSessionHandler)
	e.POST("/sessions/:id/resume", s.resumeSessionHandler)
	e.GET("/", s.indexHandler)

	return s
}

// Start begins serving on addr. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// indexHandler serves the embedded chat UI.
func (s *Server) indexHandler(c *echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	_, err := c.Response().Write(indexHTML)
	return err
}
