package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/memory"
)

// Games starts and resumes sessions; *engine.Factory implements it.
type Games interface {
	NewGame(ctx context.Context, playerName string) *engine.Engine
	Resume(snap game.Snapshot) (*engine.Engine, error)
}

// Memory is the read side of the world memory.
type Memory interface {
	Query(ctx context.Context, text string, limit int, filter memory.Tags) ([]string, error)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for tales sessions.
type Server struct {
	config   Config
	sessions *Sessions
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config) (*Server, error) {
	if config.Games == nil {
		return nil, errors.New("game factory is required")
	}
	if config.Memory == nil {
		return nil, errors.New("memory store is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: NewSessions(),
		logger:   config.Logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	v1.Post("/sessions", s.handleCreateSession)
	v1.Put("/sessions", s.handleResumeSession)
	v1.Get("/sessions/:id", s.handleGetSession)
	v1.Delete("/sessions/:id", s.handleEndSession)
	v1.Post("/sessions/:id/turns", s.handleTurn)
	v1.Get("/sessions/:id/traces", s.handleListTraces)
	v1.Get("/memories/search", s.handleSearchMemories)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
