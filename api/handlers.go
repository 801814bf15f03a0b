package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/trace"
)

const (
	defaultSearchLimit = 5
	defaultTraceLimit  = 50
)

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	PlayerName string `json:"player_name"`
}

// TurnRequest is the body of POST /v1/sessions/:id/turns.
type TurnRequest struct {
	Command string `json:"command"`
}

// TurnResponse is one resolved turn and the player's state after it.
type TurnResponse struct {
	engine.Result
	Player *game.Player `json:"player"`
}

// SearchResponse lists memories similar to the query.
type SearchResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Count   int      `json:"count"`
}

// TracesResponse lists a session's turn traces, oldest first.
type TracesResponse struct {
	SessionID string          `json:"session_id"`
	Traces    []*trace.Record `json:"traces"`
	Count     int             `json:"count"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateSession starts a new game. The reply carries the opening
// location.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	eng := s.config.Games.NewGame(c.Context(), req.PlayerName)
	s.sessions.Put(eng)

	return c.Status(fiber.StatusCreated).JSON(eng.Snapshot())
}

// handleResumeSession registers a session from a saved snapshot.
func (s *Server) handleResumeSession(c *fiber.Ctx) error {
	var snap game.Snapshot
	if err := c.BodyParser(&snap); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid snapshot")
	}
	if snap.ID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "snapshot id is required")
	}

	eng, err := s.config.Games.Resume(snap)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	s.sessions.Put(eng)

	return c.JSON(eng.Snapshot())
}

// handleGetSession returns the current state of a session.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	eng, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	return c.JSON(eng.Snapshot())
}

// handleEndSession forgets a session. Its traces are kept.
func (s *Server) handleEndSession(c *fiber.Ctx) error {
	if !s.sessions.Delete(c.Params("id")) {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleTurn runs one command through the session's engine.
func (s *Server) handleTurn(c *fiber.Ctx) error {
	eng, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}

	var req TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	res, err := eng.Process(c.Context(), req.Command)
	switch {
	case errors.Is(err, engine.ErrEmptyCommand):
		return errorJSON(c, fiber.StatusBadRequest, "command is required")
	case errors.Is(err, engine.ErrGameOver):
		return errorJSON(c, fiber.StatusConflict, "game over")
	case err != nil:
		s.logger.Error("turn failed", "session", c.Params("id"), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "turn failed")
	}

	return c.JSON(TurnResponse{Result: res, Player: eng.Snapshot().Player})
}

// handleListTraces handles GET /v1/sessions/:id/traces.
// Query parameters:
//   - limit (optional, default 50): most recent traces to return
func (s *Server) handleListTraces(c *fiber.Ctx) error {
	if s.config.Traces == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "trace store is not configured")
	}

	limit, err := positiveQuery(c, "limit", defaultTraceLimit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	id := c.Params("id")
	recs, err := s.config.Traces.List(c.Context(), id, limit)
	if err != nil {
		s.logger.Error("listing traces failed", "session", id, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to list traces")
	}

	return c.JSON(TracesResponse{SessionID: id, Traces: recs, Count: len(recs)})
}

// handleSearchMemories handles GET /v1/memories/search.
// Query parameters:
//   - query (required): the text to match
//   - kind (optional): event or lore
//   - location (optional): location name events were recorded at
//   - limit (optional, default 5): number of results to return
func (s *Server) handleSearchMemories(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "query parameter is required")
	}

	limit, err := positiveQuery(c, "limit", defaultSearchLimit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	filter := memory.FilterFor(c.Query("kind"), c.Query("location"))
	results, err := s.config.Memory.Query(c.Context(), query, limit, filter)
	if err != nil {
		s.logger.Error("memory search failed", "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "memory backend unavailable")
	}

	return c.JSON(SearchResponse{Query: query, Results: results, Count: len(results)})
}

func positiveQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}
