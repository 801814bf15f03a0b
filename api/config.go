// Package api provides the HTTP API for playing sessions remotely and
// inspecting a world's memory and turn traces.
package api

import (
	"log/slog"
	"net/http"

	"github.com/papercomputeco/tales/pkg/storage"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// Games starts and resumes sessions.
	Games Games

	// Memory is the world memory searched by /v1/memories/search.
	Memory Memory

	// Traces serves /v1/sessions/:id/traces. Optional.
	Traces storage.Driver

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	Logger *slog.Logger
}
