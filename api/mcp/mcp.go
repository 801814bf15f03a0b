// Package mcp provides an MCP (Model Context Protocol) server exposing a
// world's memory to agents and authoring tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/utils"
)

// Memory is the world memory the tools read and write.
type Memory interface {
	Add(ctx context.Context, text, id string, tags memory.Tags) error
	Query(ctx context.Context, text string, limit int, filter memory.Tags) ([]string, error)
}

type Config struct {
	// Memory backs memory_search and memory_add_lore.
	Memory Memory

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tales",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Memory == nil {
			return nil, errors.New("memory store is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        addLoreToolName,
			Description: addLoreDescription,
		}, s.handleAddLore)
	}

	s.mcpServer = mcpServer

	// Streamable HTTP handler for stateless operations.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// errorResult reports a tool failure to the client without failing the
// protocol exchange.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
