package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/tales/pkg/memory"
)

const defaultTopK = 5

var (
	searchToolName    = "memory_search"
	searchDescription = "Search the world memory by similarity. Optionally filter by kind (event or lore) and by location name. Returns the most similar records first."

	addLoreToolName    = "memory_add_lore"
	addLoreDescription = "Add a lore record to the world memory. Lore is recalled by the narrator when the player explores or fights in matching places."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the text to find similar memories for"`
	Kind     string `json:"kind,omitempty" jsonschema:"restrict results to this kind: event or lore"`
	Location string `json:"location,omitempty" jsonschema:"restrict results to events recorded at this location name"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Count   int      `json:"count"`
}

// AddLoreInput represents the input arguments for the memory_add_lore tool.
type AddLoreInput struct {
	Text string `json:"text" jsonschema:"the lore text"`
	ID   string `json:"id,omitempty" jsonschema:"record id; generated when empty"`
}

// AddLoreOutput represents the output of the memory_add_lore tool.
type AddLoreOutput struct {
	ID string `json:"id"`
}

// emptySearch is the structured output of a failed search. Results must be
// an empty array, not null, to satisfy the tool's output schema.
func emptySearch(query string) SearchOutput {
	return SearchOutput{Query: query, Results: []string{}}
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), emptySearch(input.Query), nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	logger.Debug("MCP memory search", "query", input.Query, "kind", input.Kind, "location", input.Location, "topK", topK)

	results, err := s.config.Memory.Query(ctx, input.Query, topK, memory.FilterFor(input.Kind, input.Location))
	if err != nil {
		logger.Error("memory search failed", "error", err)
		return errorResult(fmt.Sprintf("Memory search failed: %v", err)), emptySearch(input.Query), nil
	}

	if results == nil {
		results = []string{}
	}
	output := SearchOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}

	// Structured output is mirrored as JSON text for clients that only
	// read content blocks.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), emptySearch(input.Query), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func (s *Server) handleAddLore(ctx context.Context, _ *mcp.CallToolRequest, input AddLoreInput) (*mcp.CallToolResult, AddLoreOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return errorResult("text is required"), AddLoreOutput{}, nil
	}

	id := input.ID
	if id == "" {
		id = "lore_" + uuid.NewString()
	}

	err := s.config.Memory.Add(ctx, text, id, memory.Tags{memory.TagKind: memory.KindLore})
	if errors.Is(err, memory.ErrDuplicateID) {
		return errorResult(fmt.Sprintf("a record with id %q already exists", id)), AddLoreOutput{}, nil
	}
	if err != nil {
		s.config.Logger.Error("adding lore failed", "id", id, "error", err)
		return errorResult(fmt.Sprintf("Adding lore failed: %v", err)), AddLoreOutput{}, nil
	}

	s.config.Logger.Info("lore added", "id", id)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"id":%q}`, id)},
		},
	}, AddLoreOutput{ID: id}, nil
}
