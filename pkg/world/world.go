// Package world generates the places the player walks into.
package world

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/llm"
	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/prompt"
)

// FogDescription is used when a location cannot be described.
const FogDescription = "A mysterious fog hides this place from your eyes..."

const loreLimit = 2

//go:embed tables.yaml
var defaultTables []byte

// Tables lists the parts a location is assembled from.
type Tables struct {
	Biomes      []string `yaml:"biomes"`
	Inhabitants []string `yaml:"inhabitants"`
	Features    []string `yaml:"features"`
}

// DefaultTables returns the bundled tables.
func DefaultTables() (Tables, error) {
	return ParseTables(defaultTables)
}

// LoadTables reads tables from a YAML file.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading world tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes tables and checks that no list is empty.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parsing world tables: %w", err)
	}
	switch {
	case len(t.Biomes) == 0:
		return Tables{}, errors.New("world tables have no biomes")
	case len(t.Inhabitants) == 0:
		return Tables{}, errors.New("world tables have no inhabitants")
	case len(t.Features) == 0:
		return Tables{}, errors.New("world tables have no features")
	}
	return t, nil
}

// Generate draws one entry from each table. The name is
// "Biome | Inhabitant | Feature" and the tags are the lowercased parts.
func (t Tables) Generate(r *rand.Rand) game.Location {
	parts := []string{
		t.Biomes[r.IntN(len(t.Biomes))],
		t.Inhabitants[r.IntN(len(t.Inhabitants))],
		t.Features[r.IntN(len(t.Features))],
	}
	tags := make([]string, len(parts))
	for i, p := range parts {
		tags[i] = strings.ToLower(p)
	}
	return game.Location{
		Name:        strings.Join(parts, " | "),
		Tags:        tags,
		Description: game.DefaultDescription,
	}
}

// Memory is what the describer reads lore from.
type Memory interface {
	Query(ctx context.Context, text string, limit int, filter memory.Tags) ([]string, error)
}

// Renderer renders a named prompt template.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// Describer asks the narrator for a short description of a location,
// grounded in what the world already knows about its tags.
type Describer struct {
	memory   Memory
	prompts  Renderer
	narrator llm.Generator
	logger   *slog.Logger
}

// NewDescriber creates a Describer.
func NewDescriber(m Memory, prompts Renderer, narrator llm.Generator, logger *slog.Logger) *Describer {
	return &Describer{memory: m, prompts: prompts, narrator: narrator, logger: logger}
}

// Describe returns prose for loc, or FogDescription when the narrator or
// the template fails. Missing lore only weakens the description.
func (d *Describer) Describe(ctx context.Context, loc game.Location) string {
	lore, err := d.memory.Query(ctx, loc.TagLine(), loreLimit, memory.Tags{memory.TagKind: memory.KindLore})
	if err != nil {
		d.logger.Warn("no lore for location", "location", loc.Name, "error", err)
		lore = []string{}
	}

	text, err := d.prompts.Render(prompt.Location, map[string]any{
		"tags": loc.Tags,
		"lore": lore,
	})
	if err != nil {
		d.logger.Error("could not render location prompt", "error", err)
		return FogDescription
	}

	out, err := d.narrator.Generate(ctx, text)
	if err != nil {
		d.logger.Error("could not describe location", "location", loc.Name, "error", err)
		return FogDescription
	}
	if desc := description(out); desc != "" {
		return desc
	}
	return FogDescription
}

// description reads {"description": "..."} from a reply, falling back to the
// reply itself when it is plain prose.
func description(reply string) string {
	reply = strings.TrimSpace(reply)
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return reply
	}
	var payload struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return reply
	}
	return strings.TrimSpace(payload.Description)
}

// Enter generates a location from t and describes it.
func (d *Describer) Enter(ctx context.Context, t Tables, r *rand.Rand) game.Location {
	loc := t.Generate(r)
	loc.Description = d.Describe(ctx, loc)
	d.logger.Info("location generated", "location", loc.Name)
	return loc
}
