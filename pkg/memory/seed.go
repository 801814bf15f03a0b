package memory

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed lore.yaml
var defaultLore []byte

// DefaultLore returns the lore records bundled with tales.
func DefaultLore() ([]Record, error) {
	return ParseLore(defaultLore)
}

// LoadLore reads a YAML list of records from path.
func LoadLore(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lore file: %w", err)
	}
	return ParseLore(data)
}

// ParseLore decodes a YAML list of records. Records without a kind tag are
// treated as lore.
func ParseLore(data []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing lore: %w", err)
	}

	for i := range records {
		if records[i].ID == "" {
			return nil, fmt.Errorf("lore record %d has no id", i)
		}
		if records[i].Tags == nil {
			records[i].Tags = Tags{}
		}
		if records[i].Tags[TagKind] == "" {
			records[i].Tags[TagKind] = KindLore
		}
	}
	return records, nil
}

// SeedResult reports the outcome of Seed.
type SeedResult struct {
	Added   int
	Skipped int
}

// Seed adds records to the store. Records whose ID is already stored are
// counted as skipped; any other failure stops seeding.
func (s *Store) Seed(ctx context.Context, records []Record) (SeedResult, error) {
	var result SeedResult
	for _, r := range records {
		err := s.Add(ctx, r.Text, r.ID, r.Tags)
		switch {
		case err == nil:
			result.Added++
		case errors.Is(err, ErrDuplicateID):
			result.Skipped++
		default:
			return result, err
		}
	}

	s.logger.Info("memory seeded", "added", result.Added, "skipped", result.Skipped)
	return result, nil
}
