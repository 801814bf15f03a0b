package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/papercomputeco/tales/pkg/game"
)

const (
	savesDir = "saves"
	saveExt  = ".json"

	// DefaultSlot is used when no slot name is given.
	DefaultSlot = "quicksave"
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidSlot is returned for slot names that are not a plain file stem.
var ErrInvalidSlot = errors.New("invalid save slot name")

// SaveGame writes the snapshot to .tales/saves/<slot>.json, replacing any
// previous save in that slot.
func (m *Manager) SaveGame(slot string, snap game.Snapshot, overrideDir string) error {
	path, err := m.slotPath(slot, overrideDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating saves directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling save %q: %w", slot, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing save %q: %w", slot, err)
	}

	return nil
}

// LoadGame reads the snapshot stored in a slot.
// Returns nil, nil if the slot is empty.
func (m *Manager) LoadGame(slot string, overrideDir string) (*game.Snapshot, error) {
	path, err := m.slotPath(slot, overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading save %q: %w", slot, err)
	}

	snap := &game.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parsing save %q: %w", slot, err)
	}

	return snap, nil
}

// ListSaves returns the names of the occupied slots, sorted.
func (m *Manager) ListSaves(overrideDir string) ([]string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(dir, savesDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing saves: %w", err)
	}

	slots := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, saveExt) {
			continue
		}
		slots = append(slots, strings.TrimSuffix(name, saveExt))
	}
	sort.Strings(slots)

	return slots, nil
}

// DeleteSave removes a slot. Returns nil if the slot is already empty.
func (m *Manager) DeleteSave(slot string, overrideDir string) error {
	path, err := m.slotPath(slot, overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing save %q: %w", slot, err)
	}

	return nil
}

func (m *Manager) slotPath(slot string, overrideDir string) (string, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	if !slotPattern.MatchString(slot) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, savesDir, slot+saveExt), nil
}
