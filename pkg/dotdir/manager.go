// Package dotdir manages the .tales/ and ~/.tales directories: the config
// file, the embedded databases, the play log and the game save slots live
// there.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".tales"

	// EnvDir names a tales directory to use when no override is given.
	EnvDir = "TALES_DIR"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the tales directory, creating it when
// missing. Precedence:
//  1. overrideDir (--config-dir)
//  2. $TALES_DIR
//  3. ./.tales/ when it exists
//  4. ~/.tales/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tales directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Path returns the absolute path of name inside the tales directory.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(EnvDir); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(cwd, dirName)); err == nil && info.IsDir() {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
