package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads templates from dir whenever a *.tmpl file there is written
// or created. It blocks until ctx is done. A template that fails to parse is
// logged and the previous version stays in use.
func (l *Library) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating template watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	l.logger.Info("watching prompt templates", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ext) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if err := l.reloadFile(event.Name); err != nil {
				l.logger.Warn("prompt template reload failed", "file", event.Name, "error", err)
				continue
			}
			l.logger.Info("prompt template reloaded", "file", event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("prompt template watcher error", "error", err)
		}
	}
}

func (l *Library) reloadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return l.Add(strings.TrimSuffix(filepath.Base(path), ext), string(data), path)
}
