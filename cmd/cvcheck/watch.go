package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce batches the burst of events an editor produces for one save
const watchDebounce = 300 * time.Millisecond

// watchFiles calls run once, then again after every change to one of paths,
// until ctx is done. Parent directories are watched so that editors which
// replace files on save are still seen.
func watchFiles(ctx context.Context, paths []string, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	run()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event, watched) {
				continue
			}
			logger.Debug("watched file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			pending = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			run()
		}
	}
}

// relevantChange reports whether event modifies one of the watched files
func relevantChange(event fsnotify.Event, watched map[string]bool) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil || !watched[abs] {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
