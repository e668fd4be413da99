package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/value"
)

// Watch reloads the configuration at path whenever it is written and stores
// each valid result in target. Reloads that fail to parse or validate are
// logged and skipped, leaving target unchanged. Equal reloads do not notify
// target's observers.
//
// The file's directory is watched so that editors which save by renaming
// are followed. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, target *value.Dynamic[Config], log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("G105").Wrap(err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.New("G105").
			WithDetail("Failed to watch " + filepath.Dir(path)).
			Wrap(err)
	}

	reload := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			// Removed or mid-rename; the following Create reloads it.
			log.Debug("config read failed", "path", path, "error", err)
			return
		}
		cfg, err := Parse(path, data)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		cfg.configPath = path
		if _, changed := target.Replace(*cfg); changed {
			log.Info("config reloaded", "path", path)
		}
	}

	// Pick up writes made between the caller's load and the watcher start.
	reload()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch error", "path", path, "error", err)
		}
	}
}
