package config

import (
	"context"
	"path/filepath"

	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// WatchRegions watches the config directory and invokes onReload with the
// freshly loaded region definitions whenever regions.yaml changes. Reload
// failures are logged and skipped; the previous definitions stay in effect.
// The watcher runs until the context is cancelled.
func WatchRegions(ctx context.Context, configPath string, onReload func([]region.Definition)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		logging.Info("ConfigWatcher", "Watching %s for region definition changes", configPath)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != regionsFileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				defs, err := LoadRegions(configPath)
				if err != nil {
					logging.Error("ConfigWatcher", err, "Ignoring invalid regions.yaml update")
					continue
				}
				logging.Info("ConfigWatcher", "Applying %d region definitions from updated regions.yaml", len(defs))
				onReload(defs)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Error("ConfigWatcher", err, "Config watcher error")
			}
		}
	}()

	return nil
}
