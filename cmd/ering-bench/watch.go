package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/FerroO2000/ering/internal/config"
	"github.com/fsnotify/fsnotify"
)

// Editors write a file with more than one event.
const reloadDelay = 200 * time.Millisecond

// watch runs the benchmark, then runs it again every time the configuration
// file is written, until the context is cancelled. The telemetry configuration
// is not reloaded.
func watch(ctx context.Context, flags *cliFlags, cfg *config.Bench) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	configPath := filepath.Clean(flags.configPath)

	// The directory is watched since editors often replace the file
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return err
	}

	runAndLog(ctx, cfg)

	reloadTimer := time.NewTimer(reloadDelay)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if isConfigChange(event, configPath) {
				reloadTimer.Reset(reloadDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Error("watcher error", "error", err)

		case <-reloadTimer.C:
			newCfg, err := flags.loadConfig()
			if err != nil {
				slog.Error("failed to reload configuration", "path", configPath, "error", err)
				continue
			}

			slog.Info("configuration reloaded", "path", configPath)
			runAndLog(ctx, newCfg)
		}
	}
}

func isConfigChange(event fsnotify.Event, configPath string) bool {
	if filepath.Clean(event.Name) != configPath {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func runAndLog(ctx context.Context, cfg *config.Bench) {
	if err := runBench(ctx, cfg); err != nil {
		slog.Error("benchmark failed", "error", err)
	}
}
