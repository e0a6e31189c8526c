/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for before reloading.
const DefaultDebounce = 200 * time.Millisecond

// watchTarget is a file some grid depends on.
type watchTarget struct {
	grid   string
	config bool
}

// Watch reloads grids whose config or source file changes, until ctx is
// done. A changed config is re-read and replaces the grid; a changed source
// drops the cached data so the next access reloads it. Changes closer than
// debounce apart are handled once. Grids without files, such as generated
// ones, are not watched.
func (m *Manager) Watch(ctx context.Context, logger *log.Logger, debounce time.Duration) error {
	targets := m.watchTargets()
	if len(targets) == 0 {
		logger.Debug("no grid files to watch")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	// Directories are watched so that editors replacing files are seen.
	dirs := make(map[string]bool)
	watchDirs := func() error {
		for p := range targets {
			dir := filepath.Dir(p)
			if dirs[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
		return nil
	}
	if err := watchDirs(); err != nil {
		return err
	}
	logger.Debug("watching grid files", "files", len(targets), "dirs", len(dirs))

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p := absPath(ev.Name)
			if _, ok := targets[p]; !ok {
				continue
			}
			pending[p] = true
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost, so any source may have changed.
				m.InvalidateAllCaches()
				logger.Warn("file events lost, dropped all cached grid data")
				continue
			}
			logger.Warn("file watcher error", "err", err)

		case <-timer.C:
			for p := range pending {
				for _, t := range targets[p] {
					m.reload(t, p, logger)
				}
			}
			clear(pending)
			// A reloaded config may point at a different source.
			targets = m.watchTargets()
			if err := watchDirs(); err != nil {
				logger.Warn("cannot watch new source", "err", err)
			}
		}
	}
}

func (m *Manager) reload(t watchTarget, path string, logger *log.Logger) {
	if !t.config {
		m.InvalidateCache(t.grid)
		logger.Info("grid data changed", "grid", t.grid, "file", path)
		return
	}
	if err := m.LoadConfig(path); err != nil {
		logger.Warn("keeping previous grid config", "grid", t.grid, "err", err)
		return
	}
	logger.Info("grid config reloaded", "grid", t.grid, "file", path)
}

// watchTargets maps the absolute path of every config and source file to
// the grids using it.
func (m *Manager) watchTargets() map[string][]watchTarget {
	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := make(map[string][]watchTarget)
	for name, e := range m.grids {
		if e.preloaded {
			continue
		}
		if e.configPath != "" {
			p := absPath(e.configPath)
			targets[p] = append(targets[p], watchTarget{grid: name, config: true})
		}
		if src := e.config.LoaderConfig(e.baseDir)["file_path"]; src != "" {
			p := absPath(src)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			targets[p] = append(targets[p], watchTarget{grid: name})
		}
	}
	return targets
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
