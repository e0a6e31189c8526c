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
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/google/gigagrid/core/store"
)

// Manager handles the named grids of a program. Configs are registered
// eagerly; data is loaded lazily on demand and cached.
type Manager struct {
	mu sync.RWMutex

	// Grid configs indexed by name
	grids map[string]*gridEntry
	// Order of grid names (preserves registration order)
	order []string

	// Cached datasets indexed by grid name - populated lazily
	datasets map[string]*Dataset

	// Registered loaders indexed by source type
	loaders map[string]Loader
}

type gridEntry struct {
	config *GridConfig
	// baseDir resolves relative source paths
	baseDir string
	// configPath is set for grids read from a config file
	configPath string
	// preloaded grids were registered with their data and have no source
	preloaded bool
}

// NewManager creates a new grid manager with the given loaders registered.
func NewManager(loaders ...Loader) *Manager {
	m := &Manager{
		grids:    make(map[string]*gridEntry),
		datasets: make(map[string]*Dataset),
		loaders:  make(map[string]Loader),
	}
	for _, l := range loaders {
		m.loaders[l.SourceType()] = l
	}
	return m
}

// NewDefaultManager creates a manager that reads CSV, JSON and textproto
// sources.
func NewDefaultManager() *Manager {
	return NewManager(NewCsvLoader(), NewJsonLoader(), NewProtoLoader(nil))
}

// RegisterLoader registers a loader for its source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig reads a grid config file and registers it under the file name
// without extension.
func (m *Manager) LoadConfig(configPath string) error {
	cfg, err := ReadConfig(configPath)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	return m.addGrid(name, &gridEntry{config: cfg, baseDir: filepath.Dir(configPath), configPath: configPath})
}

// LoadDir registers every *.toml file in dir.
func (m *Manager) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return fmt.Errorf("failed to list configs: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no grid configs found in %s", dir)
	}
	slices.Sort(paths)
	for _, p := range paths {
		if err := m.LoadConfig(p); err != nil {
			return err
		}
	}
	return nil
}

// AddGrid registers a grid config. Registering a name again replaces the
// config and drops its cached data.
func (m *Manager) AddGrid(name string, cfg *GridConfig, baseDir string) error {
	return m.addGrid(name, &gridEntry{config: cfg, baseDir: baseDir})
}

// AddDataset registers a grid whose data is already loaded.
func (m *Manager) AddDataset(name string, cfg *GridConfig, ds *Dataset) error {
	if err := m.addGrid(name, &gridEntry{config: cfg, preloaded: true}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[name] = ds
	return nil
}

func (m *Manager) addGrid(name string, entry *gridEntry) error {
	if name == "" {
		return fmt.Errorf("grid name is required")
	}
	if err := entry.config.Validate(); err != nil {
		return fmt.Errorf("grid %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[name]; !ok {
		m.order = append(m.order, name)
	}
	m.grids[name] = entry
	delete(m.datasets, name)
	return nil
}

// GridNames returns the registered grid names in registration order.
func (m *Manager) GridNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Grid returns the config of a grid.
func (m *Manager) Grid(name string) (*GridConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.grids[name]
	if !ok {
		return nil, false
	}
	return e.config, true
}

// LoadData loads the data of a grid by name.
// Returns cached data if already loaded; otherwise loads from the source.
func (m *Manager) LoadData(name string) (*Dataset, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if ds, ok := m.datasets[name]; ok {
		m.mu.RUnlock()
		return ds, nil
	}
	entry, ok := m.grids[name]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("grid %q not found", name)
	}
	loader, hasLoader := m.loaders[entry.config.Source.Type]
	m.mu.RUnlock()

	if !hasLoader {
		return nil, fmt.Errorf("no loader registered for source type %q", entry.config.Source.Type)
	}

	ds, err := loader.Load(entry.config.LoaderConfig(entry.baseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load grid %q: %w", name, err)
	}

	m.mu.Lock()
	// A concurrent load may have won; keep the first result.
	if cached, ok := m.datasets[name]; ok {
		ds = cached
	} else if m.grids[name] == entry {
		m.datasets[name] = ds
	}
	m.mu.Unlock()

	return ds, nil
}

// InvalidateCache removes a grid's data from the cache, forcing reload on
// next access.
func (m *Manager) InvalidateCache(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, name)
}

// InvalidateAllCaches drops the cached data of every grid that has a source
// to reload from. Grids registered with AddDataset keep their data.
func (m *Manager) InvalidateAllCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, e := range m.grids {
		if !e.preloaded {
			delete(m.datasets, name)
		}
	}
}

// IsLoaded returns whether data for a grid is currently cached.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.datasets[name]
	return ok
}

// Props loads a grid and builds its store props.
func (m *Manager) Props(name string, logger *log.Logger) (*store.Props, error) {
	cfg, ok := m.Grid(name)
	if !ok {
		return nil, fmt.Errorf("grid %q not found", name)
	}
	ds, err := m.LoadData(name)
	if err != nil {
		return nil, err
	}
	return cfg.Props(ds, logger), nil
}

// NewStore loads a grid and creates a store over it.
func (m *Manager) NewStore(name string, logger *log.Logger, opts ...store.Option) (*store.Store, error) {
	props, err := m.Props(name, logger)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("grid loaded", "grid", name, "records", len(props.Data), "columns", len(props.ColumnDefs))
	}
	return store.New(props, opts...), nil
}
