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

// Package demo provides sample grids embedded in the binary.
package demo

import (
	"embed"
	"fmt"
	"path"
	"slices"

	"github.com/google/gigagrid/datasources"
)

//go:embed data
var dataFS embed.FS

// gridNames lists the embedded grids in landing page order.
var gridNames = []string{"orders", "items"}

// loadGrid parses an embedded grid config and loads its embedded source.
func loadGrid(name string) (*datasources.GridConfig, *datasources.Dataset, error) {
	raw, err := dataFS.ReadFile(path.Join("data", name+".toml"))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s config: %w", name, err)
	}
	cfg, err := datasources.ParseConfig(string(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}

	file, err := dataFS.Open(path.Join("data", cfg.Source.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s data: %w", name, err)
	}
	defer file.Close()

	var ds *datasources.Dataset
	switch cfg.Source.Type {
	case "csv":
		ds, err = datasources.NewCsvLoader().LoadReader(file, cfg.LoaderConfig(""))
	case "json":
		ds, err = datasources.NewJsonLoader().LoadReader(file)
	default:
		err = fmt.Errorf("unsupported embedded source type %q", cfg.Source.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s data: %w", name, err)
	}
	return cfg, ds, nil
}

// NewManager returns a manager holding the embedded sample grids and the
// generated performance grid with perfRecords records. perfRecords <= 0
// leaves the performance grid out.
func NewManager(perfRecords int) (*datasources.Manager, error) {
	manager := datasources.NewDefaultManager()
	for _, name := range gridNames {
		cfg, ds, err := loadGrid(name)
		if err != nil {
			return nil, err
		}
		if err := manager.AddDataset(name, cfg, ds); err != nil {
			return nil, err
		}
	}
	if perfRecords > 0 {
		manager.RegisterLoader(PerfLoader{})
		if err := manager.AddGrid(PerfGridName, PerfConfig(perfRecords), ""); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// GridNames returns the names of the embedded sample grids.
func GridNames() []string {
	return slices.Clone(gridNames)
}
