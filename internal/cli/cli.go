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

// Package cli implements the gigagrid command-line interface.
//
// Commands:
//   - list: Show the configured grids
//   - view: Browse a grid in the terminal
//   - render: Write the current window of a grid as HTML
//   - serve: Serve grids over HTTP with Prometheus metrics
//
// Grids come from TOML config files given with --config (files or
// directories). Without --config the embedded sample grids are used.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/google/gigagrid/datasources"
	"github.com/google/gigagrid/demo"
)

// Version is reported by --version.
var Version = "dev"

// gridSource holds the flags that select where grids come from.
type gridSource struct {
	configs     []string
	perfRecords int
}

// manager builds the grid manager described by the flags.
func (g *gridSource) manager(logger *log.Logger) (*datasources.Manager, error) {
	if len(g.configs) == 0 {
		logger.Debug("using embedded sample grids", "perf_records", g.perfRecords)
		return demo.NewManager(g.perfRecords)
	}

	manager := datasources.NewDefaultManager()
	for _, p := range g.configs {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", p, err)
		}
		if info.IsDir() {
			err = manager.LoadDir(p)
		} else {
			err = manager.LoadConfig(p)
		}
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("grids configured", "grids", manager.GridNames())
	return manager, nil
}

// defaultGrid returns args[0] or the first configured grid.
func defaultGrid(manager *datasources.Manager, args []string) (string, error) {
	if len(args) > 0 {
		if _, ok := manager.Grid(args[0]); !ok {
			return "", fmt.Errorf("grid %q not found (have %v)", args[0], manager.GridNames())
		}
		return args[0], nil
	}
	names := manager.GridNames()
	if len(names) == 0 {
		return "", fmt.Errorf("no grids configured")
	}
	return names[0], nil
}

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool
	src := &gridSource{}

	root := &cobra.Command{
		Use:          "gigagrid",
		Short:        "GigaGrid groups, aggregates and browses tabular data",
		Long:         `GigaGrid turns flat records into a collapsible tree of subtotal rows with aggregates, and shows the visible window of it in the terminal or as HTML.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringSliceVarP(&src.configs, "config", "c", nil, "grid config file or directory (repeatable)")
	root.PersistentFlags().IntVar(&src.perfRecords, "perf-records", 0, "add a generated grid with this many records to the sample grids")

	root.AddCommand(newListCmd(src))
	root.AddCommand(newViewCmd(src))
	root.AddCommand(newRenderCmd(src))
	root.AddCommand(newServeCmd(src))

	return root
}

// Execute runs the gigagrid CLI.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
