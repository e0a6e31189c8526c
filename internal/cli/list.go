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

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	styleName  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleCount = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

func newListCmd(src *gridSource) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			manager, err := src.manager(logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range manager.GridNames() {
				cfg, _ := manager.Grid(name)
				ds, err := manager.LoadData(name)
				if err != nil {
					logger.Warn("cannot load grid", "grid", name, "err", err)
					fmt.Fprintf(out, "%s  %s  %s\n", styleName.Render(name), cfg.DisplayTitle(name), styleDim.Render("(unavailable)"))
					continue
				}
				fmt.Fprintf(out, "%s  %s  %s\n", styleName.Render(name), cfg.DisplayTitle(name),
					styleCount.Render(fmt.Sprintf("%d records", len(ds.Records))))
			}
			return nil
		},
	}
}
