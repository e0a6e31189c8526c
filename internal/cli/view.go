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

	"github.com/spf13/cobra"

	"github.com/google/gigagrid/core/query"
	"github.com/google/gigagrid/internal/tui"
)

func newViewCmd(src *gridSource) *cobra.Command {
	var printState bool

	cmd := &cobra.Command{
		Use:   "view [grid]",
		Short: "Browse a grid in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			manager, err := src.manager(logger)
			if err != nil {
				return err
			}
			name, err := defaultGrid(manager, args)
			if err != nil {
				return err
			}

			// Log output would corrupt the full screen display.
			st, err := manager.NewStore(name, nil)
			if err != nil {
				return err
			}
			cfg, _ := manager.Grid(name)
			final, err := tui.Run(ctx, st, cfg.DisplayTitle(name))
			if err != nil {
				return err
			}
			if printState {
				fmt.Fprintln(cmd.OutOrStdout(), query.FromState("/grid", name, final).ToURL())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printState, "print-state", false, "print the final view state as a URL on exit")
	return cmd
}
