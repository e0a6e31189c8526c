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
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/google/gigagrid/core/query"
	"github.com/google/gigagrid/core/rendering"
	"github.com/google/gigagrid/core/views"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output file path, stdout when empty
	state  string // URL query string describing the view state
}

func newRenderCmd(src *gridSource) *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [grid]",
		Short: "Render the visible window of a grid as HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			manager, err := src.manager(logger)
			if err != nil {
				return err
			}
			name, err := defaultGrid(manager, args)
			if err != nil {
				return err
			}

			st, err := manager.NewStore(name, logger)
			if err != nil {
				return err
			}

			q := query.FromState("/grid", name, st.State())
			if opts.state != "" {
				values, err := url.ParseQuery(strings.TrimPrefix(opts.state, "?"))
				if err != nil {
					return fmt.Errorf("invalid --state: %w", err)
				}
				values.Set("grid", name)
				q = query.NewQuery(&url.URL{Path: "/grid", RawQuery: values.Encode()})
			}
			state, applyErr := q.Apply(st)
			if applyErr != nil {
				logger.Warn("view state partially applied", "err", applyErr)
			}

			renderer, err := rendering.NewGridRenderer()
			if err != nil {
				return err
			}
			cfg, _ := manager.Grid(name)
			vm := views.BuildGridViewModel(cfg.DisplayTitle(name), state, q, nil)
			if applyErr != nil {
				vm.Warnings = append(vm.Warnings, applyErr.Error())
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := renderer.Render(w, vm); err != nil {
				return fmt.Errorf("rendering %s: %w", name, err)
			}
			if opts.output != "" {
				logger.Info("rendered grid", "grid", name, "rows", len(vm.Rows), "file", opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.state, "state", "s", "", "view state as URL query, e.g. 'grouped=region&sort=amount:desc'")

	return cmd
}
