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

package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/google/gigagrid/core/store"
)

// Run browses st full screen until the user quits or ctx is done. It
// returns the final grid state, and ctx.Err() when ctx ended the session.
func Run(ctx context.Context, st *store.Store, title string) (*store.State, error) {
	p := tea.NewProgram(New(st, title), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("running grid browser: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.State(), ctx.Err()
	}
	return st.State(), ctx.Err()
}
