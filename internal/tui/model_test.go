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
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
	"github.com/google/gigagrid/core/store"
)

func exampleStore(props func(*store.Props)) *store.Store {
	p := &store.Props{
		Data: []columns.Record{
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "D", "data": 1},
			{"col1": "B", "col2": "D", "data": 1},
			{"col1": "B", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "E", "data": 1},
		},
		ColumnDefs: []columns.ColumnDef{
			{Tag: "col1", Title: "Column 1"},
			{Tag: "col2"},
			{Tag: "data", Format: columns.FormatNumber, Aggregation: columns.AggSum},
		},
		InitialSubtotalBys: []columns.ColumnDef{{Tag: "col1"}, {Tag: "col2"}},
	}
	if props != nil {
		props(p)
	}
	return store.New(p)
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func keys(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, st *store.Store) Model {
	t.Helper()
	// 12 lines: title, header, status and a one line help leave 8 rows.
	return send(t, New(st, "Example"), tea.WindowSizeMsg{Width: 100, Height: 12})
}

func TestResizeReportsViewport(t *testing.T) {
	m := sized(t, exampleStore(nil))
	s := m.State()
	assert.Equal(t, 1.0, s.Viewport.RowHeight)
	assert.Equal(t, 8.0, s.Viewport.Height)
	assert.Equal(t, 0, s.DisplayStart)
	assert.Equal(t, 9, s.DisplayEnd)
	assert.Len(t, s.RasterizedRows, 14)
}

func TestScrollFollowsCursor(t *testing.T) {
	m := sized(t, exampleStore(nil))

	m = send(t, m, keys("G"))
	assert.Equal(t, 13, m.cursor)
	assert.Equal(t, 6, m.State().DisplayStart)

	m = send(t, m, keys("g"))
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 0, m.State().DisplayStart)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, "/A/C#0", m.cursorKey.String())
}

func TestToggleCollapseKeepsCursor(t *testing.T) {
	m := sized(t, exampleStore(nil))

	// Focus B, collapse A above it: the cursor stays on B.
	m = send(t, m, keys("G"), keys("k"), keys("k"), keys("k"), keys("k"))
	require.Equal(t, "/B", m.cursorKey.String())
	m = send(t, m, keys("g"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.State().Tree.Find(rows.SubtotalKey([]string{"A"})).(*rows.SubtotalRow).Collapsed)
	assert.Len(t, m.State().RasterizedRows, 6)

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Len(t, m.State().RasterizedRows, 14)

	m = send(t, m, keys("-"))
	assert.Len(t, m.State().RasterizedRows, 2)
	m = send(t, m, keys("+"))
	assert.Len(t, m.State().RasterizedRows, 14)
}

func TestSelectAndCellSelect(t *testing.T) {
	m := sized(t, exampleStore(nil))
	m = send(t, m, keys("j"), keys("x"))
	assert.True(t, m.State().Tree.Find(rows.SubtotalKey([]string{"A", "C"})).IsSelected())

	m = send(t, m, keys("l"), keys("l"), keys("c"))
	require.NotNil(t, m.State().SelectedCell)
	assert.Equal(t, "data", m.State().SelectedCell.ColTag)
}

func TestRejectedSelectionIsReported(t *testing.T) {
	m := sized(t, exampleStore(func(p *store.Props) {
		p.OnRowClick = func(rows.Row, *store.State) store.Decision { return store.Reject() }
	}))
	before := m.State()
	m = send(t, m, keys("x"))
	assert.Same(t, before, m.State())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "selection rejected")
}

func TestSortAndGroupByColumn(t *testing.T) {
	m := sized(t, exampleStore(nil))

	m = send(t, m, keys("l"), keys("b"))
	assert.Equal(t, []string{"col1"}, m.State().SubtotalTags(), "col2 was ungrouped")

	m = send(t, m, keys("b"))
	assert.Equal(t, []string{"col1", "col2"}, m.State().SubtotalTags())

	m = send(t, m, keys("s"))
	dir, ok := m.State().SortDirection("col2")
	require.True(t, ok)
	assert.Equal(t, columns.Ascending, dir)

	m = send(t, m, keys("s"))
	dir, _ = m.State().SortDirection("col2")
	assert.Equal(t, columns.Descending, dir)
}

func TestFilterPrompt(t *testing.T) {
	m := sized(t, exampleStore(nil))

	m = send(t, m, keys("/"))
	require.True(t, m.filtering)
	m = send(t, m, keys(`col1 == "B"`), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filtering)
	require.Len(t, m.State().FilterBys, 1)
	assert.Equal(t, `col1 == "B"`, m.State().FilterBys[0].Expr)
	// Subtotal rows without visible details are hidden too.
	assert.Len(t, m.State().RasterizedRows, 5)

	m = send(t, m, keys("/"), keys(" and"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.statusErr, "invalid expressions are reported")
	assert.Len(t, m.State().FilterBys, 1)

	m = send(t, m, keys("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.filtering)
}

func TestSettingsShrinkBody(t *testing.T) {
	m := sized(t, exampleStore(nil))
	m = send(t, m, keys("o"))
	assert.True(t, m.State().ShowSettingsPopover)
	assert.Equal(t, 3.0, m.State().Viewport.Height, "the settings box takes five lines")
	assert.Contains(t, m.View(), "Grouped by:")
}

func TestView(t *testing.T) {
	assert.Equal(t, "loading…", New(exampleStore(nil), "Example").View())

	m := sized(t, exampleStore(nil))
	view := m.View()
	assert.Contains(t, view, "Example")
	assert.Contains(t, view, "▾ A (5)")
	assert.Contains(t, view, "Column 1")
	assert.Contains(t, view, "row 1 of 14")
	assert.Equal(t, 12, strings.Count(view, "\n")+1)
}

func TestQuit(t *testing.T) {
	m := sized(t, exampleStore(nil))
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
