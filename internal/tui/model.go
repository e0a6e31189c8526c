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

// Package tui browses a grid in the terminal. The terminal reports its size
// in rows, so the grid viewport uses a row height of one.
package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/gigagrid/core/aggregates"
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/expr"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
	"github.com/google/gigagrid/core/store"
)

// Model is the bubbletea model of the grid browser.
type Model struct {
	store *store.Store
	state *store.State
	title string

	keys      keyMap
	help      help.Model
	input     textinput.Model
	filtering bool

	// cursor is the index of the focused row in the rasterization; cursorKey
	// keeps the focus on the same row across transitions.
	cursor    int
	cursorKey rows.Key
	col       int

	width, height int
	formatter     *aggregates.Formatter
	status        string
	statusErr     bool
}

// New creates a browser over st.
func New(st *store.Store, title string) Model {
	ti := textinput.New()
	ti.Placeholder = `expression, e.g. amount > 100 and region == "West"`
	ti.Prompt = "filter: "
	ti.CharLimit = 200

	m := Model{
		store:     st,
		state:     st.State(),
		title:     title,
		keys:      defaultKeyMap(),
		help:      help.New(),
		input:     ti,
		formatter: aggregates.DefaultFormatter,
	}
	if len(m.state.RasterizedRows) > 0 {
		m.cursorKey = m.state.RasterizedRows[0].Key()
	}
	return m
}

// State returns the grid state the model currently shows.
func (m Model) State() *store.State { return m.state }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.input.Blur()
		m.scrollToCursor()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.input.Blur()
		m.applyFilter(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.statusErr = "", false
	n := len(m.state.RasterizedRows)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveTo(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveTo(m.cursor + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveTo(m.cursor - m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveTo(m.cursor + m.bodyHeight())
	case key.Matches(msg, m.keys.Home):
		m.moveTo(0)
	case key.Matches(msg, m.keys.End):
		m.moveTo(n - 1)
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.state.Columns)-1 {
			m.col++
		}
	case key.Matches(msg, m.keys.Toggle):
		if sub, ok := m.current().(*rows.SubtotalRow); ok && !sub.IsRoot() {
			m.dispatch(store.ToggleCollapse{Key: sub.Key()})
		}
	case key.Matches(msg, m.keys.Select):
		if r := m.current(); r != nil {
			m.dispatchReporting(store.ToggleRowSelect{Key: r.Key()}, "selection rejected")
		}
	case key.Matches(msg, m.keys.SelectCell):
		if r, col, ok := m.currentCell(); ok {
			m.dispatchReporting(store.ToggleCellSelect{Key: r.Key(), ColTag: col.Tag}, "cell selection rejected")
		}
	case key.Matches(msg, m.keys.Sort):
		if _, col, ok := m.currentCell(); ok {
			m.dispatch(store.SortBy{Columns: toggleSort(m.state.SortBys, col)})
		}
	case key.Matches(msg, m.keys.Group):
		if _, col, ok := m.currentCell(); ok {
			m.dispatch(store.SubtotalBy{Columns: toggleGroup(m.state.SubtotalBys, col)})
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.input.SetValue(exprFilter(m.state.FilterBys))
		m.input.CursorEnd()
		m.scrollToCursor()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.CollapseAll):
		m.dispatch(store.CollapseAll{Collapse: true})
	case key.Matches(msg, m.keys.ExpandAll):
		m.dispatch(store.CollapseAll{Collapse: false})
	case key.Matches(msg, m.keys.Settings):
		m.dispatch(store.ToggleSettingsPopover{})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.scrollToCursor()
	}
	return m, nil
}

// dispatch applies an action and keeps the cursor on the same row.
func (m *Model) dispatch(a store.Action) bool {
	next := m.store.Dispatch(a)
	changed := next != m.state
	m.state = next
	if i := next.IndexOf(m.cursorKey); i >= 0 {
		m.cursor = i
	}
	m.moveTo(m.cursor)
	return changed
}

func (m *Model) dispatchReporting(a store.Action, unchanged string) {
	if !m.dispatch(a) {
		m.setError(unchanged)
	}
}

func (m *Model) setError(msg string) {
	m.status, m.statusErr = msg, true
}

// applyFilter replaces the expression filter, keeping IN/NOT_IN filters.
func (m *Model) applyFilter(source string) {
	var filters []columns.FilterBy
	for _, f := range m.state.FilterBys {
		if f.Type != columns.FilterExpr {
			filters = append(filters, f)
		}
	}
	if source != "" {
		if _, err := expr.Compile(source); err != nil {
			m.setError(err.Error())
			m.scrollToCursor()
			return
		}
		filters = append(filters, columns.FilterBy{Type: columns.FilterExpr, Expr: source})
	}
	m.dispatch(store.FilterBy{Filters: filters})
	m.status = "filter applied"
}

// moveTo focuses row i, clamped to the rasterization.
func (m *Model) moveTo(i int) {
	n := len(m.state.RasterizedRows)
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	m.cursor = i
	if n > 0 {
		m.cursorKey = m.state.RasterizedRows[i].Key()
	}
	m.scrollToCursor()
}

// scrollToCursor reports the viewport that keeps the cursor visible.
func (m *Model) scrollToCursor() {
	if m.height == 0 {
		return
	}
	body := m.bodyHeight()
	top := int(m.state.Viewport.Normalize().ScrollTop)
	if m.state.Viewport.RowHeight != 1 {
		top = 0
	}
	if m.cursor < top {
		top = m.cursor
	}
	if m.cursor >= top+body {
		top = m.cursor - body + 1
	}
	if maxTop := len(m.state.RasterizedRows) - body; top > maxTop {
		top = max(maxTop, 0)
	}
	m.state = m.store.Dispatch(store.ChangeRowDisplayBounds{Viewport: raster.Viewport{
		ScrollTop: float64(top),
		Height:    float64(body),
		RowHeight: 1,
	}})
}

// bodyHeight is the number of grid rows that fit below the chrome.
func (m *Model) bodyHeight() int {
	chrome := 3 // title, column headers, status line
	chrome += lipgloss.Height(m.footerView())
	if m.state.ShowSettingsPopover {
		chrome += lipgloss.Height(m.settingsView())
	}
	return max(m.height-chrome, 1)
}

func (m *Model) current() rows.Row {
	if m.cursor < 0 || m.cursor >= len(m.state.RasterizedRows) {
		return nil
	}
	return m.state.RasterizedRows[m.cursor]
}

func (m *Model) currentCell() (rows.Row, columns.ColumnDef, bool) {
	r := m.current()
	if r == nil || m.col >= len(m.state.Columns) {
		return nil, columns.ColumnDef{}, false
	}
	return r, m.state.Columns[m.col], true
}

// toggleSort flips the direction of col when it is the primary sort key and
// makes it the only key otherwise.
func toggleSort(current []columns.SortBy, col columns.ColumnDef) []columns.SortBy {
	if len(current) > 0 && current[0].Tag == col.Tag {
		next := slices.Clone(current)
		next[0].Direction = next[0].Direction.Flip()
		return next
	}
	return []columns.SortBy{{ColumnDef: col, Direction: columns.Ascending}}
}

// toggleGroup removes col from the grouping columns or appends it.
func toggleGroup(current []columns.ColumnDef, col columns.ColumnDef) []columns.ColumnDef {
	i := slices.IndexFunc(current, func(c columns.ColumnDef) bool { return c.Tag == col.Tag })
	if i >= 0 {
		return slices.Delete(slices.Clone(current), i, i+1)
	}
	return append(slices.Clone(current), col)
}

func exprFilter(filters []columns.FilterBy) string {
	for _, f := range filters {
		if f.Type == columns.FilterExpr {
			return f.Expr
		}
	}
	return ""
}
