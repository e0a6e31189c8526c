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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
	"github.com/google/gigagrid/core/views"
)

const (
	maxCellWidth = 24
	indentWidth  = 2
)

func (m Model) View() string {
	if m.height == 0 {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(m.title))
	b.WriteString("\n")
	if m.state.ShowSettingsPopover {
		b.WriteString(m.settingsView())
		b.WriteString("\n")
	}

	visible := m.visibleRows()
	treeWidth, widths := m.columnWidths(visible)

	header := []string{pad("", treeWidth+2, false)}
	for i, col := range m.state.Columns {
		text := col.DisplayName()
		if sym := columns.AggregationSymbol(col.Aggregation); sym != "" {
			text += " " + sym
		}
		if dir, ok := m.state.SortDirection(col.Tag); ok {
			text += " " + views.SortMark(dir)
		}
		style := styleHeader
		if i == m.col {
			style = styleHeaderCur
		}
		header = append(header, style.Render(pad(truncate(text, widths[i]), widths[i], isNumeric(col))))
	}
	b.WriteString(strings.Join(header, " "))
	b.WriteString("\n")

	for i, r := range visible {
		b.WriteString(m.rowView(m.state.DisplayStart+i, r, treeWidth, widths))
		b.WriteString("\n")
	}
	for i := len(visible); i < m.bodyHeight(); i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

// visibleRows returns the part of the display window that fits the body.
func (m Model) visibleRows() []rows.Row {
	visible := m.state.VisibleRows()
	if body := m.bodyHeight(); len(visible) > body {
		visible = visible[:body]
	}
	return visible
}

func (m Model) rowView(index int, r rows.Row, treeWidth int, widths []int) string {
	marker := "  "
	if index == m.cursor {
		marker = styleCursor.Render("▸ ")
	}

	base := styleDetail
	if !r.IsDetail() {
		base = styleSubtotal
	}
	if r.IsSelected() {
		base = base.Inherit(styleSelected)
	}

	cells := []string{marker + base.Render(pad(treeLabel(r), treeWidth, false))}
	key := r.Key()
	for i, col := range m.state.Columns {
		text := pad(truncate(views.CellText(r, col, m.formatter), widths[i]), widths[i], isNumeric(col))
		style := base
		if m.state.IsCellSelected(key, col.Tag) {
			style = style.Inherit(styleCellSel)
		}
		cells = append(cells, style.Render(text))
	}
	return strings.Join(cells, " ")
}

// treeLabel renders the tree column: indentation, a collapse marker and the
// bucket title with its detail count.
func treeLabel(r rows.Row) string {
	depth := len(r.SectorPath())
	sub, ok := r.(*rows.SubtotalRow)
	if !ok {
		return strings.Repeat(" ", depth*indentWidth) + "·"
	}
	marker := "▾"
	if sub.Collapsed {
		marker = "▸"
	}
	if depth > 0 {
		depth--
	}
	return fmt.Sprintf("%s%s %s (%d)", strings.Repeat(" ", depth*indentWidth), marker,
		views.SubtotalTitle(sub), len(sub.AllDetailRows()))
}

func (m Model) columnWidths(visible []rows.Row) (int, []int) {
	treeWidth := 1
	widths := make([]int, len(m.state.Columns))
	for i, col := range m.state.Columns {
		widths[i] = lipgloss.Width(col.DisplayName()) + 2
	}
	for _, r := range visible {
		treeWidth = max(treeWidth, lipgloss.Width(treeLabel(r)))
		for i, col := range m.state.Columns {
			widths[i] = max(widths[i], lipgloss.Width(views.CellText(r, col, m.formatter)))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}
	return min(treeWidth, 2*maxCellWidth), widths
}

func (m Model) settingsView() string {
	describe := func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, ", ")
	}
	var grouping, sorting, filters []string
	for _, c := range m.state.SubtotalBys {
		grouping = append(grouping, c.DisplayName())
	}
	for _, s := range m.state.SortBys {
		sorting = append(sorting, s.DisplayName()+" "+views.SortMark(s.Direction))
	}
	for _, f := range m.state.FilterBys {
		filters = append(filters, views.DescribeFilter(f))
	}
	return styleSettingBox.Render(strings.Join([]string{
		"Grouped by: " + describe(grouping),
		"Sorted by:  " + describe(sorting),
		"Filters:    " + describe(filters),
	}, "\n"))
}

func (m Model) statusView() string {
	if m.statusErr {
		return styleError.Render(m.status)
	}
	n := len(m.state.RasterizedRows)
	text := "no rows"
	if n > 0 {
		text = fmt.Sprintf("row %d of %d", m.cursor+1, n)
	}
	if m.status != "" {
		text += " · " + m.status
	}
	return styleStatus.Render(text)
}

func (m Model) footerView() string {
	if m.filtering {
		return m.input.View()
	}
	return m.help.View(m.keys)
}

func isNumeric(col columns.ColumnDef) bool {
	return col.IsNumeric() || col.Aggregation != columns.AggNone
}

func pad(s string, width int, right bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
