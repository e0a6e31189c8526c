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

package views

import (
	"strings"

	"github.com/google/safehtml"

	"github.com/google/gigagrid/core/aggregates"
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/query"
	"github.com/google/gigagrid/core/rows"
	"github.com/google/gigagrid/core/store"
)

// GridViewModel contains the displayed window of a grid formatted for template consumption
type GridViewModel struct {
	Title      string
	Headers    []HeaderInfo
	Rows       []RowView
	CurrentURL safehtml.URL

	// Pagination info
	TotalRows int // Rows in the rasterization
	FirstRow  int // 1-based index of the first displayed row
	LastRow   int // 1-based index of the last displayed row
	HasPrev   bool
	HasNext   bool
	PrevURL   safehtml.URL
	NextURL   safehtml.URL

	// Settings panel
	ShowSettings bool
	SettingsURL  safehtml.URL
	Grouping     []string // Display names of the grouping columns
	Sorting      []string // "Name ▲" per sort key
	Filters      []string // Filter descriptions

	// Warnings about URL state that could not be applied
	Warnings []string

	// Timing information
	RenderTimeMs    string
	TimingBreakdown []TimingEntry
}

// TimingEntry is one measured step of handling a request.
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// HeaderInfo contains information about a column for UI display
type HeaderInfo struct {
	Tag         string
	DisplayName string
	Symbol      string // Aggregation symbol, empty for plain columns
	Numeric     bool   // Right-aligned
	Grouped     bool
	SortMark    string       // "▲", "▼" or empty
	SortURL     safehtml.URL // URL to sort by this column
	GroupURL    safehtml.URL // URL to toggle grouping by this column
}

// RowView is one displayed row.
type RowView struct {
	Key        string
	Subtotal   bool
	Collapsed  bool
	Selected   bool
	Indent     string
	Title      string // Bucket title of a subtotal row
	Count      int    // Detail rows below a subtotal row
	ToggleURL  safehtml.URL
	SelectURL  safehtml.URL
	Cells      []CellView
	DrillURL   safehtml.URL // Filter to this bucket and drop its grouping level
	CanDrillIn bool
}

// CellView is one formatted cell.
type CellView struct {
	Value    string
	Numeric  bool
	Selected bool
}

// LandingViewModel lists the grids a server offers.
type LandingViewModel struct {
	Title string
	Grids []GridLink
}

// GridLink points to one grid.
type GridLink struct {
	Name    string
	Title   string
	Records int
	URL     safehtml.URL
}

const indentUnit = "    "

// BuildGridViewModel creates a view model of the display window of s. Links
// are derived from q, which should describe s.
func BuildGridViewModel(title string, s *store.State, q *query.Query, f *aggregates.Formatter) GridViewModel {
	if f == nil {
		f = aggregates.DefaultFormatter
	}
	vm := GridViewModel{
		Title:        title,
		CurrentURL:   q.ToSafeURL(),
		TotalRows:    len(s.RasterizedRows),
		ShowSettings: s.ShowSettingsPopover,
		SettingsURL:  q.WithSettingsToggled(),
	}

	cols := VisibleColumns(s, q)
	for _, col := range cols {
		h := HeaderInfo{
			Tag:         col.Tag,
			DisplayName: col.DisplayName(),
			Symbol:      columns.AggregationSymbol(col.Aggregation),
			Numeric:     col.IsNumeric() || col.Aggregation != columns.AggNone,
			Grouped:     q.IsColumnGrouped(col.Tag),
			SortURL:     q.WithSortToggled(col.Tag),
			GroupURL:    q.WithGroupedColumnToggled(col.Tag),
		}
		if dir, ok := s.SortDirection(col.Tag); ok {
			h.SortMark = SortMark(dir)
		}
		vm.Headers = append(vm.Headers, h)
	}

	for _, r := range s.VisibleRows() {
		vm.Rows = append(vm.Rows, buildRow(r, cols, s, q, f))
	}

	if len(vm.Rows) > 0 {
		vm.FirstRow = s.DisplayStart + 1
		vm.LastRow = s.DisplayEnd
	}
	if s.DisplayStart > 0 {
		vm.HasPrev = true
		vm.PrevURL = q.WithScroll(s.DisplayStart - q.Limit)
	}
	if s.DisplayEnd < len(s.RasterizedRows) {
		vm.HasNext = true
		vm.NextURL = q.WithScroll(s.DisplayStart + q.Limit)
	}

	for _, c := range s.SubtotalBys {
		vm.Grouping = append(vm.Grouping, c.DisplayName())
	}
	for _, sb := range s.SortBys {
		vm.Sorting = append(vm.Sorting, sb.DisplayName()+" "+SortMark(sb.Direction))
	}
	for _, fb := range s.FilterBys {
		vm.Filters = append(vm.Filters, DescribeFilter(fb))
	}
	return vm
}

func buildRow(r rows.Row, cols []columns.ColumnDef, s *store.State, q *query.Query, f *aggregates.Formatter) RowView {
	key := r.Key()
	rv := RowView{
		Key:       key.String(),
		Selected:  r.IsSelected(),
		SelectURL: q.WithSelectedToggled(key),
	}
	depth := len(r.SectorPath())
	if sub, ok := r.(*rows.SubtotalRow); ok {
		rv.Subtotal = true
		rv.Collapsed = sub.Collapsed
		rv.Title = SubtotalTitle(sub)
		rv.Count = len(sub.AllDetailRows())
		rv.ToggleURL = q.WithCollapsedToggled(key)
		if sub.Bucket.ColTag != "" {
			rv.CanDrillIn = true
			rv.DrillURL = q.WithFilterAndUngrouped(sub.Bucket.ColTag, sub.Title())
		}
		if depth > 0 {
			depth--
		}
	}
	rv.Indent = strings.Repeat(indentUnit, depth)

	for _, col := range cols {
		rv.Cells = append(rv.Cells, CellView{
			Value:    CellText(r, col, f),
			Numeric:  col.IsNumeric() || col.Aggregation != columns.AggNone,
			Selected: s.IsCellSelected(key, col.Tag),
		})
	}
	return rv
}

// VisibleColumns returns the columns of s in the order q lists them. All
// columns are visible when q lists none.
func VisibleColumns(s *store.State, q *query.Query) []columns.ColumnDef {
	if q == nil || len(q.Columns) == 0 {
		return s.Columns
	}
	var out []columns.ColumnDef
	for _, tag := range q.Columns {
		if col, ok := s.ColumnByTag(tag); ok {
			out = append(out, col)
		}
	}
	return out
}

// CellText formats the value of col in r. Subtotal rows show aggregates
// only; plain columns stay blank.
func CellText(r rows.Row, col columns.ColumnDef, f *aggregates.Formatter) string {
	if sub, ok := r.(*rows.SubtotalRow); ok {
		if col.Aggregation == columns.AggNone {
			if sub.Bucket.ColTag == col.Tag && sub.Bucket.ColTag != "" {
				return sub.Title()
			}
			return ""
		}
	}
	return f.Cell(col, r.Get(col))
}

// SubtotalTitle returns the label of a subtotal row.
func SubtotalTitle(sub *rows.SubtotalRow) string {
	if sub.IsRoot() {
		return "Grand Total"
	}
	return sub.Title()
}

// SortMark returns the header marker for a sort direction.
func SortMark(d columns.Direction) string {
	if d == columns.Descending {
		return "▼"
	}
	return "▲"
}

// DescribeFilter renders a filter for display.
func DescribeFilter(fb columns.FilterBy) string {
	switch fb.Type {
	case columns.FilterIn:
		return fb.ColTag + " in (" + strings.Join(fb.Values, ", ") + ")"
	case columns.FilterNotIn:
		return fb.ColTag + " not in (" + strings.Join(fb.Values, ", ") + ")"
	default:
		return fb.Expr
	}
}
