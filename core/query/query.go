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

// Package query encodes the view state of a grid in URL parameters so a
// rendered grid can link to its own transitions.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
	"github.com/google/gigagrid/core/store"
)

// DefaultLimit is the number of rows shown when the URL does not say.
const DefaultLimit = 25

// MaxLimit bounds the number of rows a URL can ask for.
const MaxLimit = 1 << 20

// SortParam is one sort key.
type SortParam struct {
	Tag       string
	Direction columns.Direction
}

// Query represents the parsed state of a grid view URL
type Query struct {
	// Base path (e.g., "/grid")
	Path string

	Grid     string              // The grid being viewed
	Columns  []string            // Ordered list of visible columns (reordered: filtered, grouped, then others)
	Grouped  []string            // Ordered list of columns to subtotal by
	Sort     []SortParam         // Sort keys, primary first
	Filters  map[string][]string // Columns restricted to the listed values
	Excludes map[string][]string // Columns excluding the listed values
	Where    string              // Filter expression
	// Collapsed and Selected hold row keys in their string form.
	Collapsed []string
	Selected  []string
	Scroll    int // Index of the first displayed row
	Limit     int // Number of rows to display
	Settings  bool
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) *Query {
	state := &Query{
		Path:     u.Path,
		Filters:  map[string][]string{},
		Excludes: map[string][]string{},
		Limit:    DefaultLimit,
	}

	q := u.Query()

	state.Grid = q.Get("grid")
	state.Columns = splitList(q.Get("columns"))
	state.Grouped = splitList(q.Get("grouped"))

	// Extract sort parameter (format: col:desc,col2)
	for _, part := range splitList(q.Get("sort")) {
		sp := SortParam{Tag: part, Direction: columns.Ascending}
		if colonIdx := strings.LastIndex(part, ":"); colonIdx != -1 {
			switch dir := columns.Direction(strings.ToUpper(part[colonIdx+1:])); dir {
			case columns.Ascending, columns.Descending:
				sp = SortParam{Tag: part[:colonIdx], Direction: dir}
			}
		}
		state.Sort = append(state.Sort, sp)
	}

	// Extract filter parameters (format: filter:columnName=value, repeated)
	for key, values := range q {
		switch {
		case strings.HasPrefix(key, "filter:") && len(values) > 0:
			state.Filters[strings.TrimPrefix(key, "filter:")] = values
		case strings.HasPrefix(key, "exclude:") && len(values) > 0:
			state.Excludes[strings.TrimPrefix(key, "exclude:")] = values
		}
	}
	state.Where = q.Get("where")

	state.Collapsed = q["collapsed"]
	state.Selected = q["selected"]

	if n, err := strconv.Atoi(q.Get("scroll")); err == nil && n >= 0 {
		state.Scroll = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		state.Limit = min(n, MaxLimit)
	}
	state.Settings = q.Get("settings") == "1"

	// Reorder columns: filtered columns first, then grouped columns, then others
	state.reorderColumns()

	return state
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// FromState captures the view state of s.
func FromState(path, grid string, s *store.State) *Query {
	q := &Query{
		Path:     path,
		Grid:     grid,
		Grouped:  s.SubtotalTags(),
		Filters:  map[string][]string{},
		Excludes: map[string][]string{},
		Scroll:   s.DisplayStart,
		Limit:    DefaultLimit,
		Settings: s.ShowSettingsPopover,
	}
	for _, c := range s.Columns {
		q.Columns = append(q.Columns, c.Tag)
	}
	for _, sb := range s.SortBys {
		q.Sort = append(q.Sort, SortParam{Tag: sb.Tag, Direction: sb.Direction})
	}
	for _, f := range s.FilterBys {
		switch f.Type {
		case columns.FilterIn:
			q.Filters[f.ColTag] = append(q.Filters[f.ColTag], f.Values...)
		case columns.FilterNotIn:
			q.Excludes[f.ColTag] = append(q.Excludes[f.ColTag], f.Values...)
		case columns.FilterExpr:
			q.Where = f.Expr
		}
	}
	if vp := s.Viewport.Normalize(); vp.Height > 0 {
		q.Limit = int(max(min(vp.Height/vp.RowHeight, MaxLimit), 1))
	}
	s.Root().Walk(func(r rows.Row) bool {
		if sub, ok := r.(*rows.SubtotalRow); ok && sub.Collapsed {
			q.Collapsed = append(q.Collapsed, sub.Key().String())
		}
		if r.IsSelected() {
			q.Selected = append(q.Selected, r.Key().String())
		}
		return true
	})
	q.reorderColumns()
	return q
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	clone.Columns = slices.Clone(s.Columns)
	clone.Grouped = slices.Clone(s.Grouped)
	clone.Sort = slices.Clone(s.Sort)
	clone.Collapsed = slices.Clone(s.Collapsed)
	clone.Selected = slices.Clone(s.Selected)
	clone.Filters = cloneValues(s.Filters)
	clone.Excludes = cloneValues(s.Excludes)
	return &clone
}

func cloneValues(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// reorderColumns reorders the Columns slice to maintain:
// 1. Filtered columns (leftmost) - only columns that are filtered but NOT grouped
// 2. Grouped columns (middle) - in Grouped order (the grouping hierarchy)
// 3. Other columns (rightmost)
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 {
		return
	}

	groupedCols := make(map[string]bool)
	for _, colName := range s.Grouped {
		groupedCols[colName] = true
	}
	visibleCols := make(map[string]bool)
	for _, colName := range s.Columns {
		visibleCols[colName] = true
	}

	var filtered, others []string
	for _, colName := range s.Columns {
		switch {
		case groupedCols[colName]:
			// added from Grouped in their order
		case s.isFiltered(colName):
			filtered = append(filtered, colName)
		default:
			others = append(others, colName)
		}
	}

	var grouped []string
	for _, colName := range s.Grouped {
		if visibleCols[colName] {
			grouped = append(grouped, colName)
		}
	}

	s.Columns = make([]string, 0, len(filtered)+len(grouped)+len(others))
	s.Columns = append(s.Columns, filtered...)
	s.Columns = append(s.Columns, grouped...)
	s.Columns = append(s.Columns, others...)
}

func (s *Query) isFiltered(column string) bool {
	return len(s.Filters[column]) > 0 || len(s.Excludes[column]) > 0
}

// WithColumnToggled returns a URL with the column toggled (added if not present, removed if present)
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newState.Columns = toggle(s.Columns, column)
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// IsColumnVisible checks if a column is in the visible columns list
func (s *Query) IsColumnVisible(column string) bool {
	return slices.Contains(s.Columns, column)
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled
// If the column is already grouped, it's removed from grouping
// If the column is not grouped, it's added to the end of the grouping order
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newState.Grouped = toggle(s.Grouped, column)
	// Row keys depend on the grouping.
	newState.Collapsed = nil
	newState.Selected = nil
	newState.Scroll = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// IsColumnGrouped checks if a column is in the grouped columns list
func (s *Query) IsColumnGrouped(column string) bool {
	return slices.Contains(s.Grouped, column)
}

// SortDirection returns the direction the column is sorted in, if any.
func (s *Query) SortDirection(column string) (columns.Direction, bool) {
	for _, sp := range s.Sort {
		if sp.Tag == column {
			return sp.Direction, true
		}
	}
	return "", false
}

// WithSortToggled returns a URL that sorts by column alone: ascending if it
// is not the primary sort key, otherwise in the flipped direction.
func (s *Query) WithSortToggled(column string) safehtml.URL {
	newState := s.Clone()
	dir := columns.Ascending
	if len(s.Sort) > 0 && s.Sort[0].Tag == column {
		dir = s.Sort[0].Direction.Flip()
	}
	newState.Sort = []SortParam{{Tag: column, Direction: dir}}
	return newState.ToSafeURL()
}

// WithFilter returns a URL restricting column to values. No values removes
// the restriction.
func (s *Query) WithFilter(column string, values ...string) safehtml.URL {
	newState := s.Clone()
	if len(values) == 0 {
		delete(newState.Filters, column)
	} else {
		newState.Filters[column] = slices.Clone(values)
	}
	newState.Scroll = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithExclude returns a URL excluding values from column. No values removes
// the exclusion.
func (s *Query) WithExclude(column string, values ...string) safehtml.URL {
	newState := s.Clone()
	if len(values) == 0 {
		delete(newState.Excludes, column)
	} else {
		newState.Excludes[column] = slices.Clone(values)
	}
	newState.Scroll = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithWhere returns a URL with the filter expression replaced.
func (s *Query) WithWhere(expr string) safehtml.URL {
	newState := s.Clone()
	newState.Where = expr
	newState.Scroll = 0
	return newState.ToSafeURL()
}

// WithFilterAndUngrouped returns a URL that adds a filter for the column and removes it from grouping
func (s *Query) WithFilterAndUngrouped(column, value string) safehtml.URL {
	newState := s.Clone()
	newState.Filters[column] = []string{value}
	newState.Grouped = slices.DeleteFunc(newState.Grouped, func(c string) bool { return c == column })
	newState.Collapsed = nil
	newState.Selected = nil
	newState.Scroll = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithCollapsedToggled returns a URL with the row collapsed or expanded.
func (s *Query) WithCollapsedToggled(key rows.Key) safehtml.URL {
	newState := s.Clone()
	newState.Collapsed = toggle(s.Collapsed, key.String())
	return newState.ToSafeURL()
}

// IsCollapsed checks if the row is in the collapsed list
func (s *Query) IsCollapsed(key rows.Key) bool {
	return slices.Contains(s.Collapsed, key.String())
}

// WithSelectedToggled returns a URL with the row selected or deselected.
func (s *Query) WithSelectedToggled(key rows.Key) safehtml.URL {
	newState := s.Clone()
	newState.Selected = toggle(s.Selected, key.String())
	return newState.ToSafeURL()
}

// WithScroll returns a URL starting the display at row index first.
func (s *Query) WithScroll(first int) safehtml.URL {
	newState := s.Clone()
	newState.Scroll = max(first, 0)
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different row limit
func (s *Query) WithLimit(limit int) safehtml.URL {
	newState := s.Clone()
	newState.Limit = limit
	return newState.ToSafeURL()
}

// WithSettingsToggled returns a URL showing or hiding the settings panel.
func (s *Query) WithSettingsToggled() safehtml.URL {
	newState := s.Clone()
	newState.Settings = !s.Settings
	return newState.ToSafeURL()
}

func toggle(list []string, v string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, x := range list {
		if x == v {
			found = true
		} else {
			out = append(out, x)
		}
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{
		Path: s.Path,
	}

	q := u.Query()

	if s.Grid != "" {
		q.Set("grid", s.Grid)
	}
	if len(s.Columns) > 0 {
		q.Set("columns", strings.Join(s.Columns, ","))
	}
	if len(s.Grouped) > 0 {
		q.Set("grouped", strings.Join(s.Grouped, ","))
	}
	if len(s.Sort) > 0 {
		parts := make([]string, len(s.Sort))
		for i, sp := range s.Sort {
			parts[i] = sp.Tag
			if sp.Direction == columns.Descending {
				parts[i] += ":desc"
			}
		}
		q.Set("sort", strings.Join(parts, ","))
	}
	for colName, values := range s.Filters {
		for _, v := range values {
			q.Add("filter:"+colName, v)
		}
	}
	for colName, values := range s.Excludes {
		for _, v := range values {
			q.Add("exclude:"+colName, v)
		}
	}
	if s.Where != "" {
		q.Set("where", s.Where)
	}
	for _, k := range s.Collapsed {
		q.Add("collapsed", k)
	}
	for _, k := range s.Selected {
		q.Add("selected", k)
	}
	if s.Scroll > 0 {
		q.Set("scroll", strconv.Itoa(s.Scroll))
	}
	if s.Settings {
		q.Set("settings", "1")
	}

	// Add limit parameter (always included in URL)
	q.Set("limit", strconv.Itoa(s.Limit))

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// SubtotalBys returns the grouping columns, resolving tags against defs.
func (s *Query) SubtotalBys(defs []columns.ColumnDef) []columns.ColumnDef {
	byTag := columns.ByTag(defs)
	out := make([]columns.ColumnDef, 0, len(s.Grouped))
	for _, tag := range s.Grouped {
		out = append(out, lookup(byTag, tag))
	}
	return out
}

// SortBys returns the sort keys, resolving tags against defs.
func (s *Query) SortBys(defs []columns.ColumnDef) []columns.SortBy {
	byTag := columns.ByTag(defs)
	out := make([]columns.SortBy, 0, len(s.Sort))
	for _, sp := range s.Sort {
		out = append(out, columns.SortBy{ColumnDef: lookup(byTag, sp.Tag), Direction: sp.Direction})
	}
	return out
}

// FilterBys returns the filters in a stable order.
func (s *Query) FilterBys() []columns.FilterBy {
	var out []columns.FilterBy
	for _, tag := range sortedKeys(s.Filters) {
		out = append(out, columns.FilterBy{ColTag: tag, Type: columns.FilterIn, Values: s.Filters[tag]})
	}
	for _, tag := range sortedKeys(s.Excludes) {
		out = append(out, columns.FilterBy{ColTag: tag, Type: columns.FilterNotIn, Values: s.Excludes[tag]})
	}
	if s.Where != "" {
		out = append(out, columns.FilterBy{Type: columns.FilterExpr, Expr: s.Where})
	}
	return out
}

func lookup(byTag map[string]columns.ColumnDef, tag string) columns.ColumnDef {
	if def, ok := byTag[tag]; ok {
		return def
	}
	return columns.ColumnDef{Tag: tag}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Apply dispatches the actions that bring st to the view state of s. Row
// keys that cannot be parsed are skipped and reported in the returned error.
func (s *Query) Apply(st *store.Store) (*store.State, error) {
	defs := st.State().Columns
	st.Dispatch(store.SubtotalBy{Columns: s.SubtotalBys(defs)})
	st.Dispatch(store.SortBy{Columns: s.SortBys(defs)})
	st.Dispatch(store.FilterBy{Filters: s.FilterBys()})
	if s.Settings != st.State().ShowSettingsPopover {
		st.Dispatch(store.ToggleSettingsPopover{})
	}

	var errs []error
	collapse := true
	for _, k := range s.Collapsed {
		key, err := rows.ParseKey(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		st.Dispatch(store.ToggleCollapse{Key: key, Collapse: &collapse})
	}
	for _, k := range s.Selected {
		key, err := rows.ParseKey(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r := st.State().Tree.Find(key); r != nil && !r.IsSelected() {
			st.Dispatch(store.ToggleRowSelect{Key: key})
		}
	}

	rh := st.State().Viewport.Normalize().RowHeight
	state := st.Dispatch(store.ChangeRowDisplayBounds{Viewport: raster.Viewport{
		ScrollTop: float64(s.Scroll) * rh,
		Height:    float64(s.Limit) * rh,
		RowHeight: rh,
	}})
	if len(errs) > 0 {
		return state, fmt.Errorf("applying view state: %w", errors.Join(errs...))
	}
	return state, nil
}
