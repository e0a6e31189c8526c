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

// Package store holds the grid state machine. Reduce maps a state and an
// action to the next state; Store drives Reduce for a single grid and
// notifies subscribers when the state changes.
package store

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/grouping"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
)

// Reduce applies action to state and returns the next state. state is never
// modified; when the action changes nothing state itself is returned. A nil
// state is initialized from props before the action is applied.
func Reduce(state *State, action Action, props *Props) *State {
	if props == nil {
		props = &Props{}
	}
	if a, ok := action.(Initialize); ok {
		if a.Props != nil {
			props = a.Props
		}
		return initialize(state, props)
	}
	if state == nil {
		state = initialize(nil, props)
	}
	switch a := action.(type) {
	case SubtotalBy:
		return subtotalBy(state, a, props)
	case SortBy:
		return sortBy(state, a, props)
	case FilterBy:
		return filterBy(state, a, props)
	case ToggleCollapse:
		return toggleCollapse(state, a, props)
	case CollapseAll:
		return collapseAll(state, a, props)
	case ToggleRowSelect:
		return toggleRowSelect(state, a, props)
	case ToggleCellSelect:
		return toggleCellSelect(state, a, props)
	case ChangeRowDisplayBounds:
		return changeRowDisplayBounds(state, a)
	case ToggleSettingsPopover:
		next := state.next()
		next.ShowSettingsPopover = !state.ShowSettingsPopover
		return next
	case nil:
		return state
	default:
		props.logger().Warn("ignoring unknown action", "type", action.Type())
		return state
	}
}

func initialize(prev *State, props *Props) *State {
	logger := props.logger()
	known := columns.KnownTags(props.Data)
	s := &State{
		Columns:     props.ColumnDefs,
		SubtotalBys: validSubtotalBys(props.InitialSubtotalBys, known, logger),
		SortBys:     validSortBys(props.InitialSortBys, known, logger),
		FilterBys:   props.InitialFilterBys,
		Viewport:    props.initialViewport(),
		knownTags:   known,
	}
	if prev != nil {
		s.Version = prev.Version + 1
		s.Viewport = prev.Viewport
	}
	tree := grouping.BuildTree(props.Data, s.SubtotalBys, props.groupingOptions())
	grouping.AggregateTree(tree, s.Columns)
	applyInitialFlags(tree.Root(), props)
	s.Tree = tree
	s.rasterize(props)
	logger.Debug("initialized grid", "records", len(props.Data), "rows", len(s.RasterizedRows))
	return s
}

func subtotalBy(s *State, a SubtotalBy, props *Props) *State {
	cols := validSubtotalBys(a.Columns, s.known(props), props.logger())
	if slices.Equal(tagsOf(cols), s.SubtotalTags()) {
		return s
	}
	tree := grouping.BuildTree(props.Data, cols, props.groupingOptions())
	grouping.AggregateTree(tree, s.Columns)
	snapshotFlags(s.Root()).restore(tree.Root())

	next := s.next()
	next.SubtotalBys = cols
	next.Tree = tree
	if next.SelectedCell != nil && tree.Find(next.SelectedCell.Row) == nil {
		next.SelectedCell = nil
	}
	next.rasterize(props)
	return next
}

func sortBy(s *State, a SortBy, props *Props) *State {
	sortBys := validSortBys(a.Columns, s.known(props), props.logger())
	if slices.Equal(sortBys, s.SortBys) {
		return s
	}
	next := s.next()
	next.SortBys = sortBys
	next.flatten(props)
	return next
}

func filterBy(s *State, a FilterBy, props *Props) *State {
	if slices.EqualFunc(a.Filters, s.FilterBys, sameFilter) {
		return s
	}
	next := s.next()
	next.FilterBys = a.Filters
	next.rasterize(props)
	return next
}

func toggleCollapse(s *State, a ToggleCollapse, props *Props) *State {
	if a.Key.IsDetail() {
		return s
	}
	target := s.Tree.Subtotal(a.Key.Segments())
	if target == nil {
		props.logger().Debug("collapse of unknown row", "key", a.Key)
		return s
	}
	collapse := !target.Collapsed
	if a.Collapse != nil {
		collapse = *a.Collapse
	}
	root := updateSubtotal(s.Root(), a.Key.Segments(), func(n *rows.SubtotalRow) *rows.SubtotalRow {
		return withCollapsed(n, collapse)
	})
	return s.withRoot(root, props)
}

func collapseAll(s *State, a CollapseAll, props *Props) *State {
	root := mapTree(s.Root(), func(n *rows.SubtotalRow) *rows.SubtotalRow {
		if n.IsRoot() {
			return n
		}
		return withCollapsed(n, a.Collapse)
	}, nil)
	return s.withRoot(root, props)
}

func toggleRowSelect(s *State, a ToggleRowSelect, props *Props) *State {
	logger := props.logger()
	row := s.Tree.Find(a.Key)
	if row == nil {
		logger.Debug("selection of unknown row", "key", a.Key)
		return s
	}
	decision := Accept()
	if props.OnRowClick != nil {
		decision = props.OnRowClick(row, s)
	}
	selected := !row.IsSelected()
	switch decision.Verdict {
	case VerdictReject:
		logger.Debug("row selection rejected", "key", a.Key)
		return s
	case VerdictOverride:
		selected = decision.Selected
	}
	root := s.Root()
	if !props.EnableMultiRowSelect {
		root = clearSelection(root)
	}
	root = setSelected(root, a.Key, selected)
	return s.withRoot(root, props)
}

func toggleCellSelect(s *State, a ToggleCellSelect, props *Props) *State {
	logger := props.logger()
	row := s.Tree.Find(a.Key)
	if row == nil {
		logger.Debug("selection of unknown cell", "key", a.Key, "column", a.ColTag)
		return s
	}
	col, ok := s.ColumnByTag(a.ColTag)
	if !ok {
		logger.Warn("selection of unknown column", "column", a.ColTag)
		return s
	}
	decision := Accept()
	if props.OnCellClick != nil {
		decision = props.OnCellClick(row, col)
	}
	before := s.IsCellSelected(a.Key, a.ColTag)
	selected := !before
	switch decision.Verdict {
	case VerdictReject:
		logger.Debug("cell selection rejected", "key", a.Key, "column", a.ColTag)
		return s
	case VerdictOverride:
		selected = decision.Selected
	}
	if selected == before {
		return s
	}
	next := s.next()
	next.SelectedCell = nil
	if selected {
		next.SelectedCell = &CellRef{Row: a.Key, ColTag: a.ColTag}
	}
	return next
}

func changeRowDisplayBounds(s *State, a ChangeRowDisplayBounds) *State {
	vp := a.Viewport.Normalize()
	start, end := raster.Window(len(s.RasterizedRows), vp)
	if vp == s.Viewport && start == s.DisplayStart && end == s.DisplayEnd {
		return s
	}
	next := s.next()
	next.Viewport = vp
	next.DisplayStart, next.DisplayEnd = start, end
	return next
}

// withRoot returns s when root is unchanged, otherwise a new state over root
// with the rows flattened again.
func (s *State) withRoot(root *rows.SubtotalRow, props *Props) *State {
	if root == s.Root() {
		return s
	}
	next := s.next()
	next.Tree = s.Tree.WithRoot(root)
	next.flatten(props)
	return next
}

// rasterize applies the filters to the tree and flattens it.
func (s *State) rasterize(props *Props) {
	res := raster.Rasterize(s.Root(), s.SortBys, s.FilterBys, props.rasterOptions())
	for _, err := range res.Skipped {
		props.logger().Warn("skipping filter", "err", err)
	}
	if res.Root != s.Root() {
		s.Tree = s.Tree.WithRoot(res.Root)
	}
	s.withRows(res.Rows)
}

// flatten re-orders the tree without re-evaluating filters.
func (s *State) flatten(props *Props) {
	s.withRows(raster.Flatten(s.Root(), s.SortBys, props.rasterOptions()))
}

func (s *State) known(props *Props) map[string]struct{} {
	if s.knownTags == nil {
		return columns.KnownTags(props.Data)
	}
	return s.knownTags
}

// validSubtotalBys drops columns absent from every record and repeated
// columns.
func validSubtotalBys(cols []columns.ColumnDef, known map[string]struct{}, logger *log.Logger) []columns.ColumnDef {
	var out []columns.ColumnDef
	seen := map[string]bool{}
	for _, c := range cols {
		if _, ok := known[c.Tag]; !ok {
			logger.Warn("skipping subtotal column not present in data", "column", c.Tag)
			continue
		}
		if seen[c.Tag] {
			logger.Warn("skipping repeated subtotal column", "column", c.Tag)
			continue
		}
		seen[c.Tag] = true
		out = append(out, c)
	}
	return out
}

func validSortBys(sortBys []columns.SortBy, known map[string]struct{}, logger *log.Logger) []columns.SortBy {
	var out []columns.SortBy
	for _, sb := range sortBys {
		if _, ok := known[sb.Tag]; !ok {
			logger.Warn("skipping sort column not present in data", "column", sb.Tag)
			continue
		}
		if sb.Direction == "" {
			sb.Direction = columns.Ascending
		}
		out = append(out, sb)
	}
	return out
}

func tagsOf(cols []columns.ColumnDef) []string {
	tags := make([]string, len(cols))
	for i, c := range cols {
		tags[i] = c.Tag
	}
	return tags
}

func sameFilter(a, b columns.FilterBy) bool {
	return a.ColTag == b.ColTag && a.Type == b.Type && a.Expr == b.Expr && slices.Equal(a.Values, b.Values)
}
