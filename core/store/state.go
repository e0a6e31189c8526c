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

package store

import (
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/grouping"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
)

// CellRef identifies one cell of the grid.
type CellRef struct {
	Row    rows.Key
	ColTag string
}

// State is an immutable snapshot of a grid. A transition that changes
// anything returns a new *State; one that changes nothing returns the same
// pointer.
type State struct {
	Tree    *grouping.Tree
	Columns []columns.ColumnDef

	SubtotalBys []columns.ColumnDef
	SortBys     []columns.SortBy
	FilterBys   []columns.FilterBy

	// RasterizedRows is the flattened, sorted and filtered row sequence.
	RasterizedRows []rows.Row
	// DisplayStart and DisplayEnd bound the half-open window of
	// RasterizedRows that is on screen.
	DisplayStart int
	DisplayEnd   int
	Viewport     raster.Viewport

	SelectedCell        *CellRef
	ShowSettingsPopover bool

	// Version increases by one with every new snapshot.
	Version uint64

	knownTags map[string]struct{}
}

// VisibleRows returns the rows inside the display window.
func (s *State) VisibleRows() []rows.Row {
	return s.RasterizedRows[s.DisplayStart:s.DisplayEnd]
}

// ColumnByTag returns the column definition with the given tag.
func (s *State) ColumnByTag(tag string) (columns.ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Tag == tag {
			return c, true
		}
	}
	return columns.ColumnDef{}, false
}

// Root returns the grand total row.
func (s *State) Root() *rows.SubtotalRow { return s.Tree.Root() }

// IndexOf returns the position of the row with key in RasterizedRows, or -1.
func (s *State) IndexOf(key rows.Key) int {
	for i, r := range s.RasterizedRows {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

// IsCellSelected reports whether the cell at key and tag is selected.
func (s *State) IsCellSelected(key rows.Key, tag string) bool {
	return s.SelectedCell != nil && s.SelectedCell.Row == key && s.SelectedCell.ColTag == tag
}

// SubtotalTags returns the tags of the current grouping columns.
func (s *State) SubtotalTags() []string {
	tags := make([]string, len(s.SubtotalBys))
	for i, c := range s.SubtotalBys {
		tags[i] = c.Tag
	}
	return tags
}

// SortDirection returns the direction the column with tag is sorted in.
func (s *State) SortDirection(tag string) (columns.Direction, bool) {
	for _, sb := range s.SortBys {
		if sb.Tag == tag {
			return sb.Direction, true
		}
	}
	return "", false
}

// next returns a copy of s with the version advanced.
func (s *State) next() *State {
	c := *s
	c.Version++
	return &c
}

// withRows installs a new rasterization and recomputes the window.
func (s *State) withRows(rs []rows.Row) {
	s.RasterizedRows = rs
	s.DisplayStart, s.DisplayEnd = raster.Window(len(rs), s.Viewport)
}
