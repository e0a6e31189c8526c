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

// Package raster flattens a row tree into the ordered, filtered and
// collapse-aware sequence of rows a renderer draws, and computes the window
// of that sequence that is currently on screen.
package raster

import (
	"sort"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
)

// Options controls rasterization.
type Options struct {
	// ShowGrandTotal emits the root row first.
	ShowGrandTotal bool
}

// Result is the output of Rasterize.
type Result struct {
	// Root is the tree root with hidden flags applied.
	Root *rows.SubtotalRow
	// Rows is the flattened sequence.
	Rows []rows.Row
	// Skipped holds filters that could not be compiled.
	Skipped []error
}

// Rasterize applies filters to root and flattens it.
func Rasterize(root *rows.SubtotalRow, sortBys []columns.SortBy, filterBys []columns.FilterBy, opts Options) Result {
	preds, skipped := CompileFilters(filterBys)
	filtered := ApplyFilters(root, preds)
	return Result{
		Root:    filtered,
		Rows:    Flatten(filtered, sortBys, opts),
		Skipped: skipped,
	}
}

// Flatten walks root in pre-order. Hidden rows are skipped, collapsed rows
// are emitted without their descendants, and siblings are ordered by
// sortBys, first key primary. Ties keep tree order.
func Flatten(root *rows.SubtotalRow, sortBys []columns.SortBy, opts Options) []rows.Row {
	f := &flattener{sortBys: sortBys}
	if opts.ShowGrandTotal {
		if root.Hidden {
			return f.out
		}
		f.out = append(f.out, root)
		if root.Collapsed {
			return f.out
		}
	}
	f.descend(root)
	return f.out
}

type flattener struct {
	sortBys []columns.SortBy
	out     []rows.Row
}

func (f *flattener) descend(node *rows.SubtotalRow) {
	if !node.IsLeaf() {
		for _, child := range f.sortedChildren(node.Children()) {
			if child.Hidden {
				continue
			}
			f.out = append(f.out, child)
			if !child.Collapsed {
				f.descend(child)
			}
		}
		return
	}
	for _, d := range f.sortedDetails(node.DetailRows) {
		if !d.Hidden {
			f.out = append(f.out, d)
		}
	}
}

func (f *flattener) sortedChildren(children []*rows.SubtotalRow) []*rows.SubtotalRow {
	if len(f.sortBys) == 0 || len(children) < 2 {
		return children
	}
	sorted := append([]*rows.SubtotalRow(nil), children...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return f.less(sorted[i], sorted[j])
	})
	return sorted
}

func (f *flattener) sortedDetails(details []*rows.DetailRow) []*rows.DetailRow {
	if len(f.sortBys) == 0 || len(details) < 2 {
		return details
	}
	sorted := append([]*rows.DetailRow(nil), details...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return f.less(sorted[i], sorted[j])
	})
	return sorted
}

// less compares using multi-column sort order. Missing values sort last in
// either direction.
func (f *flattener) less(a, b rows.Row) bool {
	for _, sb := range f.sortBys {
		va, vb := SortValue(a, sb.Tag), SortValue(b, sb.Tag)
		aMissing, bMissing := columns.IsMissing(va), columns.IsMissing(vb)
		if aMissing || bMissing {
			if aMissing == bMissing {
				continue
			}
			return bMissing
		}
		cmp := columns.CompareValues(va, vb, sb.IsNumeric())
		if cmp != 0 {
			if sb.Direction == columns.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
	}
	return false
}

// SortValue returns the value a row is sorted by for tag: the raw value of
// a detail row, the bucket value of a subtotal row grouped by tag, and the
// aggregate otherwise.
func SortValue(r rows.Row, tag string) any {
	if s, ok := r.(*rows.SubtotalRow); ok && s.Bucket.ColTag == tag {
		return s.Bucket.Value
	}
	return r.GetByColTag(tag)
}
