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

package raster

import (
	"fmt"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/expr"
	"github.com/google/gigagrid/core/rows"
)

// Predicate decides whether a record is kept by a filter.
type Predicate func(rec columns.Record) bool

// CompileFilters turns filter descriptors into predicates. Filters that
// cannot be compiled are left out and reported in errs.
func CompileFilters(filterBys []columns.FilterBy) (preds []Predicate, errs []error) {
	for _, f := range filterBys {
		p, err := compileFilter(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		preds = append(preds, p)
	}
	return preds, errs
}

func compileFilter(f columns.FilterBy) (Predicate, error) {
	switch f.Type {
	case columns.FilterIn, columns.FilterNotIn:
		if f.ColTag == "" {
			return nil, fmt.Errorf("%s filter needs a column", f.Type)
		}
		set := make(map[string]struct{}, len(f.Values))
		for _, v := range f.Values {
			set[v] = struct{}{}
		}
		in := f.Type == columns.FilterIn
		tag := f.ColTag
		return func(rec columns.Record) bool {
			v := rec[tag]
			_, found := set[columns.FormatKey(v)]
			found = found && !columns.IsMissing(v)
			return found == in
		}, nil
	case columns.FilterExpr:
		compiled, err := expr.Compile(f.Expr)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", f.Expr, err)
		}
		return compiled.Matches, nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", f.Type)
	}
}

// ApplyFilters returns a copy of root whose hidden flags reflect preds. A
// detail row is hidden when it fails any predicate; a subtotal row is hidden
// when every detail row below it is hidden. Subtrees whose flags do not
// change are shared with root, and root itself is returned when nothing
// changes.
func ApplyFilters(root *rows.SubtotalRow, preds []Predicate) *rows.SubtotalRow {
	out, _ := applySubtotal(root, preds)
	return out
}

func keep(rec columns.Record, preds []Predicate) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

// applySubtotal returns the updated row and whether any row below it is
// visible.
func applySubtotal(row *rows.SubtotalRow, preds []Predicate) (*rows.SubtotalRow, bool) {
	var clone *rows.SubtotalRow
	ensureClone := func() *rows.SubtotalRow {
		if clone == nil {
			clone = row.Clone()
		}
		return clone
	}

	anyVisible := false
	for i, child := range row.Children() {
		updated, visible := applySubtotal(child, preds)
		anyVisible = anyVisible || visible
		if updated != child {
			ensureClone().SetChildAt(i, updated)
		}
	}
	for i, d := range row.DetailRows {
		hidden := !keep(d.Data, preds)
		anyVisible = anyVisible || !hidden
		if hidden != d.Hidden {
			updated := d.Clone()
			updated.Hidden = hidden
			ensureClone().DetailRows[i] = updated
		}
	}

	hidden := len(preds) > 0 && !anyVisible
	if hidden != row.Hidden {
		ensureClone().Hidden = hidden
	}
	if clone == nil {
		return row, anyVisible
	}
	return clone, anyVisible
}
