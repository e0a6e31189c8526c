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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/query"
	"github.com/google/gigagrid/core/store"
)

func exampleStore() *store.Store {
	return store.New(&store.Props{
		Data: []columns.Record{
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "D", "data": 1},
			{"col1": "B", "col2": "D", "data": 1},
			{"col1": "B", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "E", "data": 1000},
		},
		ColumnDefs: []columns.ColumnDef{
			{Tag: "col1", Title: "Column 1"},
			{Tag: "col2"},
			{Tag: "data", Format: columns.FormatNumber, Aggregation: columns.AggSum},
		},
	})
}

func build(t *testing.T, raw string) (GridViewModel, *store.State) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := query.NewQuery(u)
	st := exampleStore()
	s, err := q.Apply(st)
	require.NoError(t, err)
	return BuildGridViewModel("Example", s, q, nil), s
}

func TestBuildGridViewModel(t *testing.T) {
	vm, s := build(t, "/grid?grouped=col1&sort=data:desc&limit=3")

	assert.Equal(t, "Example", vm.Title)
	assert.Equal(t, 9, vm.TotalRows)
	assert.Equal(t, 1, vm.FirstRow)
	assert.Equal(t, 4, vm.LastRow)
	assert.False(t, vm.HasPrev)
	assert.True(t, vm.HasNext)
	assert.Contains(t, vm.NextURL.String(), "scroll=3")

	require.Len(t, vm.Headers, 3)
	assert.Equal(t, "Column 1", vm.Headers[0].DisplayName)
	assert.True(t, vm.Headers[0].Grouped)
	assert.Equal(t, "col2", vm.Headers[1].DisplayName)
	assert.Equal(t, "Σ", vm.Headers[2].Symbol)
	assert.Equal(t, "▼", vm.Headers[2].SortMark)
	assert.True(t, vm.Headers[2].Numeric)

	require.Len(t, vm.Rows, 4)
	a := vm.Rows[0]
	assert.True(t, a.Subtotal)
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, 5, a.Count)
	assert.Empty(t, a.Indent)
	assert.True(t, a.CanDrillIn)
	assert.Equal(t, []CellView{
		{Value: "A"},
		{Value: ""},
		{Value: "1,004", Numeric: true},
	}, a.Cells)

	// Details sorted by data descending: #6 (1000) first.
	d := vm.Rows[1]
	assert.False(t, d.Subtotal)
	assert.Equal(t, "/A#6", d.Key)
	assert.Equal(t, indentUnit, d.Indent)
	assert.Equal(t, "1,000", d.Cells[2].Value)
	assert.Equal(t, "E", d.Cells[1].Value)

	assert.Equal(t, []string{"Column 1"}, vm.Grouping)
	assert.Equal(t, []string{"data ▼"}, vm.Sorting)
	assert.False(t, s.ShowSettingsPopover)
}

func TestViewModelSecondPage(t *testing.T) {
	vm, _ := build(t, "/grid?grouped=col1&scroll=3&limit=3&columns=data,col1")
	assert.True(t, vm.HasPrev)
	assert.Contains(t, vm.PrevURL.String(), "limit=3")
	assert.NotContains(t, vm.PrevURL.String(), "scroll=")
	assert.Equal(t, 4, vm.FirstRow)

	require.Len(t, vm.Headers, 2)
	assert.Equal(t, "col1", vm.Headers[0].Tag, "grouped columns come first")
	assert.Equal(t, "data", vm.Headers[1].Tag)
}

func TestViewModelSelectionAndSettings(t *testing.T) {
	vm, _ := build(t, "/grid?grouped=col1&selected=/B&settings=1&filter:col2=C&collapsed=/A")
	require.Len(t, vm.Rows, 3)
	assert.Equal(t, "A", vm.Rows[0].Title)
	assert.True(t, vm.Rows[0].Collapsed)
	assert.True(t, vm.Rows[1].Selected)
	assert.True(t, vm.ShowSettings)
	assert.Equal(t, []string{"col2 in (C)"}, vm.Filters)
	assert.Equal(t, 2, vm.Rows[1].Count, "counts ignore filters")
}

func TestCellTextGrandTotal(t *testing.T) {
	st := store.New(&store.Props{
		Data:           []columns.Record{{"n": 2.5}, {"n": nil}},
		ColumnDefs:     []columns.ColumnDef{{Tag: "n", Aggregation: columns.AggAverage}},
		ShowGrandTotal: true,
	})
	s := st.State()
	require.Len(t, s.RasterizedRows, 3)
	q := query.NewQuery(&url.URL{Path: "/grid"})
	vm := BuildGridViewModel("t", s, q, nil)
	assert.Equal(t, "Grand Total", vm.Rows[0].Title)
	assert.Equal(t, "2.5", vm.Rows[0].Cells[0].Value)
	assert.Equal(t, "-", vm.Rows[2].Cells[0].Value)
	assert.False(t, vm.Rows[0].CanDrillIn)
}

func TestDescribeFilter(t *testing.T) {
	assert.Equal(t, "a not in (x, y)", DescribeFilter(columns.FilterBy{ColTag: "a", Type: columns.FilterNotIn, Values: []string{"x", "y"}}))
	assert.Equal(t, "a > 1", DescribeFilter(columns.FilterBy{Type: columns.FilterExpr, Expr: "a > 1"}))
}
