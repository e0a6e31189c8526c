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

package grouping

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gigagrid/core/aggregates"
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
)

var (
	col1 = columns.ColumnDef{Tag: "col1", Title: "Column 1"}
	col2 = columns.ColumnDef{Tag: "col2", Title: "Column 2"}
	col3 = columns.ColumnDef{Tag: "col3", Title: "Column 3"}
	data = columns.ColumnDef{Tag: "data", Format: columns.FormatNumber, Aggregation: columns.AggSum}
)

func exampleRecords() []columns.Record {
	return []columns.Record{
		{"col1": "A", "col2": "C", "data": 1},
		{"col1": "A", "col2": "C", "data": 1},
		{"col1": "A", "col2": "D", "data": 1},
		{"col1": "B", "col2": "D", "data": 1},
		{"col1": "B", "col2": "C", "data": 1},
		{"col1": "A", "col2": "C", "data": 1},
		{"col1": "A", "col2": "E", "data": 1},
	}
}

func TestBuildTreeEndToEnd(t *testing.T) {
	tree := BuildTree(exampleRecords(), []columns.ColumnDef{col1, col2}, Options{})
	AggregateTree(tree, []columns.ColumnDef{data})

	want := map[string]float64{
		"":    7,
		"A":   5,
		"B":   2,
		"A/C": 3,
		"A/D": 1,
		"A/E": 1,
		"B/C": 1,
		"B/D": 1,
	}
	got := map[string]float64{}
	tree.Root().Walk(func(r rows.Row) bool {
		if s, ok := r.(*rows.SubtotalRow); ok {
			key := ""
			for i, p := range s.SectorPath() {
				if i > 0 {
					key += "/"
				}
				key += p
			}
			got[key] = s.Data["data"].(float64)
		}
		return true
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subtotals mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, tree.Subtotal([]string{"B", "E"}))
}

func TestBuildTreeFirstEncounteredOrder(t *testing.T) {
	tree := BuildTree(exampleRecords(), []columns.ColumnDef{col1, col2}, Options{})
	var titles []string
	for _, c := range tree.Root().Children() {
		titles = append(titles, c.Title())
	}
	assert.Equal(t, []string{"A", "B"}, titles)

	titles = nil
	for _, c := range tree.Subtotal([]string{"B"}).Children() {
		titles = append(titles, c.Title())
	}
	assert.Equal(t, []string{"D", "C"}, titles)
}

func TestBuildTreeStructure(t *testing.T) {
	tree := BuildTree(exampleRecords(), []columns.ColumnDef{col1, col2}, Options{})
	root := tree.Root()
	require.True(t, root.IsRoot())
	assert.Empty(t, root.SectorPath())
	assert.Empty(t, root.DetailRows, "only the deepest level owns detail rows")

	ac := tree.Subtotal([]string{"A", "C"})
	require.NotNil(t, ac)
	assert.True(t, ac.IsLeaf())
	assert.Equal(t, rows.BucketInfo{Title: "C", Value: "C", ColTag: "col2"}, ac.Bucket)
	require.Len(t, ac.DetailRows, 3)
	ids := []int{ac.DetailRows[0].ID, ac.DetailRows[1].ID, ac.DetailRows[2].ID}
	assert.Equal(t, []int{0, 1, 5}, ids)
	assert.Equal(t, []string{"A", "C"}, ac.DetailRows[0].SectorPath())

	found := tree.Find(rows.DetailKey([]string{"A", "C"}, 5))
	require.NotNil(t, found)
	assert.True(t, found.IsDetail())
	assert.Nil(t, tree.Find(rows.DetailKey([]string{"A", "D"}, 5)))
	assert.Equal(t, ac, tree.Find(ac.Key()))
}

func TestBuildTreeNoSubtotals(t *testing.T) {
	records := exampleRecords()
	tree := BuildTree(records, nil, Options{})
	root := tree.Root()
	assert.Equal(t, 0, root.NumChildren())
	assert.Len(t, root.DetailRows, len(records))

	AggregateTree(tree, []columns.ColumnDef{data})
	assert.Equal(t, 7.0, root.Data["data"])
}

func TestBuildTreeMissingValues(t *testing.T) {
	records := []columns.Record{
		{"col1": "A", "data": 1},
		{"data": 2},
		{"col1": nil, "data": 3},
	}

	t.Run("default title", func(t *testing.T) {
		tree := BuildTree(records, []columns.ColumnDef{col1}, Options{})
		missing := tree.Subtotal([]string{DefaultMissingTitle})
		require.NotNil(t, missing)
		assert.Nil(t, missing.Bucket.Value)
		assert.Len(t, missing.DetailRows, 2)
	})

	t.Run("configured title", func(t *testing.T) {
		tree := BuildTree(records, []columns.ColumnDef{col1}, Options{MissingTitle: "(blank)"})
		assert.Nil(t, tree.Subtotal([]string{DefaultMissingTitle}))
		missing := tree.Subtotal([]string{"(blank)"})
		require.NotNil(t, missing)
		AggregateTree(tree, []columns.ColumnDef{data})
		assert.Equal(t, 5.0, missing.Data["data"])
	})
}

func TestBuildIntoDoesNotDuplicate(t *testing.T) {
	records := exampleRecords()
	root := rows.NewRoot()
	BuildInto(root, records, []columns.ColumnDef{col1, col2}, Options{})
	BuildInto(root, records, []columns.ColumnDef{col1, col2}, Options{})

	assert.Equal(t, 2, root.NumChildren())
	assert.Equal(t, 3, root.ChildByTitle("A").NumChildren())
}

func TestNumericGroupValues(t *testing.T) {
	records := []columns.Record{{"year": 2023.0}, {"year": 2024.0}, {"year": 2023.0}}
	tree := BuildTree(records, []columns.ColumnDef{{Tag: "year"}}, Options{})
	b := tree.Subtotal([]string{"2023"})
	require.NotNil(t, b)
	assert.Equal(t, 2023.0, b.Bucket.Value)
	assert.Len(t, b.DetailRows, 2)
}

func TestThreeLevelTree(t *testing.T) {
	records := []columns.Record{
		{"col1": "A", "col2": "C", "col3": "F", "data": 1},
		{"col1": "A", "col2": "C", "col3": "F", "data": 1},
		{"col1": "A", "col2": "C", "col3": "G", "data": 1},
		{"col1": "A", "col2": "D", "col3": "F", "data": 1},
		{"col1": "A", "col2": "E", "col3": "F", "data": 1},
		{"col1": "B", "col2": "D", "col3": "F", "data": 1},
		{"col1": "B", "col2": "C", "col3": "G", "data": 1},
	}
	tree := BuildTree(records, []columns.ColumnDef{col1, col2, col3}, Options{})
	AggregateTree(tree, []columns.ColumnDef{data})

	assert.Equal(t, 7.0, tree.Root().Data["data"])
	assert.Equal(t, 5.0, tree.Subtotal([]string{"A"}).Data["data"])
	assert.Equal(t, 2.0, tree.Subtotal([]string{"B"}).Data["data"])
	assert.Equal(t, 3.0, tree.Subtotal([]string{"A", "C"}).Data["data"])
	assert.Equal(t, 1.0, tree.Subtotal([]string{"A", "D"}).Data["data"])
	assert.Equal(t, 2.0, tree.Subtotal([]string{"A", "C", "F"}).Data["data"])
	assert.Nil(t, tree.Subtotal([]string{"B", "E"}))
}

// Grouped aggregation must agree with flat aggregation at the root and every
// node must equal the combination of its children, for any grouping.
func TestGroupedMatchesFlat(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	keys := []string{"x", "y", "z"}
	var records []columns.Record
	for i := 0; i < 200; i++ {
		rec := columns.Record{
			"col1": keys[rnd.Intn(3)],
			"col2": keys[rnd.Intn(3)],
			"col3": keys[rnd.Intn(2)],
			"data": float64(rnd.Intn(100)),
		}
		if i%17 == 0 {
			rec["data"] = "oops"
		}
		records = append(records, rec)
	}
	defs := []columns.ColumnDef{
		data,
		{Tag: "avg", Aggregation: columns.AggAverage},
		{Tag: "max", Aggregation: columns.AggMax},
	}
	for i := range records {
		records[i]["avg"] = records[i]["data"]
		records[i]["max"] = records[i]["data"]
	}

	groupings := [][]columns.ColumnDef{
		nil,
		{col1},
		{col1, col2},
		{col3, col2, col1},
	}
	flat := aggregates.AggregateRecords(records, defs)
	for _, g := range groupings {
		tree := BuildTree(records, g, Options{})
		AggregateTree(tree, defs)
		for _, def := range defs {
			assert.InDelta(t, flat[def.Tag].(float64), tree.Root().Data[def.Tag].(float64), 1e-9, "%s grouped by %d columns", def.Tag, len(g))
		}
		tree.Root().Walk(func(r rows.Row) bool {
			s, ok := r.(*rows.SubtotalRow)
			if !ok || s.IsLeaf() {
				return true
			}
			sum := 0.0
			for _, c := range s.Children() {
				sum += c.Data["data"].(float64)
			}
			assert.InDelta(t, sum, s.Data["data"].(float64), 1e-9)
			return true
		})
	}
}

func TestAggregateDetailRows(t *testing.T) {
	tree := BuildTree(exampleRecords(), []columns.ColumnDef{col1}, Options{})
	got := Aggregate(tree.Subtotal([]string{"B"}).DetailRows, []columns.ColumnDef{data})
	assert.Equal(t, map[string]any{"data": 2.0}, got)
}
