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

package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gigagrid/core/columns"
)

func child(title string) *SubtotalRow {
	return NewSubtotalRow(BucketInfo{Title: title, Value: title, ColTag: "col"}, []string{title})
}

func TestAddChildReplacesByTitle(t *testing.T) {
	root := NewRoot()
	root.AddChild(child("A"))
	root.AddChild(child("B"))
	require.Equal(t, 2, root.NumChildren())

	replacement := child("A")
	replacement.Data["x"] = 42.0
	root.AddChild(replacement)

	assert.Equal(t, 2, root.NumChildren())
	assert.Same(t, replacement, root.ChildByTitle("A"))
	assert.Equal(t, 42.0, root.ChildByTitle("A").Data["x"])
	assert.Equal(t, "A", root.ChildAt(0).Title(), "replacement keeps its position")
}

func TestRowVariants(t *testing.T) {
	rec := columns.Record{"amount": 3.0}
	d := NewDetailRow(4, rec, []string{"A"})
	s := child("A")
	s.Data["amount"] = 9.0

	var r Row = d
	assert.True(t, r.IsDetail())
	assert.Equal(t, 3.0, r.Get(columns.ColumnDef{Tag: "amount"}))
	assert.Equal(t, DetailKey([]string{"A"}, 4), r.Key())

	r = s
	assert.False(t, r.IsDetail())
	assert.Equal(t, 9.0, r.GetByColTag("amount"))
	assert.Equal(t, SubtotalKey([]string{"A"}), r.Key())
}

func TestCloneIsolation(t *testing.T) {
	root := NewRoot()
	root.AddChild(child("A"))
	root.DetailRows = nil

	c := root.Clone()
	c.Selected = true
	replaced := child("A")
	c.SetChildAt(0, replaced)

	assert.False(t, root.Selected)
	assert.NotSame(t, replaced, root.ChildAt(0))
	assert.Same(t, replaced, c.ChildByTitle("A"))

	c.AddChild(child("B"))
	assert.Equal(t, 1, root.NumChildren())
	assert.Nil(t, root.ChildByTitle("B"))
}

func TestAllDetailRowsAndWalk(t *testing.T) {
	root := NewRoot()
	a := child("A")
	a.DetailRows = []*DetailRow{NewDetailRow(0, nil, a.Path), NewDetailRow(2, nil, a.Path)}
	b := child("B")
	b.DetailRows = []*DetailRow{NewDetailRow(1, nil, b.Path)}
	root.AddChild(a)
	root.AddChild(b)

	var ids []int
	for _, d := range root.AllDetailRows() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int{0, 2, 1}, ids)

	visited := 0
	root.Walk(func(Row) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

func TestKeyRoundTrip(t *testing.T) {
	keys := []Key{
		RootKey,
		SubtotalKey([]string{"A"}),
		SubtotalKey([]string{"A", "with/slash", "#hash"}),
		SubtotalKey([]string{""}),
		DetailKey(nil, 3),
		DetailKey([]string{"A", "C"}, 12),
	}
	for _, k := range keys {
		t.Run(k.String(), func(t *testing.T) {
			got, err := ParseKey(k.String())
			require.NoError(t, err)
			assert.Equal(t, k, got)
		})
	}
	assert.NotEqual(t, RootKey, SubtotalKey([]string{""}))
}

func TestParseKeyErrors(t *testing.T) {
	for _, s := range []string{"A/B", "/A#x", "/A#-2", "/%zz"} {
		_, err := ParseKey(s)
		assert.Error(t, err, s)
	}
}
