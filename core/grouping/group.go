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

// Terminology:
// * the columns that form the grouping hierarchy are called subtotal-by columns
// * each level of the hierarchy partitions the records of its parent bucket
// * the deepest buckets own the detail rows; every other bucket owns child buckets
// Buckets are created in first-encountered order, never sorted here.

import (
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
)

// DefaultMissingTitle is the bucket title for records that lack the
// grouping column.
const DefaultMissingTitle = "undefined"

// Options controls tree building.
type Options struct {
	// MissingTitle is the title of the bucket that collects records whose
	// grouping value is absent or nil. Defaults to DefaultMissingTitle.
	MissingTitle string
}

func (o Options) missingTitle() string {
	if o.MissingTitle == "" {
		return DefaultMissingTitle
	}
	return o.MissingTitle
}

// Tree owns exactly one root subtotal row.
type Tree struct {
	root *rows.SubtotalRow
}

// NewTree wraps root.
func NewTree(root *rows.SubtotalRow) *Tree {
	return &Tree{root: root}
}

// Root returns the grand total row.
func (t *Tree) Root() *rows.SubtotalRow { return t.root }

// WithRoot returns a new tree over root. t is left unchanged.
func (t *Tree) WithRoot(root *rows.SubtotalRow) *Tree {
	return &Tree{root: root}
}

// Find locates the row with the given key, or returns nil.
func (t *Tree) Find(key rows.Key) rows.Row {
	node := t.Subtotal(key.Segments())
	if node == nil {
		return nil
	}
	if !key.IsDetail() {
		return node
	}
	for _, d := range node.DetailRows {
		if d.ID == key.DetailID {
			return d
		}
	}
	return nil
}

// Subtotal returns the subtotal row at path, or nil.
func (t *Tree) Subtotal(path []string) *rows.SubtotalRow {
	node := t.root
	for _, title := range path {
		node = node.ChildByTitle(title)
		if node == nil {
			return nil
		}
	}
	return node
}

// BuildTree partitions records into nested buckets, one level per
// subtotal-by column. An empty subtotalBys yields a root that holds every
// record as a detail row. Aggregates are not computed; see AggregateTree.
func BuildTree(records []columns.Record, subtotalBys []columns.ColumnDef, opts Options) *Tree {
	root := rows.NewRoot()
	BuildInto(root, records, subtotalBys, opts)
	return NewTree(root)
}

// BuildInto partitions records below an existing root. Buckets whose titles
// already exist are replaced rather than duplicated.
func BuildInto(root *rows.SubtotalRow, records []columns.Record, subtotalBys []columns.ColumnDef, opts Options) {
	indices := make([]int, len(records))
	for i := range indices {
		indices[i] = i
	}
	b := &builder{records: records, subtotalBys: subtotalBys, missing: opts.missingTitle()}
	b.build(root, indices, 0)
}

type builder struct {
	records     []columns.Record
	subtotalBys []columns.ColumnDef
	missing     string
}

func (b *builder) build(node *rows.SubtotalRow, indices []int, depth int) {
	if depth == len(b.subtotalBys) {
		node.DetailRows = make([]*rows.DetailRow, 0, len(indices))
		for _, i := range indices {
			node.DetailRows = append(node.DetailRows, rows.NewDetailRow(i, b.records[i], node.Path))
		}
		return
	}

	col := b.subtotalBys[depth]
	for _, bucket := range b.partition(indices, col.Tag) {
		path := make([]string, len(node.Path), len(node.Path)+1)
		copy(path, node.Path)
		path = append(path, bucket.info.Title)

		child := rows.NewSubtotalRow(bucket.info, path)
		b.build(child, bucket.indices, depth+1)
		node.AddChild(child)
	}
}

type bucket struct {
	info    rows.BucketInfo
	indices []int
}

// partition groups indices by the value of tag, in first-encountered order.
func (b *builder) partition(indices []int, tag string) []*bucket {
	var ordered []*bucket
	byTitle := map[string]*bucket{}
	for _, i := range indices {
		value := b.records[i][tag]
		title := b.missing
		if !columns.IsMissing(value) {
			title = columns.FormatKey(value)
		}
		bk, ok := byTitle[title]
		if !ok {
			bk = &bucket{info: rows.BucketInfo{Title: title, Value: value, ColTag: tag}}
			byTitle[title] = bk
			ordered = append(ordered, bk)
		}
		bk.indices = append(bk.indices, i)
	}
	return ordered
}
