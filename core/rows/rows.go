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

// Package rows defines the two kinds of grid rows: detail rows wrapping a
// single raw record and subtotal rows holding one grouping bucket.
//
// Rows are mutable only while a tree is being built. Once a tree is published
// in a grid state its rows are never modified again; transitions Clone the
// rows on the path to a change and share everything else.
package rows

import (
	"github.com/google/gigagrid/core/aggregates"
	"github.com/google/gigagrid/core/columns"
)

// Row is either a *DetailRow or a *SubtotalRow.
type Row interface {
	row()

	IsDetail() bool
	IsSelected() bool
	IsHidden() bool
	SectorPath() []string
	Key() Key
	Get(col columns.ColumnDef) any
	GetByColTag(tag string) any
}

// Attrs are the attributes shared by both row kinds.
type Attrs struct {
	Selected bool
	Hidden   bool
	// Path holds the titles of the ancestor buckets from the root down.
	Path []string
}

func (a *Attrs) IsSelected() bool     { return a.Selected }
func (a *Attrs) IsHidden() bool       { return a.Hidden }
func (a *Attrs) SectorPath() []string { return a.Path }

// DetailRow wraps one raw record.
type DetailRow struct {
	Attrs
	// ID is the index of the record in the raw data set.
	ID   int
	Data columns.Record
}

// NewDetailRow creates a detail row for record id under the given path.
func NewDetailRow(id int, data columns.Record, path []string) *DetailRow {
	return &DetailRow{Attrs: Attrs{Path: path}, ID: id, Data: data}
}

func (*DetailRow) row() {}

func (*DetailRow) IsDetail() bool { return true }

func (r *DetailRow) Key() Key { return DetailKey(r.Path, r.ID) }

func (r *DetailRow) Get(col columns.ColumnDef) any { return r.Data[col.Tag] }

func (r *DetailRow) GetByColTag(tag string) any { return r.Data[tag] }

// Clone returns a shallow copy of the row.
func (r *DetailRow) Clone() *DetailRow {
	c := *r
	return &c
}

// BucketInfo identifies the bucket of a subtotal row.
type BucketInfo struct {
	// Title is the string form of Value; it is unique among siblings.
	Title string
	// Value is the raw group value, nil for the missing-value bucket.
	Value any
	// ColTag is the grouping column, empty for the root.
	ColTag string
}

// SubtotalRow is one bucket at one grouping level.
type SubtotalRow struct {
	Attrs
	Bucket    BucketInfo
	Collapsed bool

	// Data holds the aggregated value per column tag.
	Data map[string]any
	// States holds the mergeable aggregate state per column tag.
	States map[string]aggregates.State

	// DetailRows is only populated at the deepest grouping level.
	DetailRows []*DetailRow

	children []*SubtotalRow
	index    map[string]int
}

// NewSubtotalRow creates an empty subtotal row.
func NewSubtotalRow(bucket BucketInfo, path []string) *SubtotalRow {
	return &SubtotalRow{
		Attrs:  Attrs{Path: path},
		Bucket: bucket,
		Data:   map[string]any{},
		index:  map[string]int{},
	}
}

// NewRoot creates the grand total row.
func NewRoot() *SubtotalRow {
	return NewSubtotalRow(BucketInfo{}, nil)
}

func (*SubtotalRow) row() {}

func (*SubtotalRow) IsDetail() bool { return false }

func (r *SubtotalRow) Key() Key { return SubtotalKey(r.Path) }

// IsRoot reports whether r is the grand total row.
func (r *SubtotalRow) IsRoot() bool { return len(r.Path) == 0 }

func (r *SubtotalRow) IsCollapsed() bool { return r.Collapsed }

func (r *SubtotalRow) Get(col columns.ColumnDef) any { return r.Data[col.Tag] }

func (r *SubtotalRow) GetByColTag(tag string) any { return r.Data[tag] }

// Title returns the bucket title.
func (r *SubtotalRow) Title() string { return r.Bucket.Title }

// Children returns the child buckets in insertion order. The slice must not
// be modified.
func (r *SubtotalRow) Children() []*SubtotalRow { return r.children }

func (r *SubtotalRow) NumChildren() int { return len(r.children) }

func (r *SubtotalRow) ChildAt(i int) *SubtotalRow { return r.children[i] }

// IsLeaf reports whether r holds detail rows rather than child buckets.
func (r *SubtotalRow) IsLeaf() bool { return len(r.children) == 0 }

// ChildByTitle returns the child with the given title, or nil.
func (r *SubtotalRow) ChildByTitle(title string) *SubtotalRow {
	i, ok := r.index[title]
	if !ok {
		return nil
	}
	return r.children[i]
}

// ChildIndex returns the position of the child with the given title.
func (r *SubtotalRow) ChildIndex(title string) (int, bool) {
	i, ok := r.index[title]
	return i, ok
}

// AddChild appends child, or replaces in place the existing child that has
// the same title.
func (r *SubtotalRow) AddChild(child *SubtotalRow) {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[child.Bucket.Title]; ok {
		r.children[i] = child
		return
	}
	r.index[child.Bucket.Title] = len(r.children)
	r.children = append(r.children, child)
}

// Clone returns a shallow copy of r whose child and detail slices can be
// changed without affecting r. Children and detail rows themselves are
// shared.
func (r *SubtotalRow) Clone() *SubtotalRow {
	c := *r
	c.children = append([]*SubtotalRow(nil), r.children...)
	c.DetailRows = append([]*DetailRow(nil), r.DetailRows...)
	c.index = make(map[string]int, len(r.index))
	for t, i := range r.index {
		c.index[t] = i
	}
	return &c
}

// SetChildAt replaces the i-th child, which must keep its title.
func (r *SubtotalRow) SetChildAt(i int, child *SubtotalRow) {
	r.children[i] = child
}

// AllDetailRows returns every detail row below r, in tree order.
func (r *SubtotalRow) AllDetailRows() []*DetailRow {
	if r.IsLeaf() {
		return r.DetailRows
	}
	var out []*DetailRow
	for _, c := range r.children {
		out = append(out, c.AllDetailRows()...)
	}
	return out
}

// Walk visits r and every row below it in pre-order until fn returns false.
func (r *SubtotalRow) Walk(fn func(Row) bool) bool {
	if !fn(r) {
		return false
	}
	for _, c := range r.children {
		if !c.Walk(fn) {
			return false
		}
	}
	for _, d := range r.DetailRows {
		if !fn(d) {
			return false
		}
	}
	return true
}
