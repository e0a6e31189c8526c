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

import "github.com/google/gigagrid/core/rows"

// The helpers below never modify a published row. They return node itself
// when nothing changed, otherwise a copy of every row on the path from node
// to the change.

func updateSubtotal(node *rows.SubtotalRow, path []string, fn func(*rows.SubtotalRow) *rows.SubtotalRow) *rows.SubtotalRow {
	if len(path) == 0 {
		return fn(node)
	}
	i, ok := node.ChildIndex(path[0])
	if !ok {
		return node
	}
	child := node.ChildAt(i)
	updated := updateSubtotal(child, path[1:], fn)
	if updated == child {
		return node
	}
	c := node.Clone()
	c.SetChildAt(i, updated)
	return c
}

func updateDetail(node *rows.SubtotalRow, path []string, id int, fn func(*rows.DetailRow) *rows.DetailRow) *rows.SubtotalRow {
	return updateSubtotal(node, path, func(leaf *rows.SubtotalRow) *rows.SubtotalRow {
		for i, d := range leaf.DetailRows {
			if d.ID != id {
				continue
			}
			updated := fn(d)
			if updated == d {
				return leaf
			}
			c := leaf.Clone()
			c.DetailRows[i] = updated
			return c
		}
		return leaf
	})
}

// mapTree applies sub to every subtotal row and det to every detail row
// below and including node, children before parents.
func mapTree(node *rows.SubtotalRow, sub func(*rows.SubtotalRow) *rows.SubtotalRow, det func(*rows.DetailRow) *rows.DetailRow) *rows.SubtotalRow {
	out := node
	for i, child := range node.Children() {
		updated := mapTree(child, sub, det)
		if updated == child {
			continue
		}
		if out == node {
			out = node.Clone()
		}
		out.SetChildAt(i, updated)
	}
	if det != nil {
		for i, d := range node.DetailRows {
			updated := det(d)
			if updated == d {
				continue
			}
			if out == node {
				out = node.Clone()
			}
			out.DetailRows[i] = updated
		}
	}
	if sub == nil {
		return out
	}
	return sub(out)
}

func withSubtotalSelected(n *rows.SubtotalRow, selected bool) *rows.SubtotalRow {
	if n.Selected == selected {
		return n
	}
	c := n.Clone()
	c.Selected = selected
	return c
}

func withDetailSelected(d *rows.DetailRow, selected bool) *rows.DetailRow {
	if d.Selected == selected {
		return d
	}
	c := d.Clone()
	c.Selected = selected
	return c
}

func withCollapsed(n *rows.SubtotalRow, collapsed bool) *rows.SubtotalRow {
	if n.Collapsed == collapsed {
		return n
	}
	c := n.Clone()
	c.Collapsed = collapsed
	return c
}

func clearSelection(root *rows.SubtotalRow) *rows.SubtotalRow {
	return mapTree(root,
		func(n *rows.SubtotalRow) *rows.SubtotalRow { return withSubtotalSelected(n, false) },
		func(d *rows.DetailRow) *rows.DetailRow { return withDetailSelected(d, false) })
}

func setSelected(root *rows.SubtotalRow, key rows.Key, selected bool) *rows.SubtotalRow {
	if key.IsDetail() {
		return updateDetail(root, key.Segments(), key.DetailID, func(d *rows.DetailRow) *rows.DetailRow {
			return withDetailSelected(d, selected)
		})
	}
	return updateSubtotal(root, key.Segments(), func(n *rows.SubtotalRow) *rows.SubtotalRow {
		return withSubtotalSelected(n, selected)
	})
}

// rowFlags are the user-controlled flags of a subtotal row.
type rowFlags struct {
	collapsed bool
	selected  bool
}

// flagSnapshot records collapse and selection state so it can be carried
// over to a rebuilt tree.
type flagSnapshot struct {
	subtotals map[rows.Key]rowFlags
	details   map[int]bool
}

func snapshotFlags(root *rows.SubtotalRow) flagSnapshot {
	snap := flagSnapshot{subtotals: map[rows.Key]rowFlags{}, details: map[int]bool{}}
	root.Walk(func(r rows.Row) bool {
		switch x := r.(type) {
		case *rows.SubtotalRow:
			if x.Collapsed || x.Selected {
				snap.subtotals[x.Key()] = rowFlags{collapsed: x.Collapsed, selected: x.Selected}
			}
		case *rows.DetailRow:
			if x.Selected {
				snap.details[x.ID] = true
			}
		}
		return true
	})
	return snap
}

// restore sets flags on a tree that has not been published yet. Subtotal
// rows match by sector path, detail rows by record ID.
func (snap flagSnapshot) restore(root *rows.SubtotalRow) {
	root.Walk(func(r rows.Row) bool {
		switch x := r.(type) {
		case *rows.SubtotalRow:
			if f, ok := snap.subtotals[x.Key()]; ok {
				x.Collapsed = f.collapsed
				x.Selected = f.selected
			}
		case *rows.DetailRow:
			x.Selected = snap.details[x.ID]
		}
		return true
	})
}

// applyInitialFlags sets the initially expanded and selected rows on a tree
// that has not been published yet.
func applyInitialFlags(root *rows.SubtotalRow, props *Props) {
	expanded := map[rows.Key]bool{}
	for _, path := range props.InitiallyExpanded {
		for i := 1; i <= len(path); i++ {
			expanded[rows.SubtotalKey(path[:i])] = true
		}
	}
	selected := map[rows.Key]bool{}
	for _, path := range props.InitiallySelected {
		selected[rows.SubtotalKey(path)] = true
	}
	if len(expanded) == 0 && len(selected) == 0 {
		return
	}
	root.Walk(func(r rows.Row) bool {
		x, ok := r.(*rows.SubtotalRow)
		if !ok {
			return true
		}
		if len(expanded) > 0 && !x.IsRoot() {
			x.Collapsed = !expanded[x.Key()]
		}
		if selected[x.Key()] {
			x.Selected = true
		}
		return true
	})
}
