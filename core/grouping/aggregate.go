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
	"github.com/google/gigagrid/core/aggregates"
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/rows"
)

// Aggregate computes the aggregates of defs directly over detail rows.
func Aggregate(detailRows []*rows.DetailRow, defs []columns.ColumnDef) map[string]any {
	states := aggregates.NewStates(defs)
	for _, d := range detailRows {
		aggregates.Accumulate(states, d.Data)
	}
	return aggregates.Values(states)
}

// AggregateSubtotalRow fills the aggregate states and data of row from its
// detail rows, or by combining the states of its children, which must
// already be aggregated.
func AggregateSubtotalRow(row *rows.SubtotalRow, defs []columns.ColumnDef) {
	states := aggregates.NewStates(defs)
	if row.IsLeaf() {
		for _, d := range row.DetailRows {
			aggregates.Accumulate(states, d.Data)
		}
	} else {
		for _, child := range row.Children() {
			aggregates.CombineAll(states, child.States)
		}
	}
	row.States = states
	row.Data = aggregates.Values(states)
}

// AggregateTree aggregates every subtotal row of t in post-order, visiting
// each row once.
func AggregateTree(t *Tree, defs []columns.ColumnDef) {
	aggregateRecursive(t.Root(), defs)
}

func aggregateRecursive(row *rows.SubtotalRow, defs []columns.ColumnDef) {
	for _, child := range row.Children() {
		aggregateRecursive(child, defs)
	}
	AggregateSubtotalRow(row, defs)
}
