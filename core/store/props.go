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
	"io"

	"github.com/charmbracelet/log"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/grouping"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
)

// Verdict is the outcome of a selection callback.
type Verdict int

const (
	// VerdictAccept applies the default toggle.
	VerdictAccept Verdict = iota
	// VerdictReject leaves the state unchanged.
	VerdictReject
	// VerdictOverride sets the selection to Decision.Selected.
	VerdictOverride
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictReject:
		return "reject"
	case VerdictOverride:
		return "override"
	}
	return "unknown"
}

// Decision is returned by selection callbacks.
type Decision struct {
	Verdict  Verdict
	Selected bool
}

// Accept returns a decision that applies the default toggle.
func Accept() Decision { return Decision{Verdict: VerdictAccept} }

// Reject returns a decision that vetoes the selection change.
func Reject() Decision { return Decision{Verdict: VerdictReject} }

// Override returns a decision that forces the selection state.
func Override(selected bool) Decision {
	return Decision{Verdict: VerdictOverride, Selected: selected}
}

// RowClickHandler is consulted before a row selection changes. s is the
// state before the change. Handlers run inside Store.Dispatch: they may call
// Store.State but must not dispatch.
type RowClickHandler func(row rows.Row, s *State) Decision

// CellClickHandler is consulted before the selected cell changes. Like
// RowClickHandler it runs inside Store.Dispatch and must not dispatch.
type CellClickHandler func(row rows.Row, col columns.ColumnDef) Decision

// Props configure a grid. They are read by Reduce and never modified.
type Props struct {
	Data       []columns.Record
	ColumnDefs []columns.ColumnDef

	InitialSubtotalBys []columns.ColumnDef
	InitialSortBys     []columns.SortBy
	InitialFilterBys   []columns.FilterBy

	// InitiallyExpanded lists sector paths. When non-empty every other
	// subtotal row starts collapsed; ancestors of listed paths stay expanded.
	InitiallyExpanded [][]string
	// InitiallySelected lists sector paths of subtotal rows that start
	// selected.
	InitiallySelected [][]string

	OnRowClick  RowClickHandler
	OnCellClick CellClickHandler

	EnableMultiRowSelect bool
	ShowGrandTotal       bool
	// MissingTitle is the title of buckets collecting records that lack the
	// grouping column. Defaults to grouping.DefaultMissingTitle.
	MissingTitle string

	RowHeight  float64
	BodyHeight float64

	Logger *log.Logger
}

var discard = log.New(io.Discard)

func (p *Props) logger() *log.Logger {
	if p == nil || p.Logger == nil {
		return discard
	}
	return p.Logger
}

func (p *Props) groupingOptions() grouping.Options {
	return grouping.Options{MissingTitle: p.MissingTitle}
}

func (p *Props) rasterOptions() raster.Options {
	return raster.Options{ShowGrandTotal: p.ShowGrandTotal}
}

// initialViewport is the viewport assumed until a renderer reports one.
func (p *Props) initialViewport() raster.Viewport {
	vp := raster.DefaultViewport
	if p.RowHeight > 0 {
		vp.RowHeight = p.RowHeight
	}
	if p.BodyHeight > 0 {
		vp.Height = p.BodyHeight
	}
	return vp
}
