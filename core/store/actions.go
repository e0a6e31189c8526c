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
	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
)

// ActionType names an action.
type ActionType string

const (
	ActionInitialize             ActionType = "INITIALIZE"
	ActionSubtotalBy             ActionType = "SUBTOTAL_BY"
	ActionSortBy                 ActionType = "SORT_BY"
	ActionFilterBy               ActionType = "FILTER_BY"
	ActionToggleCollapse         ActionType = "TOGGLE_COLLAPSE"
	ActionCollapseAll            ActionType = "COLLAPSE_ALL"
	ActionToggleRowSelect        ActionType = "TOGGLE_ROW_SELECT"
	ActionToggleCellSelect       ActionType = "TOGGLE_CELL_SELECT"
	ActionChangeRowDisplayBounds ActionType = "CHANGE_ROW_DISPLAY_BOUNDS"
	ActionToggleSettingsPopover  ActionType = "TOGGLE_SETTINGS_POPOVER"
)

// Action is a request to change the grid state. The set of actions is
// closed; Reduce ignores unknown implementations.
type Action interface {
	Type() ActionType
}

// Initialize builds a fresh state. A non-nil Props replaces the props the
// reducer was called with.
type Initialize struct {
	Props *Props
}

// SubtotalBy regroups the data by the given columns, outermost first.
type SubtotalBy struct {
	Columns []columns.ColumnDef
}

// SortBy replaces the sort order, primary key first.
type SortBy struct {
	Columns []columns.SortBy
}

// FilterBy replaces the active filters.
type FilterBy struct {
	Filters []columns.FilterBy
}

// ToggleCollapse flips the collapsed flag of the subtotal row with Key, or
// sets it to *Collapse when Collapse is non-nil.
type ToggleCollapse struct {
	Key      rows.Key
	Collapse *bool
}

// CollapseAll collapses or expands every non-root subtotal row.
type CollapseAll struct {
	Collapse bool
}

// ToggleRowSelect toggles selection of the row with Key.
type ToggleRowSelect struct {
	Key rows.Key
}

// ToggleCellSelect toggles selection of one cell.
type ToggleCellSelect struct {
	Key    rows.Key
	ColTag string
}

// ChangeRowDisplayBounds reports new viewport measurements.
type ChangeRowDisplayBounds struct {
	Viewport raster.Viewport
}

// ToggleSettingsPopover shows or hides the settings panel.
type ToggleSettingsPopover struct{}

func (Initialize) Type() ActionType             { return ActionInitialize }
func (SubtotalBy) Type() ActionType             { return ActionSubtotalBy }
func (SortBy) Type() ActionType                 { return ActionSortBy }
func (FilterBy) Type() ActionType               { return ActionFilterBy }
func (ToggleCollapse) Type() ActionType         { return ActionToggleCollapse }
func (CollapseAll) Type() ActionType            { return ActionCollapseAll }
func (ToggleRowSelect) Type() ActionType        { return ActionToggleRowSelect }
func (ToggleCellSelect) Type() ActionType       { return ActionToggleCellSelect }
func (ChangeRowDisplayBounds) Type() ActionType { return ActionChangeRowDisplayBounds }
func (ToggleSettingsPopover) Type() ActionType  { return ActionToggleSettingsPopover }
