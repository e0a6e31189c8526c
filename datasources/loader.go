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

// Package datasources loads grid records from files and manages the named
// grids a program serves.
package datasources

import (
	"github.com/google/gigagrid/core/columns"
)

// Loader loads records from one kind of data source.
type Loader interface {
	// SourceType returns the identifier used in grid configs (e.g. "csv").
	SourceType() string

	// Load reads the source described by config. Relative paths have
	// already been resolved by the caller.
	Load(config map[string]string) (*Dataset, error)
}

// Dataset is the result of loading a source: its records and the columns
// discovered in them, in source order.
type Dataset struct {
	Records []columns.Record
	Columns []columns.ColumnDef
}

// Column returns the discovered column with the given tag.
func (d *Dataset) Column(tag string) (columns.ColumnDef, bool) {
	for _, c := range d.Columns {
		if c.Tag == tag {
			return c, true
		}
	}
	return columns.ColumnDef{}, false
}

// sampleSize bounds the number of values inspected when inferring formats.
const sampleSize = 100

// formatTracker infers a column format from sampled values. A column is
// numeric when every non-missing sampled value is a number.
type formatTracker struct {
	seen    int
	numeric bool
}

func newFormatTracker() *formatTracker {
	return &formatTracker{numeric: true}
}

func (t *formatTracker) observe(v any) {
	if t.seen >= sampleSize || columns.IsMissing(v) {
		return
	}
	t.seen++
	if _, ok := v.(float64); !ok {
		t.numeric = false
	}
}

func (t *formatTracker) format() columns.Format {
	if t.seen > 0 && t.numeric {
		return columns.FormatNumber
	}
	return columns.FormatString
}
