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

// Package columns describes the columns of a grid and the raw records they
// are read from.
package columns

// Record is one raw input record, keyed by column tag.
type Record map[string]any

// Format is the value format of a column. It drives default sort order and
// display alignment.
type Format string

const (
	FormatString Format = "STRING"
	FormatNumber Format = "NUMBER"
)

// Aggregation is the method used to roll a column up into subtotal rows.
type Aggregation string

const (
	AggNone            Aggregation = ""
	AggSum             Aggregation = "SUM"
	AggAverage         Aggregation = "AVERAGE"
	AggCount           Aggregation = "COUNT"
	AggCountDistinct   Aggregation = "COUNT_DISTINCT"
	AggMin             Aggregation = "MIN"
	AggMax             Aggregation = "MAX"
	AggRange           Aggregation = "RANGE"
	AggStdDev          Aggregation = "STDDEV"
	AggMedian          Aggregation = "MEDIAN"
	AggWeightedAverage Aggregation = "WEIGHTED_AVERAGE"
)

// Aggregations lists every supported aggregation method.
var Aggregations = []Aggregation{
	AggSum, AggAverage, AggCount, AggCountDistinct, AggMin, AggMax,
	AggRange, AggStdDev, AggMedian, AggWeightedAverage,
}

// AggregationSymbol returns a short symbol for headers.
func AggregationSymbol(a Aggregation) string {
	switch a {
	case AggSum:
		return "Σ"
	case AggAverage:
		return "μ"
	case AggCount:
		return "#"
	case AggCountDistinct:
		return "∪"
	case AggMin:
		return "↓"
	case AggMax:
		return "↑"
	case AggRange:
		return "↕"
	case AggStdDev:
		return "σ"
	case AggMedian:
		return "~"
	case AggWeightedAverage:
		return "μw"
	default:
		return ""
	}
}

// ColumnDef describes a single grid column.
type ColumnDef struct {
	Tag         string // must be unique within a grid
	Title       string
	Format      Format
	Aggregation Aggregation
	// WeightBy names the weight column for AggWeightedAverage.
	WeightBy string
}

// DisplayName returns the title, falling back to the tag.
func (cd ColumnDef) DisplayName() string {
	if cd.Title != "" {
		return cd.Title
	}
	return cd.Tag
}

// IsNumeric reports whether the column holds numbers.
func (cd ColumnDef) IsNumeric() bool {
	return cd.Format == FormatNumber
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortBy is one key of a multi-column sort, first key primary.
type SortBy struct {
	ColumnDef
	Direction Direction
}

// FilterType selects how a FilterBy matches.
type FilterType string

const (
	// FilterIn keeps rows whose value is one of Values.
	FilterIn FilterType = "IN"
	// FilterNotIn keeps rows whose value is none of Values.
	FilterNotIn FilterType = "NOT_IN"
	// FilterExpr keeps rows for which Expr evaluates truthy.
	FilterExpr FilterType = "EXPR"
)

// FilterBy describes the rows to keep. Rows that fail any filter are hidden.
type FilterBy struct {
	ColTag string
	Type   FilterType
	Values []string
	Expr   string
}

// ByTag indexes column definitions by tag.
func ByTag(defs []ColumnDef) map[string]ColumnDef {
	m := make(map[string]ColumnDef, len(defs))
	for _, d := range defs {
		m[d.Tag] = d
	}
	return m
}

// KnownTags returns the set of tags present in at least one record.
func KnownTags(records []Record) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, r := range records {
		for tag := range r {
			tags[tag] = struct{}{}
		}
	}
	return tags
}
