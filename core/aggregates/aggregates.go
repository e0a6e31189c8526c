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

// Package aggregates provides aggregate state types for hierarchical aggregation.
// These types store intermediate state that can be combined up a grouping hierarchy,
// allowing aggregates to be computed at leaf level and merged up to parent buckets.
//
// Values that are missing or not numeric contribute zero to SUM and are
// excluded from every method that divides by or ranks values.
package aggregates

import (
	"math"
	"sort"

	"github.com/google/gigagrid/core/columns"
)

// State is the interface for all aggregate state types.
type State interface {
	// Add accumulates one record.
	Add(rec columns.Record)
	// Combine merges another state into this one (for hierarchical aggregation).
	Combine(other State)
	// Value derives the aggregate, or nil when it is undefined.
	Value() any
	// Method returns the aggregation method this state computes.
	Method() columns.Aggregation
}

// NumericAggState stores intermediate state for numeric aggregates.
// It can derive sum, average, count, min, max, range and stddev.
type NumericAggState struct {
	method columns.Aggregation
	tag    string

	Rows  int64   // Number of records seen
	Count int64   // Number of numeric values
	Sum   float64 // Sum of values
	SumSq float64 // Sum of squared values (for stddev)
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState(tag string, method columns.Aggregation) *NumericAggState {
	return &NumericAggState{
		method: method,
		tag:    tag,
		Min:    math.MaxFloat64,
		Max:    -math.MaxFloat64,
	}
}

func (s *NumericAggState) Method() columns.Aggregation { return s.method }

func (s *NumericAggState) Add(rec columns.Record) {
	s.Rows++
	v, ok := columns.ToNumber(rec[s.tag])
	if !ok {
		return
	}
	s.AddValue(v)
}

// AddValue adds a single numeric value to the aggregate state.
func (s *NumericAggState) AddValue(value float64) {
	s.Count++
	s.Sum += value
	s.SumSq += value * value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(other State) {
	o, ok := other.(*NumericAggState)
	if !ok {
		return
	}
	s.Rows += o.Rows
	if o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the average (mean) of the numeric values.
func (s *NumericAggState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *NumericAggState) StdDev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Avg()
	// Variance = E[X²] - (E[X])²
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		// floating point error
		variance = 0
	}
	return math.Sqrt(variance)
}

func (s *NumericAggState) Value() any {
	switch s.method {
	case columns.AggSum:
		return s.Sum
	case columns.AggCount:
		return float64(s.Rows)
	}
	if s.Count == 0 {
		return nil
	}
	switch s.method {
	case columns.AggAverage:
		return s.Avg()
	case columns.AggMin:
		return s.Min
	case columns.AggMax:
		return s.Max
	case columns.AggRange:
		return s.Max - s.Min
	case columns.AggStdDev:
		return s.StdDev()
	default:
		return nil
	}
}

// DistinctAggState counts distinct non-missing values.
type DistinctAggState struct {
	tag       string
	UniqueSet map[string]struct{}
}

// NewDistinctAggState creates a new empty distinct-count state.
func NewDistinctAggState(tag string) *DistinctAggState {
	return &DistinctAggState{tag: tag, UniqueSet: make(map[string]struct{})}
}

func (s *DistinctAggState) Method() columns.Aggregation { return columns.AggCountDistinct }

func (s *DistinctAggState) Add(rec columns.Record) {
	v := rec[s.tag]
	if columns.IsMissing(v) {
		return
	}
	s.UniqueSet[columns.FormatKey(v)] = struct{}{}
}

func (s *DistinctAggState) Combine(other State) {
	o, ok := other.(*DistinctAggState)
	if !ok {
		return
	}
	for k := range o.UniqueSet {
		s.UniqueSet[k] = struct{}{}
	}
}

func (s *DistinctAggState) Value() any { return float64(len(s.UniqueSet)) }

// MedianAggState keeps every numeric value, since a median cannot be
// combined from child medians.
type MedianAggState struct {
	tag    string
	Values []float64
}

// NewMedianAggState creates a new empty median state.
func NewMedianAggState(tag string) *MedianAggState {
	return &MedianAggState{tag: tag}
}

func (s *MedianAggState) Method() columns.Aggregation { return columns.AggMedian }

func (s *MedianAggState) Add(rec columns.Record) {
	if v, ok := columns.ToNumber(rec[s.tag]); ok {
		s.Values = append(s.Values, v)
	}
}

func (s *MedianAggState) Combine(other State) {
	if o, ok := other.(*MedianAggState); ok {
		s.Values = append(s.Values, o.Values...)
	}
}

func (s *MedianAggState) Value() any {
	n := len(s.Values)
	if n == 0 {
		return nil
	}
	sorted := append([]float64(nil), s.Values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// WeightedAggState carries Σ(w·x) and Σw so the weighted mean combines
// exactly.
type WeightedAggState struct {
	tag, weightTag string

	WeightSum   float64
	WeightedSum float64
}

// NewWeightedAggState creates a new empty weighted average state.
func NewWeightedAggState(tag, weightTag string) *WeightedAggState {
	return &WeightedAggState{tag: tag, weightTag: weightTag}
}

func (s *WeightedAggState) Method() columns.Aggregation { return columns.AggWeightedAverage }

func (s *WeightedAggState) Add(rec columns.Record) {
	v, ok := columns.ToNumber(rec[s.tag])
	if !ok {
		return
	}
	w, ok := columns.ToNumber(rec[s.weightTag])
	if !ok {
		return
	}
	s.WeightSum += w
	s.WeightedSum += w * v
}

func (s *WeightedAggState) Combine(other State) {
	if o, ok := other.(*WeightedAggState); ok {
		s.WeightSum += o.WeightSum
		s.WeightedSum += o.WeightedSum
	}
}

func (s *WeightedAggState) Value() any {
	if s.WeightSum == 0 {
		return nil
	}
	return s.WeightedSum / s.WeightSum
}

// NewState creates the empty state for a column, or nil when the column is
// not aggregated.
func NewState(def columns.ColumnDef) State {
	switch def.Aggregation {
	case columns.AggSum, columns.AggAverage, columns.AggCount, columns.AggMin,
		columns.AggMax, columns.AggRange, columns.AggStdDev:
		return NewNumericAggState(def.Tag, def.Aggregation)
	case columns.AggCountDistinct:
		return NewDistinctAggState(def.Tag)
	case columns.AggMedian:
		return NewMedianAggState(def.Tag)
	case columns.AggWeightedAverage:
		return NewWeightedAggState(def.Tag, def.WeightBy)
	default:
		return nil
	}
}

// NewStates creates an empty state for every aggregated column.
func NewStates(defs []columns.ColumnDef) map[string]State {
	states := make(map[string]State, len(defs))
	for _, def := range defs {
		if s := NewState(def); s != nil {
			states[def.Tag] = s
		}
	}
	return states
}

// Accumulate adds every record to every state.
func Accumulate(states map[string]State, records ...columns.Record) {
	for _, rec := range records {
		for _, s := range states {
			s.Add(rec)
		}
	}
}

// CombineAll merges src into dst column by column.
func CombineAll(dst, src map[string]State) {
	for tag, s := range dst {
		if o, ok := src[tag]; ok {
			s.Combine(o)
		}
	}
}

// Values derives the aggregate value of every state.
func Values(states map[string]State) map[string]any {
	out := make(map[string]any, len(states))
	for tag, s := range states {
		out[tag] = s.Value()
	}
	return out
}

// AggregateRecords computes the aggregates of defs directly over records.
func AggregateRecords(records []columns.Record, defs []columns.ColumnDef) map[string]any {
	states := NewStates(defs)
	Accumulate(states, records...)
	return Values(states)
}
