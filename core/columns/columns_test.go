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

package columns

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 3, 3, true},
		{"uint32", uint32(7), 7, true},
		{"numeric string", " 42.5 ", 42.5, true},
		{"json number", json.Number("12"), 12, true},
		{"empty string", "", 0, false},
		{"text", "abc", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"NaN", math.NaN(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ToNumber(%v) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatKey(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input any
		want  string
	}{
		{nil, ""},
		{"A", "A"},
		{2.0, "2"},
		{2.25, "2.25"},
		{int64(-4), "-4"},
		{false, "false"},
		{when, "2024-03-01T12:00:00Z"},
		{json.Number("3.10"), "3.10"},
	}
	for _, tt := range tests {
		if got := FormatKey(tt.input); got != tt.want {
			t.Errorf("FormatKey(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name    string
		a, b    any
		numeric bool
		want    int
	}{
		{"numbers", 2.0, 10.0, false, -1},
		{"numeric strings in number column", "10", "9", true, 1},
		{"numeric strings in string column", "10", "9", false, -1},
		{"strings", "apple", "banana", false, -1},
		{"equal", "x", "x", false, 0},
		{"missing after value", nil, 1.0, true, 1},
		{"value before missing", "a", nil, false, -1},
		{"both missing", nil, nil, false, 0},
		{"text after number in number column", "n/a", 3.0, true, 1},
		{"bools", false, true, false, -1},
		{"times", time.Unix(10, 0), time.Unix(5, 0), false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValues(tt.a, tt.b, tt.numeric); got != tt.want {
				t.Errorf("CompareValues(%v, %v, %v) = %d, want %d", tt.a, tt.b, tt.numeric, got, tt.want)
			}
		})
	}
}

func TestCompareFloat64sNaN(t *testing.T) {
	if got := compareFloat64s(math.NaN(), 1); got != 1 {
		t.Errorf("compareFloat64s(NaN, 1) = %d, want 1", got)
	}
	if got := compareFloat64s(1, math.NaN()); got != -1 {
		t.Errorf("compareFloat64s(1, NaN) = %d, want -1", got)
	}
	if got := compareFloat64s(math.NaN(), math.NaN()); got != 0 {
		t.Errorf("compareFloat64s(NaN, NaN) = %d, want 0", got)
	}
}

func TestColumnDefDisplayName(t *testing.T) {
	if got := (ColumnDef{Tag: "amount"}).DisplayName(); got != "amount" {
		t.Errorf("DisplayName() = %q, want tag fallback", got)
	}
	if got := (ColumnDef{Tag: "amount", Title: "Amount"}).DisplayName(); got != "Amount" {
		t.Errorf("DisplayName() = %q, want %q", got, "Amount")
	}
}

func TestKnownTags(t *testing.T) {
	tags := KnownTags([]Record{{"a": 1}, {"b": nil}})
	for _, tag := range []string{"a", "b"} {
		if _, ok := tags[tag]; !ok {
			t.Errorf("KnownTags missing %q", tag)
		}
	}
	if _, ok := tags["c"]; ok {
		t.Errorf("KnownTags unexpectedly has %q", "c")
	}
}
