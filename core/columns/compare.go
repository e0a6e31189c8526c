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
	"math"
	"strings"
	"time"
)

// CompareValues compares two raw values in ascending order.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Missing values are greater than everything else. Numeric columns compare
// numerically, parsing strings; other columns compare numerically only when
// neither value is a string, and lexicographically on FormatKey otherwise.
func CompareValues(a, b any, numeric bool) int {
	aMissing, bMissing := IsMissing(a), IsMissing(b)
	if aMissing || bMissing {
		return compareMissing(aMissing, bMissing)
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return compareTimes(ta, tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return compareBools(ba, bb)
		}
	}

	if !numeric && (isString(a) || isString(b)) {
		return strings.Compare(FormatKey(a), FormatKey(b))
	}
	fa, aNum := ToNumber(a)
	fb, bNum := ToNumber(b)
	switch {
	case aNum && bNum:
		return compareFloat64s(fa, fb)
	case numeric && aNum:
		return -1 // non-numeric values sort after numbers
	case numeric && bNum:
		return 1
	}
	return strings.Compare(FormatKey(a), FormatKey(b))
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// compareMissing orders missing values after present ones.
func compareMissing(aMissing, bMissing bool) int {
	if aMissing && bMissing {
		return 0
	}
	if aMissing {
		return 1
	}
	return -1
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
