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

package aggregates

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/google/gigagrid/core/columns"
)

// Placeholder is shown for undefined values.
const Placeholder = "-"

// Formatter renders cell values for display using locale-aware number
// formatting.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter formats for American English.
var DefaultFormatter = NewFormatter(language.AmericanEnglish)

// Number formats v with grouping separators and up to two decimals.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// Cell formats a value of col. Numbers are formatted for numeric and
// aggregated columns; everything else uses its key form.
func (f *Formatter) Cell(col columns.ColumnDef, v any) string {
	if columns.IsMissing(v) {
		return Placeholder
	}
	if col.IsNumeric() || col.Aggregation != columns.AggNone {
		if n, ok := columns.ToNumber(v); ok {
			return f.Number(n)
		}
	}
	return columns.FormatKey(v)
}
