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

package datasources

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/gigagrid/core/columns"
)

// CsvLoader implements Loader for CSV files. Columns whose sampled values
// all parse as numbers are loaded as float64; empty cells are missing.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
type CsvLoader struct{}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load reads the CSV file named by config["file_path"].
func (l *CsvLoader) Load(config map[string]string) (*Dataset, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return l.LoadReader(file, config)
}

// LoadReader reads CSV data from r using the optional keys of config.
func (l *CsvLoader) LoadReader(r io.Reader, config map[string]string) (*Dataset, error) {
	hasHeader := config["has_header"] != "false"

	delimiter := ','
	if d := config["delimiter"]; d != "" {
		delimiter = []rune(d)[0]
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return &Dataset{}, nil
	}

	var names []string
	if hasHeader {
		names = records[0]
		records = records[1:]
	} else {
		for i := range records[0] {
			names = append(names, fmt.Sprintf("column_%d", i+1))
		}
	}
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
	}

	formats := inferCsvFormats(len(names), records)

	ds := &Dataset{Records: make([]columns.Record, 0, len(records))}
	for i, name := range names {
		ds.Columns = append(ds.Columns, columns.ColumnDef{Tag: name, Format: formats[i]})
	}

	for _, fields := range records {
		rec := make(columns.Record, len(names))
		for i, name := range names {
			if i >= len(fields) {
				rec[name] = nil
				continue
			}
			rec[name] = parseCsvValue(fields[i], formats[i])
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// inferCsvFormats samples data to determine the format of every column.
func inferCsvFormats(n int, records [][]string) []columns.Format {
	trackers := make([]*formatTracker, n)
	for i := range trackers {
		trackers[i] = newFormatTracker()
	}
	for _, fields := range records {
		for i := 0; i < n && i < len(fields); i++ {
			trackers[i].observe(parseCsvValue(fields[i], columns.FormatNumber))
		}
	}

	formats := make([]columns.Format, n)
	for i, t := range trackers {
		formats[i] = t.format()
	}
	return formats
}

// parseCsvValue converts one cell. Numbers that fail to parse in a numeric
// column are kept as strings.
func parseCsvValue(field string, format columns.Format) any {
	s := strings.TrimSpace(field)
	if s == "" {
		return nil
	}
	if format == columns.FormatNumber {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
