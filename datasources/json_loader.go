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
	"fmt"
	"io"
	"os"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/google/gigagrid/core/columns"
)

// jsonAPI decodes numbers as json.Number so they are converted in one place.
var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

// JsonLoader implements Loader for JSON files holding an array of objects.
// Numbers become float64, nested objects and arrays are kept as their JSON
// text.
//
// Required config keys:
//   - file_path: Path to the JSON file
type JsonLoader struct{}

// NewJsonLoader creates a new JSON loader.
func NewJsonLoader() *JsonLoader {
	return &JsonLoader{}
}

// SourceType returns "json".
func (l *JsonLoader) SourceType() string {
	return "json"
}

// Load reads the JSON file named by config["file_path"].
func (l *JsonLoader) Load(config map[string]string) (*Dataset, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	return l.LoadReader(file)
}

// LoadReader reads a JSON array of objects from r.
func (l *JsonLoader) LoadReader(r io.Reader) (*Dataset, error) {
	var raw []map[string]any
	if err := jsonAPI.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}

	ds := &Dataset{Records: make([]columns.Record, 0, len(raw))}
	trackers := make(map[string]*formatTracker)
	var order []string

	for i, obj := range raw {
		rec := make(columns.Record, len(obj))
		for tag, v := range obj {
			val, err := convertJSONValue(v)
			if err != nil {
				return nil, fmt.Errorf("record %d, field %q: %w", i, tag, err)
			}
			rec[tag] = val
			t, ok := trackers[tag]
			if !ok {
				t = newFormatTracker()
				trackers[tag] = t
				order = append(order, tag)
			}
			t.observe(val)
		}
		ds.Records = append(ds.Records, rec)
	}

	// Object keys carry no order.
	slices.Sort(order)
	for _, tag := range order {
		ds.Columns = append(ds.Columns, columns.ColumnDef{Tag: tag, Format: trackers[tag].format()})
	}
	return ds, nil
}

func convertJSONValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		text, err := jsonAPI.MarshalToString(x)
		if err != nil {
			return nil, err
		}
		return text, nil
	}
}
