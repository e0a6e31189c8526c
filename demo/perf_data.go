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

package demo

import (
	"fmt"
	"strconv"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/datasources"
)

// PerfGridName is the name of the generated performance grid.
const PerfGridName = "transactions_perf"

// Performance grid cardinality
const (
	PERF_NUM_USERS      = 5_000 // High cardinality
	PERF_NUM_PRODUCTS   = 500   // Medium cardinality
	PERF_NUM_CATEGORIES = 20    // Low cardinality
)

// PerfTransactions generates n deterministic transaction records for
// scalability testing.
func PerfTransactions(n int) *datasources.Dataset {
	statuses := []string{"pending", "completed", "cancelled", "processing"}

	ds := &datasources.Dataset{
		Records: make([]columns.Record, 0, n),
		Columns: []columns.ColumnDef{
			{Tag: "txn_id", Title: "Transaction ID", Format: columns.FormatString},
			{Tag: "user_id", Title: "User ID", Format: columns.FormatString},
			{Tag: "product_id", Title: "Product ID", Format: columns.FormatString},
			{Tag: "category_id", Title: "Category ID", Format: columns.FormatString},
			{Tag: "status", Title: "Status", Format: columns.FormatString},
			{Tag: "amount", Title: "Amount", Format: columns.FormatNumber},
		},
	}

	for i := 0; i < n; i++ {
		// Make category 0 more common
		category := i % PERF_NUM_CATEGORIES
		if i%7 == 0 {
			category = 0
		}
		ds.Records = append(ds.Records, columns.Record{
			"txn_id":      fmt.Sprintf("t%07d", i),
			"user_id":     fmt.Sprintf("u%05d", i%PERF_NUM_USERS),
			"product_id":  fmt.Sprintf("p%04d", i%PERF_NUM_PRODUCTS),
			"category_id": fmt.Sprintf("c%02d", category),
			"status":      statuses[i%len(statuses)],
			"amount":      float64(10 + i%1000),
		})
	}
	return ds
}

// PerfLoader generates the performance grid's records on first use.
//
// Required config keys:
//   - records: Number of transactions to generate
type PerfLoader struct{}

// SourceType returns "generated".
func (PerfLoader) SourceType() string {
	return "generated"
}

// Load generates config["records"] transactions.
func (PerfLoader) Load(config map[string]string) (*datasources.Dataset, error) {
	n, err := strconv.Atoi(config["records"])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("records must be a non-negative integer, got %q", config["records"])
	}
	return PerfTransactions(n), nil
}

// PerfConfig groups a performance grid of n records by category and status.
func PerfConfig(n int) *datasources.GridConfig {
	return &datasources.GridConfig{
		Title: "Transactions (generated)",
		Source: datasources.SourceConfig{
			Type:    "generated",
			Path:    PerfGridName,
			Options: map[string]string{"records": strconv.Itoa(n)},
		},
		SubtotalBy: []string{"category_id", "status"},
		GrandTotal: true,
		Columns: []datasources.ColumnConfig{
			{Tag: "amount", Aggregation: string(columns.AggSum)},
			{Tag: "user_id", Aggregation: string(columns.AggCountDistinct)},
		},
		SortBy: []datasources.SortConfig{{Tag: "amount", Direction: string(columns.Descending)}},
	}
}
