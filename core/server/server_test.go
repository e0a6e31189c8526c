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

package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gigagrid/core/store"
	"github.com/google/gigagrid/datasources"
)

const ordersCSV = `status,region,amount
shipped,West,100
shipped,East,250
pending,West,40
`

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	ds, err := datasources.NewCsvLoader().LoadReader(strings.NewReader(ordersCSV), nil)
	require.NoError(t, err)

	cfg, err := datasources.ParseConfig(`
title = "Orders"
subtotal_by = ["region"]
initially_expanded = [["East"]]

[source]
type = "csv"
path = "orders.csv"

[[columns]]
tag = "amount"
aggregation = "SUM"
`)
	require.NoError(t, err)

	manager := datasources.NewDefaultManager()
	require.NoError(t, manager.AddDataset("orders", cfg, ds))

	srv, err := NewServer(manager, opts...)
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestLanding(t *testing.T) {
	h := newTestServer(t, WithTitle("My Grids")).Handler()

	code, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>My Grids</h1>")
	assert.Contains(t, body, `href="/grid?grid=orders"`)
	assert.Contains(t, body, "Orders</a> (3 records)")

	code, _ = get(t, h, "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGridInitialView(t *testing.T) {
	h := newTestServer(t).Handler()

	code, body := get(t, h, "/grid?grid=orders")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<title>Orders</title>")
	// West is collapsed because only East is initially expanded.
	assert.Equal(t, 2, strings.Count(body, `<tr class="subtotal">`))
	assert.Contains(t, body, "Rows 1&ndash;3 of 3")
	assert.Contains(t, body, "collapsed=%2FWest")
	assert.Contains(t, body, "Rendered in")
}

func TestGridViewState(t *testing.T) {
	h := newTestServer(t).Handler()

	code, body := get(t, h, "/grid?grid=orders&grouped=status&sort=amount:desc&collapsed=oops")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `class="warnings"`)
	assert.Contains(t, body, "Rows 1&ndash;5 of 5")
	shipped := strings.Index(body, "shipped</a>")
	pending := strings.Index(body, "pending</a>")
	require.True(t, shipped > 0 && pending > 0)
	assert.Less(t, shipped, pending, "subtotals sorted by amount descending")
}

func TestGridHugeWindow(t *testing.T) {
	h := newTestServer(t).Handler()

	code, body := get(t, h, "/grid?grid=orders&grouped=status&scroll=10&limit=9223372036854775807")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Rows 1&ndash;5 of 5")
}

func TestGridErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	code, body := get(t, h, "/grid")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "Grid parameter is required")

	code, body = get(t, h, "/grid?grid=missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Grid 'missing' not found")
}

type countingHooks struct{ n int }

func (c *countingHooks) Dispatched(store.ActionType, bool, time.Duration, *store.State) { c.n++ }

func TestGridHooks(t *testing.T) {
	hooks := &countingHooks{}
	h := newTestServer(t, WithHooks(hooks)).Handler()
	code, _ := get(t, h, "/grid?grid=orders&grouped=region")
	require.Equal(t, http.StatusOK, code)
	assert.Greater(t, hooks.n, 1)
}
