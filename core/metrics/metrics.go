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

// Package metrics exports grid dispatch statistics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/google/gigagrid/core/store"
)

const namespace = "gigagrid"

// DispatchMetrics implements store.Hooks.
type DispatchMetrics struct {
	dispatches     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	rasterizedRows prometheus.Gauge
	visibleRows    prometheus.Gauge
}

var _ store.Hooks = (*DispatchMetrics)(nil)

// New registers the dispatch metrics with reg.
func New(reg prometheus.Registerer) *DispatchMetrics {
	f := promauto.With(reg)
	return &DispatchMetrics{
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched actions by type and whether they produced a new state",
		}, []string{"action", "changed"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time to reduce an action",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"action"}),
		rasterizedRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rasterized_rows",
			Help:      "Rows in the current rasterization",
		}),
		visibleRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_rows",
			Help:      "Rows in the current display window",
		}),
	}
}

// Dispatched records one transition.
func (m *DispatchMetrics) Dispatched(action store.ActionType, changed bool, elapsed time.Duration, s *store.State) {
	m.dispatches.WithLabelValues(string(action), strconv.FormatBool(changed)).Inc()
	m.duration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
	if s != nil {
		m.rasterizedRows.Set(float64(len(s.RasterizedRows)))
		m.visibleRows.Set(float64(s.DisplayEnd - s.DisplayStart))
	}
}
