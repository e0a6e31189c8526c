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

package raster

import "math"

const (
	DefaultRowHeight  = 25
	DefaultBodyHeight = 500
)

// Viewport holds the measurements a renderer reports.
type Viewport struct {
	ScrollTop float64 // pixels scrolled from the top
	Height    float64 // visible body height
	RowHeight float64
}

// DefaultViewport is used until a renderer reports measurements.
var DefaultViewport = Viewport{Height: DefaultBodyHeight, RowHeight: DefaultRowHeight}

// Normalize replaces unusable measurements with defaults.
func (v Viewport) Normalize() Viewport {
	if v.RowHeight <= 0 || math.IsNaN(v.RowHeight) || math.IsInf(v.RowHeight, 0) {
		v.RowHeight = DefaultRowHeight
	}
	if v.ScrollTop < 0 || math.IsNaN(v.ScrollTop) || math.IsInf(v.ScrollTop, 0) {
		v.ScrollTop = 0
	}
	if v.Height < 0 || math.IsNaN(v.Height) || math.IsInf(v.Height, 0) {
		v.Height = 0
	}
	return v
}

// Window returns the half-open index range [start, end) of a sequence of
// length rows to render for the viewport. The window holds one row more than
// fits in the viewport height. When the sequence ends above the scroll
// position the window moves up so that the last rows fill the viewport.
func Window(length int, vp Viewport) (start, end int) {
	vp = vp.Normalize()
	n := float64(length)
	// Measurements are bounded by length before conversion to int.
	fit := min(math.Ceil(vp.Height/vp.RowHeight), n)
	first := max(min(math.Floor(vp.ScrollTop/vp.RowHeight), n-max(fit, 1)), 0)
	last := min(first+fit+1, n)
	return int(first), int(last)
}
