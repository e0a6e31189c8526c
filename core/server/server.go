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

// Package server serves grids over HTTP. Every request carries the full view
// state in its URL; the server replays it onto a fresh store.
package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/safehtml"

	"github.com/google/gigagrid/core/query"
	"github.com/google/gigagrid/core/rendering"
	"github.com/google/gigagrid/core/store"
	"github.com/google/gigagrid/core/views"
	"github.com/google/gigagrid/datasources"
)

// Server represents the application server with all its dependencies
type Server struct {
	manager  *datasources.Manager
	renderer *rendering.GridRenderer
	logger   *log.Logger
	hooks    store.Hooks
	title    string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handed to every grid store.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHooks installs dispatch hooks on every grid store.
func WithHooks(h store.Hooks) Option {
	return func(s *Server) { s.hooks = h }
}

// WithTitle sets the landing page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// NewServer creates a new server over the grids of manager
func NewServer(manager *datasources.Manager, opts ...Option) (*Server, error) {
	renderer, err := rendering.NewGridRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	s := &Server{
		manager:  manager,
		renderer: renderer,
		logger:   log.New(io.Discard),
		title:    "GigaGrid",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GridHandlerResult represents the result of handling a grid request
type GridHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

// Handler returns the HTTP handler serving the landing page at "/" and
// grids at "/grid".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/grid", func(w http.ResponseWriter, r *http.Request) {
		if result := s.HandleGridRequest(w, r.URL, w.Header().Set); result != nil {
			if result.Error != nil {
				s.logger.Error("grid request failed", "url", r.URL.String(), "err", result.Error)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.Error(w, result.Message, result.StatusCode)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := s.HandleLandingRequest(w, r.URL, w.Header().Set); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	})
	return mux
}

// HandleGridRequest processes a grid request and writes the response.
// Returns a result if the request is invalid or fails, nil on success.
func (s *Server) HandleGridRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *GridHandlerResult {
	timing := NewTimingCollector()

	parseStart := time.Now()
	q := query.NewQuery(requestURL)
	timing.Record("Parse Query", time.Since(parseStart))

	if q.Grid == "" {
		return &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: "Grid parameter is required"}
	}
	cfg, ok := s.manager.Grid(q.Grid)
	if !ok {
		return &GridHandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Grid '%s' not found", q.Grid)}
	}

	loadStart := time.Now()
	props, err := s.manager.Props(q.Grid, s.logger)
	if err != nil {
		return &GridHandlerResult{Error: err}
	}
	timing.Record("Load Data", time.Since(loadStart))

	initStart := time.Now()
	var opts []store.Option
	if s.hooks != nil {
		opts = append(opts, store.WithHooks(s.hooks))
	}
	st := store.New(props, opts...)
	timing.Record("Initialize", time.Since(initStart))

	// A bare grid link shows the configured initial view.
	if len(requestURL.Query()) <= 1 {
		q = query.FromState(requestURL.Path, q.Grid, st.State())
	}

	applyStart := time.Now()
	state, applyErr := q.Apply(st)
	timing.Record("Apply View State", time.Since(applyStart))

	vmStart := time.Now()
	viewModel := views.BuildGridViewModel(cfg.DisplayTitle(q.Grid), state, q, nil)
	if applyErr != nil {
		s.logger.Warn("view state partially applied", "grid", q.Grid, "err", applyErr)
		viewModel.Warnings = append(viewModel.Warnings, applyErr.Error())
	}
	timing.Record("Build ViewModel", time.Since(vmStart))

	viewModel.RenderTimeMs = timing.TotalMs()
	viewModel.TimingBreakdown = timing.GetEntries()

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, viewModel); err != nil {
		return &GridHandlerResult{Error: fmt.Errorf("rendering grid: %w", err)}
	}
	return nil
}

// HandleLandingRequest processes the landing page request
func (s *Server) HandleLandingRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")

	vm := views.LandingViewModel{Title: s.title}
	for _, name := range s.manager.GridNames() {
		cfg, _ := s.manager.Grid(name)
		link := views.GridLink{
			Name:  name,
			Title: cfg.DisplayTitle(name),
			URL:   gridURL(name),
		}
		if ds, err := s.manager.LoadData(name); err == nil {
			link.Records = len(ds.Records)
		} else {
			s.logger.Warn("grid data unavailable", "grid", name, "err", err)
		}
		vm.Grids = append(vm.Grids, link)
	}

	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.logger.Error("landing page rendering failed", "err", err)
		return err
	}
	return nil
}

func gridURL(name string) safehtml.URL {
	return safehtml.URLSanitized("/grid?" + url.Values{"grid": {name}}.Encode())
}
