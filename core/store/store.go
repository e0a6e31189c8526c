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

package store

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Listener is called with each new state.
type Listener func(s *State)

// Hooks observe dispatches. Implementations may read Store.State but must
// not dispatch.
type Hooks interface {
	// Dispatched is called after every transition. changed reports whether
	// a new state was produced.
	Dispatched(action ActionType, changed bool, elapsed time.Duration, s *State)
}

type noopHooks struct{}

func (noopHooks) Dispatched(ActionType, bool, time.Duration, *State) {}

// Option configures a Store.
type Option func(*Store)

// WithHooks installs dispatch hooks.
func WithHooks(h Hooks) Option {
	return func(s *Store) {
		if h != nil {
			s.hooks = h
		}
	}
}

// Store owns the state of one grid. Dispatch may be called from any
// goroutine; transitions are applied one at a time. State and Props never
// block, so they may be called from click handlers and hooks.
type Store struct {
	mu        sync.Mutex
	props     atomic.Pointer[Props]
	state     atomic.Pointer[State]
	hooks     Hooks
	listeners map[int]Listener
	nextID    int

	// pending holds states not yet delivered to listeners.
	pending  []*State
	draining bool
}

// New creates a store and initializes it from props.
func New(props *Props, opts ...Option) *Store {
	if props == nil {
		props = &Props{}
	}
	s := &Store{
		hooks:     noopHooks{},
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.props.Store(props)
	start := time.Now()
	first := Reduce(nil, Initialize{}, props)
	s.state.Store(first)
	s.hooks.Dispatched(ActionInitialize, true, time.Since(start), first)
	return s
}

// State returns the current state.
func (s *Store) State() *State {
	return s.state.Load()
}

// Props returns the props the store reduces with.
func (s *Store) Props() *Props {
	return s.props.Load()
}

// Subscribe registers fn to be called with every new state and returns a
// function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies action and returns the resulting state. Listeners are
// notified only when the state changed. A listener may dispatch; its
// notification is delivered after the current round of listeners returns.
func (s *Store) Dispatch(action Action) *State {
	s.mu.Lock()
	start := time.Now()
	prev := s.state.Load()
	if init, ok := action.(Initialize); ok && init.Props != nil {
		s.props.Store(init.Props)
	}
	props := s.props.Load()
	next := Reduce(prev, action, props)
	changed := next != prev
	s.state.Store(next)
	if action != nil {
		s.hooks.Dispatched(action.Type(), changed, time.Since(start), next)
		props.logger().Debug("dispatch", "action", action.Type(), "changed", changed, "version", next.Version)
	}
	if !changed {
		s.mu.Unlock()
		return next
	}
	s.pending = append(s.pending, next)
	if s.draining {
		s.mu.Unlock()
		return next
	}
	s.draining = true
	s.drain()
	return next
}

// drain delivers pending states in order. It is entered with s.mu held and
// returns with it released.
func (s *Store) drain() {
	for len(s.pending) > 0 {
		st := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.snapshotListeners()
		s.mu.Unlock()
		for _, fn := range listeners {
			fn(st)
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) snapshotListeners() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}
