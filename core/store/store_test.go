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
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/raster"
	"github.com/google/gigagrid/core/rows"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	col1 = columns.ColumnDef{Tag: "col1", Title: "Column 1"}
	col2 = columns.ColumnDef{Tag: "col2", Title: "Column 2"}
	data = columns.ColumnDef{Tag: "data", Format: columns.FormatNumber, Aggregation: columns.AggSum}
)

func exampleProps() *Props {
	return &Props{
		Data: []columns.Record{
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "D", "data": 1},
			{"col1": "B", "col2": "D", "data": 1},
			{"col1": "B", "col2": "C", "data": 1},
			{"col1": "A", "col2": "C", "data": 1},
			{"col1": "A", "col2": "E", "data": 1},
		},
		ColumnDefs:         []columns.ColumnDef{col1, col2, data},
		InitialSubtotalBys: []columns.ColumnDef{col1, col2},
	}
}

func key(path ...string) rows.Key { return rows.SubtotalKey(path) }

func detailKey(id int, path ...string) rows.Key { return rows.DetailKey(path, id) }

func boolPtr(b bool) *bool { return &b }

// labels renders rows as "title" for subtotal rows and "#id" for detail
// rows; selected rows are prefixed with "*".
func labels(rs []rows.Row) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		var l string
		switch x := r.(type) {
		case *rows.SubtotalRow:
			l = x.Title()
			if x.IsRoot() {
				l = "Total"
			}
		case *rows.DetailRow:
			l = "#" + strconv.Itoa(x.ID)
		}
		if r.IsSelected() {
			l = "*" + l
		}
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

const allExpanded = "A C #0 #1 #5 D #2 E #6 B D #3 C #4"

func TestEndToEnd(t *testing.T) {
	s := New(exampleProps()).State()

	want := map[string]any{
		"":    7.0,
		"A":   5.0,
		"B":   2.0,
		"A/C": 3.0,
		"A/D": 1.0,
		"A/E": 1.0,
		"B/C": 1.0,
		"B/D": 1.0,
	}
	for path, sum := range want {
		var segs []string
		if path != "" {
			segs = strings.Split(path, "/")
		}
		node := s.Tree.Subtotal(segs)
		require.NotNil(t, node, path)
		assert.Equal(t, sum, node.Data["data"], path)
	}
	assert.Nil(t, s.Tree.Subtotal([]string{"B", "E"}))
	assert.Equal(t, allExpanded, labels(s.RasterizedRows))
	assert.Equal(t, 0, s.DisplayStart)
	assert.Equal(t, 14, s.DisplayEnd)
	assert.Len(t, s.VisibleRows(), 14)
}

func TestGrandTotal(t *testing.T) {
	props := exampleProps()
	props.ShowGrandTotal = true
	s := New(props).State()
	assert.Equal(t, "Total "+allExpanded, labels(s.RasterizedRows))
}

func TestToggleCollapse(t *testing.T) {
	st := New(exampleProps())
	s0 := st.State()

	s1 := st.Dispatch(ToggleCollapse{Key: key("A")})
	require.NotSame(t, s0, s1)
	assert.Equal(t, "A B D #3 C #4", labels(s1.RasterizedRows))
	assert.Equal(t, allExpanded, labels(s0.RasterizedRows), "previous snapshot is unchanged")

	a1 := s1.Tree.Subtotal([]string{"A"})
	assert.True(t, a1.Collapsed)
	assert.Equal(t, 3, a1.NumChildren(), "collapse keeps descendants")
	assert.Same(t, s0.Tree.Subtotal([]string{"B"}), s1.Tree.Subtotal([]string{"B"}), "untouched subtree is shared")
	assert.Same(t, s0.Tree.Subtotal([]string{"A", "C"}), a1.ChildByTitle("C"))

	s2 := st.Dispatch(ToggleCollapse{Key: key("A")})
	require.Len(t, s2.RasterizedRows, len(s0.RasterizedRows))
	for i := 1; i < len(s0.RasterizedRows); i++ {
		assert.Same(t, s0.RasterizedRows[i], s2.RasterizedRows[i], "row %d is reused, not rebuilt", i)
	}
}

func TestToggleCollapseNoOps(t *testing.T) {
	st := New(exampleProps())
	s0 := st.State()
	notified := 0
	unsubscribe := st.Subscribe(func(*State) { notified++ })
	defer unsubscribe()

	assert.Same(t, s0, st.Dispatch(ToggleCollapse{Key: key("A"), Collapse: boolPtr(false)}), "already expanded")
	assert.Same(t, s0, st.Dispatch(ToggleCollapse{Key: key("Z")}), "unknown row")
	assert.Same(t, s0, st.Dispatch(ToggleCollapse{Key: detailKey(0, "A", "C")}), "detail rows do not collapse")
	assert.Zero(t, notified)

	s1 := st.Dispatch(ToggleCollapse{Key: key("A", "C"), Collapse: boolPtr(true)})
	assert.Equal(t, "A C D #2 E #6 B D #3 C #4", labels(s1.RasterizedRows))
	assert.Equal(t, 1, notified)
}

func TestCollapseAll(t *testing.T) {
	st := New(exampleProps())
	s1 := st.Dispatch(CollapseAll{Collapse: true})
	assert.Equal(t, "A B", labels(s1.RasterizedRows))
	assert.Same(t, s1, st.Dispatch(CollapseAll{Collapse: true}))

	s2 := st.Dispatch(CollapseAll{Collapse: false})
	assert.Equal(t, allExpanded, labels(s2.RasterizedRows))
}

func TestSingleSelect(t *testing.T) {
	st := New(exampleProps())

	s1 := st.Dispatch(ToggleRowSelect{Key: detailKey(0, "A", "C")})
	assert.Equal(t, "A C *#0 #1 #5 D #2 E #6 B D #3 C #4", labels(s1.RasterizedRows))

	s2 := st.Dispatch(ToggleRowSelect{Key: key("B")})
	assert.Equal(t, "A C #0 #1 #5 D #2 E #6 *B D #3 C #4", labels(s2.RasterizedRows))
	assert.True(t, s1.Tree.Find(detailKey(0, "A", "C")).IsSelected(), "previous snapshot is unchanged")

	s3 := st.Dispatch(ToggleRowSelect{Key: key("B")})
	assert.Equal(t, allExpanded, labels(s3.RasterizedRows))
}

func TestMultiSelect(t *testing.T) {
	props := exampleProps()
	props.EnableMultiRowSelect = true
	st := New(props)

	st.Dispatch(ToggleRowSelect{Key: detailKey(0, "A", "C")})
	s := st.Dispatch(ToggleRowSelect{Key: key("B")})
	assert.Equal(t, "A C *#0 #1 #5 D #2 E #6 *B D #3 C #4", labels(s.RasterizedRows))

	s = st.Dispatch(ToggleRowSelect{Key: detailKey(0, "A", "C")})
	assert.Equal(t, "A C #0 #1 #5 D #2 E #6 *B D #3 C #4", labels(s.RasterizedRows))
}

func TestRowClickDecisions(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		props := exampleProps()
		props.OnRowClick = func(rows.Row, *State) Decision { return Reject() }
		st := New(props)
		s0 := st.State()
		notified := false
		defer st.Subscribe(func(*State) { notified = true })()

		assert.Same(t, s0, st.Dispatch(ToggleRowSelect{Key: key("A")}))
		assert.False(t, notified)
	})

	t.Run("override", func(t *testing.T) {
		props := exampleProps()
		props.OnRowClick = func(rows.Row, *State) Decision { return Override(true) }
		st := New(props)
		s1 := st.Dispatch(ToggleRowSelect{Key: key("A")})
		assert.True(t, s1.Tree.Find(key("A")).IsSelected())
		s2 := st.Dispatch(ToggleRowSelect{Key: key("A")})
		assert.True(t, s2.Tree.Find(key("A")).IsSelected(), "override keeps the row selected")
	})

	t.Run("override to current value is a no-op", func(t *testing.T) {
		props := exampleProps()
		props.OnRowClick = func(rows.Row, *State) Decision { return Override(false) }
		st := New(props)
		s0 := st.State()
		assert.Same(t, s0, st.Dispatch(ToggleRowSelect{Key: key("A")}))
	})

	t.Run("callback sees row and previous state", func(t *testing.T) {
		props := exampleProps()
		var gotRow rows.Row
		var gotState *State
		props.OnRowClick = func(r rows.Row, s *State) Decision {
			gotRow, gotState = r, s
			return Accept()
		}
		st := New(props)
		s0 := st.State()
		st.Dispatch(ToggleRowSelect{Key: detailKey(6, "A", "E")})
		require.NotNil(t, gotRow)
		assert.Equal(t, detailKey(6, "A", "E"), gotRow.Key())
		assert.Same(t, s0, gotState)
	})

	t.Run("unknown row", func(t *testing.T) {
		st := New(exampleProps())
		s0 := st.State()
		assert.Same(t, s0, st.Dispatch(ToggleRowSelect{Key: detailKey(99, "A", "C")}))
	})
}

func TestToggleCellSelect(t *testing.T) {
	st := New(exampleProps())
	s0 := st.State()

	s1 := st.Dispatch(ToggleCellSelect{Key: key("A"), ColTag: "data"})
	require.NotNil(t, s1.SelectedCell)
	assert.Equal(t, CellRef{Row: key("A"), ColTag: "data"}, *s1.SelectedCell)
	assert.True(t, s1.IsCellSelected(key("A"), "data"))
	assert.Nil(t, s0.SelectedCell)

	s2 := st.Dispatch(ToggleCellSelect{Key: key("B"), ColTag: "col2"})
	assert.True(t, s2.IsCellSelected(key("B"), "col2"))
	assert.False(t, s2.IsCellSelected(key("A"), "data"))

	s3 := st.Dispatch(ToggleCellSelect{Key: key("B"), ColTag: "col2"})
	assert.Nil(t, s3.SelectedCell)

	assert.Same(t, s3, st.Dispatch(ToggleCellSelect{Key: key("B"), ColTag: "nope"}))
	assert.Same(t, s3, st.Dispatch(ToggleCellSelect{Key: key("Z"), ColTag: "data"}))
}

func TestCellClickDecisions(t *testing.T) {
	props := exampleProps()
	var gotCol columns.ColumnDef
	props.OnCellClick = func(_ rows.Row, col columns.ColumnDef) Decision {
		gotCol = col
		if col.Tag == "col1" {
			return Reject()
		}
		return Accept()
	}
	st := New(props)
	s0 := st.State()
	assert.Same(t, s0, st.Dispatch(ToggleCellSelect{Key: key("A"), ColTag: "col1"}))
	assert.Equal(t, col1, gotCol)

	s1 := st.Dispatch(ToggleCellSelect{Key: key("A"), ColTag: "data"})
	assert.NotNil(t, s1.SelectedCell)
}

func TestClickHandlersReadStore(t *testing.T) {
	props := exampleProps()
	var st *Store
	var rowState, cellState *State
	props.OnRowClick = func(rows.Row, *State) Decision {
		rowState = st.State()
		_ = st.Props()
		return Accept()
	}
	props.OnCellClick = func(rows.Row, columns.ColumnDef) Decision {
		cellState = st.State()
		return Accept()
	}
	st = New(props)
	s0 := st.State()

	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Dispatch(ToggleRowSelect{Key: key("A")})
		st.Dispatch(ToggleCellSelect{Key: key("A"), ColTag: "data"})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch blocked on a handler reading the store")
	}
	assert.Same(t, s0, rowState)
	require.NotNil(t, cellState)
	assert.True(t, cellState.Tree.Find(key("A")).IsSelected(), "the cell handler sees the row selection")
}

func TestChangeRowDisplayBounds(t *testing.T) {
	var records []columns.Record
	for i := 0; i < 1000; i++ {
		records = append(records, columns.Record{"n": i})
	}
	st := New(&Props{
		Data:       records,
		ColumnDefs: []columns.ColumnDef{{Tag: "n", Format: columns.FormatNumber}},
		RowHeight:  25,
		BodyHeight: 500,
	})
	s0 := st.State()
	assert.Equal(t, 0, s0.DisplayStart)
	assert.Equal(t, 21, s0.DisplayEnd)

	vp := raster.Viewport{ScrollTop: 250, Height: 500, RowHeight: 25}
	s1 := st.Dispatch(ChangeRowDisplayBounds{Viewport: vp})
	assert.Equal(t, 10, s1.DisplayStart)
	assert.Equal(t, 31, s1.DisplayEnd)
	assert.Len(t, s1.VisibleRows(), 21)
	assert.Same(t, s0.Tree, s1.Tree, "only the window is recomputed")

	assert.Same(t, s1, st.Dispatch(ChangeRowDisplayBounds{Viewport: vp}))

	// Scrolling past the end shows the last page.
	s2 := st.Dispatch(ChangeRowDisplayBounds{Viewport: raster.Viewport{ScrollTop: 100000, Height: 500, RowHeight: 25}})
	assert.Equal(t, 980, s2.DisplayStart)
	assert.Equal(t, 1000, s2.DisplayEnd)
	assert.Len(t, s2.VisibleRows(), 20)
}

func TestChangeRowDisplayBoundsHugeMeasurements(t *testing.T) {
	st := New(exampleProps())
	st.Dispatch(CollapseAll{Collapse: false})

	for _, vp := range []raster.Viewport{
		{ScrollTop: 250, Height: 1e300, RowHeight: 25},
		{ScrollTop: 1e300, Height: 1e300, RowHeight: 25},
		{ScrollTop: 9.3e18, Height: 500, RowHeight: 1},
	} {
		s := st.Dispatch(ChangeRowDisplayBounds{Viewport: vp})
		require.LessOrEqual(t, s.DisplayStart, s.DisplayEnd, "%+v", vp)
		assert.LessOrEqual(t, s.DisplayEnd, len(s.RasterizedRows), "%+v", vp)
		assert.NotEmpty(t, s.VisibleRows(), "%+v", vp)
	}
}

func TestWindowFollowsShrinkingRows(t *testing.T) {
	var records []columns.Record
	for i := 0; i < 1000; i++ {
		records = append(records, columns.Record{"id": strconv.Itoa(i)})
	}
	id := columns.ColumnDef{Tag: "id"}
	st := New(&Props{Data: records, ColumnDefs: []columns.ColumnDef{id}})
	st.Dispatch(ChangeRowDisplayBounds{Viewport: raster.Viewport{ScrollTop: 250, Height: 500, RowHeight: 25}})

	s := st.Dispatch(FilterBy{Filters: []columns.FilterBy{{ColTag: "id", Type: columns.FilterIn, Values: []string{"0", "1", "2", "3", "4"}}}})
	assert.Len(t, s.RasterizedRows, 5)
	assert.Equal(t, 0, s.DisplayStart)
	assert.Equal(t, 5, s.DisplayEnd)
	assert.Len(t, s.VisibleRows(), 5)

	// The viewport itself is kept, so removing the filter scrolls back.
	s = st.Dispatch(FilterBy{})
	assert.Equal(t, 10, s.DisplayStart)
	assert.Equal(t, 31, s.DisplayEnd)
}

func TestSubtotalByPreservesFlags(t *testing.T) {
	props := exampleProps()
	props.InitialSubtotalBys = []columns.ColumnDef{col1}
	st := New(props)
	st.Dispatch(ToggleCollapse{Key: key("B")})
	st.Dispatch(ToggleRowSelect{Key: detailKey(2, "A")})

	s := st.Dispatch(SubtotalBy{Columns: []columns.ColumnDef{col1, col2}})
	assert.Equal(t, "A C #0 #1 #5 D *#2 E #6 B", labels(s.RasterizedRows))
	assert.Equal(t, []string{"col1", "col2"}, s.SubtotalTags())

	assert.Same(t, s, st.Dispatch(SubtotalBy{Columns: []columns.ColumnDef{col1, col2}}), "same grouping")

	flat := st.Dispatch(SubtotalBy{})
	assert.Equal(t, "#0 #1 *#2 #3 #4 #5 #6", labels(flat.RasterizedRows))
}

func TestSubtotalByClearsStaleCell(t *testing.T) {
	st := New(exampleProps())
	st.Dispatch(ToggleCellSelect{Key: key("A", "C"), ColTag: "data"})
	s := st.Dispatch(SubtotalBy{Columns: []columns.ColumnDef{col2}})
	assert.Nil(t, s.SelectedCell)
}

func TestInvalidTagsAreSkipped(t *testing.T) {
	props := exampleProps()
	props.InitialSubtotalBys = []columns.ColumnDef{{Tag: "bogus"}, col1, col1}
	props.InitialSortBys = []columns.SortBy{{ColumnDef: columns.ColumnDef{Tag: "bogus"}}}
	st := New(props)
	s0 := st.State()
	assert.Equal(t, []string{"col1"}, s0.SubtotalTags())
	assert.Empty(t, s0.SortBys)

	assert.Same(t, s0, st.Dispatch(SortBy{Columns: []columns.SortBy{{ColumnDef: columns.ColumnDef{Tag: "bogus"}}}}))
	s1 := st.Dispatch(SubtotalBy{Columns: []columns.ColumnDef{{Tag: "bogus"}}})
	assert.Empty(t, s1.SubtotalBys)
}

func TestSortBy(t *testing.T) {
	props := exampleProps()
	props.InitialSubtotalBys = []columns.ColumnDef{col1}
	st := New(props)

	s := st.Dispatch(SortBy{Columns: []columns.SortBy{{ColumnDef: data}}})
	assert.Equal(t, columns.Ascending, s.SortBys[0].Direction, "direction defaults to ascending")
	assert.Equal(t, "B #3 #4 A #0 #1 #2 #5 #6", labels(s.RasterizedRows))
	dir, ok := s.SortDirection("data")
	assert.True(t, ok)
	assert.Equal(t, columns.Ascending, dir)

	s = st.Dispatch(SortBy{Columns: []columns.SortBy{{ColumnDef: col1, Direction: columns.Descending}}})
	assert.Equal(t, "B #3 #4 A #0 #1 #2 #5 #6", labels(s.RasterizedRows))

	s = st.Dispatch(SortBy{})
	assert.Equal(t, "A #0 #1 #2 #5 #6 B #3 #4", labels(s.RasterizedRows))
}

func TestFilterBy(t *testing.T) {
	st := New(exampleProps())
	s := st.Dispatch(FilterBy{Filters: []columns.FilterBy{{ColTag: "col2", Type: columns.FilterIn, Values: []string{"E"}}}})
	assert.Equal(t, "A E #6", labels(s.RasterizedRows))
	assert.Equal(t, 7.0, s.Root().Data["data"], "filters do not change aggregates")

	assert.Same(t, s, st.Dispatch(FilterBy{Filters: []columns.FilterBy{{ColTag: "col2", Type: columns.FilterIn, Values: []string{"E"}}}}))

	s = st.Dispatch(FilterBy{Filters: []columns.FilterBy{{Type: columns.FilterExpr, Expr: "col2 == "}}})
	assert.Equal(t, allExpanded, labels(s.RasterizedRows), "malformed filters are skipped")

	s = st.Dispatch(FilterBy{})
	assert.Equal(t, allExpanded, labels(s.RasterizedRows))
}

func TestInitialFlags(t *testing.T) {
	props := exampleProps()
	props.InitiallyExpanded = [][]string{{"A"}}
	props.InitiallySelected = [][]string{{"B"}}
	s := New(props).State()
	assert.Equal(t, "A C D E *B", labels(s.RasterizedRows))
}

func TestToggleSettingsPopover(t *testing.T) {
	st := New(exampleProps())
	s0 := st.State()
	s1 := st.Dispatch(ToggleSettingsPopover{})
	assert.True(t, s1.ShowSettingsPopover)
	assert.False(t, s0.ShowSettingsPopover)
	assert.Equal(t, s0.Version+1, s1.Version)
	assert.False(t, st.Dispatch(ToggleSettingsPopover{}).ShowSettingsPopover)
}

func TestReduceNilState(t *testing.T) {
	props := exampleProps()
	props.InitialSubtotalBys = []columns.ColumnDef{col1}
	s := Reduce(nil, SortBy{Columns: []columns.SortBy{{ColumnDef: col1, Direction: columns.Descending}}}, props)
	assert.Equal(t, "B #3 #4 A #0 #1 #2 #5 #6", labels(s.RasterizedRows))
	assert.Same(t, s, Reduce(s, nil, props))
}

func TestInitializeReplacesProps(t *testing.T) {
	st := New(exampleProps())
	props := exampleProps()
	props.InitialSubtotalBys = []columns.ColumnDef{col2}
	s := st.Dispatch(Initialize{Props: props})
	assert.Equal(t, []string{"col2"}, s.SubtotalTags())
	assert.Same(t, props, st.Props())
}

func TestSubscribe(t *testing.T) {
	st := New(exampleProps())
	var got []uint64
	unsubscribe := st.Subscribe(func(s *State) { got = append(got, s.Version) })

	st.Dispatch(ToggleSettingsPopover{})
	st.Dispatch(ToggleCollapse{Key: key("Z")})
	st.Dispatch(ToggleSettingsPopover{})
	unsubscribe()
	st.Dispatch(ToggleSettingsPopover{})

	assert.Equal(t, []uint64{1, 2}, got)
}

func TestDispatchFromListener(t *testing.T) {
	st := New(exampleProps())
	var got []uint64
	st.Subscribe(func(s *State) {
		got = append(got, s.Version)
		if len(got) == 1 {
			st.Dispatch(ToggleSettingsPopover{})
		}
	})
	st.Dispatch(ToggleSettingsPopover{})
	assert.Equal(t, []uint64{1, 2}, got)
	assert.False(t, st.State().ShowSettingsPopover)
}

func TestConcurrentDispatch(t *testing.T) {
	st := New(exampleProps())
	var mu sync.Mutex
	notified := 0
	st.Subscribe(func(*State) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(ToggleSettingsPopover{})
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(n), st.State().Version)
	assert.False(t, st.State().ShowSettingsPopover)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, notified)
}

type recordingHooks struct {
	actions []ActionType
	changed []bool
}

func (h *recordingHooks) Dispatched(a ActionType, changed bool, _ time.Duration, _ *State) {
	h.actions = append(h.actions, a)
	h.changed = append(h.changed, changed)
}

func TestHooks(t *testing.T) {
	h := &recordingHooks{}
	st := New(exampleProps(), WithHooks(h))
	st.Dispatch(ToggleCollapse{Key: key("A")})
	st.Dispatch(ToggleCollapse{Key: key("Z")})
	assert.Equal(t, []ActionType{ActionInitialize, ActionToggleCollapse, ActionToggleCollapse}, h.actions)
	assert.Equal(t, []bool{true, true, false}, h.changed)
}
