package snapmut

import (
	"errors"
	"reflect"
	"testing"

	"github.com/unkn0wn-root/snapmut/dotpath"
)

// pagedSnap mimics a JSON-decoded paged API response: one item, one page,
// float64 numbers the way encoding/json produces them.
func pagedSnap() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"content": []any{
				map[string]any{"id": float64(1), "name": "A"},
			},
		},
		"page": map[string]any{
			"totalElements": float64(1),
			"totalPages":    float64(1),
			"size":          float64(1),
			"number":        float64(0),
		},
	}
}

func newPagedEngine(t *testing.T) Engine {
	t.Helper()
	eng, err := New(Options{
		ItemsPath: "data.content",
		Paging: &Paging{
			TotalPath: "page.totalElements",
			PagesPath: "page.totalPages",
			PagePath:  "page.number",
			SizePath:  "page.size",
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func counters(t *testing.T, snap any) (total, pages int64) {
	t.Helper()
	total, ok := dotpath.Int64(dotpath.Get(snap, "page.totalElements", nil))
	if !ok {
		t.Fatalf("totalElements unreadable in %v", snap)
	}
	pages, ok = dotpath.Int64(dotpath.Get(snap, "page.totalPages", nil))
	if !ok {
		t.Fatalf("totalPages unreadable in %v", snap)
	}
	return total, pages
}

// sameRef reports whether two maps/slices share the same backing reference.
func sameRef(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// ==============================
// Paged add/update/delete flow
// ==============================

// TestPagedAddThenDeleteFlow walks one snapshot through add and delete and
// checks items and both counters at each step.
func TestPagedAddThenDeleteFlow(t *testing.T) {
	eng := newPagedEngine(t)
	orig := pagedSnap()

	s2 := eng.Add(orig, map[string]any{"id": float64(2), "name": "B"}, End)

	items := eng.Items(s2)
	if len(items) != 2 {
		t.Fatalf("items after add: want 2, got %d (%v)", len(items), items)
	}
	if got := dotpath.Get(items[1], "id", nil); got != float64(2) {
		t.Fatalf("added item should land at the end, got id=%v", got)
	}
	if total, pages := counters(t, s2); total != 2 || pages != 2 {
		t.Fatalf("counters after add: want 2/2, got %d/%d", total, pages)
	}

	s3 := eng.DeleteKey(s2, 1) // int key matches the stored float64(1)

	items = eng.Items(s3)
	if len(items) != 1 || dotpath.Get(items[0], "id", nil) != float64(2) {
		t.Fatalf("items after delete: %v", items)
	}
	if total, pages := counters(t, s3); total != 1 || pages != 1 {
		t.Fatalf("counters after delete: want 1/1, got %d/%d", total, pages)
	}

	// The starting snapshot must be untouched through all of it.
	if !reflect.DeepEqual(orig, pagedSnap()) {
		t.Fatalf("input snapshot was mutated: %v", orig)
	}
}

// TestAddAtStartPrepends checks the default splice position.
func TestAddAtStartPrepends(t *testing.T) {
	eng := newPagedEngine(t)

	next := eng.Add(pagedSnap(), map[string]any{"id": float64(2)}, Start)
	items := eng.Items(next)
	if len(items) != 2 || dotpath.Get(items[0], "id", nil) != float64(2) {
		t.Fatalf("new item should land at index 0: %v", items)
	}
}

// TestAddSynthesizesMissingSnapshot runs add against no snapshot at all.
func TestAddSynthesizesMissingSnapshot(t *testing.T) {
	eng := newPagedEngine(t)

	next := eng.Add(nil, map[string]any{"id": float64(7)}, Start)
	items := eng.Items(next)
	if len(items) != 1 || dotpath.Get(items[0], "id", nil) != float64(7) {
		t.Fatalf("synthesized snapshot items: %v", items)
	}
	// Total is created by the increment; pages stay absent without a size.
	if got, ok := dotpath.Int64(dotpath.Get(next, "page.totalElements", nil)); !ok || got != 1 {
		t.Fatalf("synthesized total: got %v ok=%v", got, ok)
	}
	if dotpath.Has(next, "page.totalPages") {
		t.Fatalf("pages should not be derived without a page size: %v", next)
	}
}

// ==============================
// Update semantics
// ==============================

// TestUpdateMergesMatchingItems checks shallow merge and that non-matching
// items stay reference-identical.
func TestUpdateMergesMatchingItems(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()
	snap = eng.Add(snap, map[string]any{"id": float64(2), "name": "B", "tag": "keep"}, End).(map[string]any)
	before := eng.Items(snap)

	next, err := eng.Update(snap, map[string]any{"id": 2, "name": "B2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	items := eng.Items(next)
	if len(items) != 2 {
		t.Fatalf("update must not change length: %v", items)
	}
	// Merged: new field value wins, fields outside the partial survive.
	if got := dotpath.Get(items[1], "name", nil); got != "B2" {
		t.Fatalf("merged name: %v", got)
	}
	if got := dotpath.Get(items[1], "tag", nil); got != "keep" {
		t.Fatalf("field outside partial must survive merge: %v", got)
	}
	// Untouched item is the same map, not a copy.
	if !sameRef(before[0], items[0]) {
		t.Fatalf("non-matching item should be shared by reference")
	}
}

// TestUpdateNoMatchReturnsSameSnapshot ensures zero matches means zero copies.
func TestUpdateNoMatchReturnsSameSnapshot(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()

	next, err := eng.Update(snap, map[string]any{"id": float64(42), "name": "ghost"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !sameRef(snap, next.(map[string]any)) {
		t.Fatalf("no-match update should return the input snapshot")
	}
}

// TestUpdateWhereCustomPredicate updates by a non-key field.
func TestUpdateWhereCustomPredicate(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()
	snap = eng.Add(snap, map[string]any{"id": float64(2), "state": "open"}, End).(map[string]any)
	snap = eng.Add(snap, map[string]any{"id": float64(3), "state": "open"}, End).(map[string]any)

	next := eng.UpdateWhere(snap, map[string]any{"state": "closed"}, func(item any) bool {
		return dotpath.Get(item, "state", nil) == "open"
	})
	closed := 0
	for _, it := range eng.Items(next) {
		if dotpath.Get(it, "state", nil) == "closed" {
			closed++
		}
	}
	if closed != 2 {
		t.Fatalf("want 2 items closed, got %d", closed)
	}

	// nil predicate matches nothing.
	if got := eng.UpdateWhere(snap, map[string]any{"x": 1}, nil); !sameRef(snap, got.(map[string]any)) {
		t.Fatalf("nil predicate should leave the snapshot alone")
	}
}

// TestUpdateMissingKeyErr rejects partials the extractor cannot identify.
func TestUpdateMissingKeyErr(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()

	next, err := eng.Update(snap, map[string]any{"name": "anonymous"})
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("want ErrMissingKey, got %v", err)
	}
	if !sameRef(snap, next.(map[string]any)) {
		t.Fatalf("failed update must return the input snapshot")
	}

	// A present-but-nil id is missing too.
	if _, err := eng.Update(snap, map[string]any{"id": nil}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("nil id: want ErrMissingKey, got %v", err)
	}
}

// ==============================
// Delete semantics
// ==============================

// TestDeleteByItem removes via an item carrying the key.
func TestDeleteByItem(t *testing.T) {
	eng := newPagedEngine(t)

	next, err := eng.Delete(pagedSnap(), map[string]any{"id": float64(1)})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if items := eng.Items(next); len(items) != 0 {
		t.Fatalf("items after delete: %v", items)
	}
	if total, pages := counters(t, next); total != 0 || pages != 0 {
		t.Fatalf("counters after delete: want 0/0, got %d/%d", total, pages)
	}

	if _, err := eng.Delete(pagedSnap(), map[string]any{"name": "no key"}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("keyless delete: want ErrMissingKey, got %v", err)
	}
}

// TestDeleteAbsentKeyIsNoOp: nothing removed, nothing recounted, same snapshot back.
func TestDeleteAbsentKeyIsNoOp(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()

	next := eng.DeleteKey(snap, 99)
	if !sameRef(snap, next.(map[string]any)) {
		t.Fatalf("absent-key delete should return the input snapshot")
	}
	if total, pages := counters(t, next); total != 1 || pages != 1 {
		t.Fatalf("counters must be untouched: %d/%d", total, pages)
	}
}

// TestDeleteWhereRemovesAllMatchesAndClamps removes several items at once
// against a drifted (too small) total and expects both counters at zero.
func TestDeleteWhereRemovesAllMatchesAndClamps(t *testing.T) {
	eng := newPagedEngine(t)
	snap := pagedSnap()
	snap = eng.Add(snap, map[string]any{"id": float64(2), "junk": true}, End).(map[string]any)
	snap = eng.Add(snap, map[string]any{"id": float64(3), "junk": true}, End).(map[string]any)
	// Drift the total below the real item count.
	snap = dotpath.Set(snap, "page.totalElements", int64(1)).(map[string]any)

	next := eng.DeleteWhere(snap, func(item any) bool { return true })
	if items := eng.Items(next); len(items) != 0 {
		t.Fatalf("items after delete-all: %v", items)
	}
	if total, pages := counters(t, next); total != 0 || pages != 0 {
		t.Fatalf("counters must clamp at zero, got %d/%d", total, pages)
	}
}

// ==============================
// Replace / Clear
// ==============================

func TestReplaceBypassesItemsAndPaging(t *testing.T) {
	eng := newPagedEngine(t)

	repl := map[string]any{"totally": "different"}
	if got := eng.Replace(pagedSnap(), repl); !sameRef(repl, got.(map[string]any)) {
		t.Fatalf("replace must hand back the replacement untouched")
	}
}

func TestClearEmptiesItemsAndZeroesCounters(t *testing.T) {
	eng := newPagedEngine(t)

	next := eng.Clear(pagedSnap())
	if items := eng.Items(next); len(items) != 0 {
		t.Fatalf("items after clear: %v", items)
	}
	if total, pages := counters(t, next); total != 0 || pages != 0 {
		t.Fatalf("counters after clear: want 0/0, got %d/%d", total, pages)
	}
}

// ==============================
// Array-shaped snapshots and accessors
// ==============================

// TestArrayModeSnapshotIsTheItems exercises the zero-value Options: the
// snapshot IS the array.
func TestArrayModeSnapshotIsTheItems(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap := []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}}
	if items := eng.Items(snap); !sameRef(snap, items) {
		t.Fatalf("array mode must return the snapshot itself")
	}

	next := eng.Add(snap, map[string]any{"id": "c"}, End)
	if items := eng.Items(next); len(items) != 3 {
		t.Fatalf("array mode add: %v", items)
	}
	if next := eng.DeleteKey(snap, "a"); len(eng.Items(next)) != 1 {
		t.Fatalf("array mode delete: %v", next)
	}
	// A missing snapshot synthesizes a bare one-item array.
	if next := eng.Add(nil, map[string]any{"id": "x"}, Start); len(eng.Items(next)) != 1 {
		t.Fatalf("array mode add on nil: %v", next)
	}
}

// TestFuncAccessor plugs extract/rebuild functions for a shape no dot path
// can address.
func TestFuncAccessor(t *testing.T) {
	type envelope struct {
		rows []any
		etag string
	}
	eng, err := New(Options{
		Accessor: FuncAccessor{
			Read: func(snap any) []any {
				e, ok := snap.(*envelope)
				if !ok {
					return nil
				}
				return e.rows
			},
			Write: func(snap any, items []any) any {
				etag := ""
				if e, ok := snap.(*envelope); ok {
					etag = e.etag
				}
				return &envelope{rows: items, etag: etag}
			},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap := &envelope{rows: []any{map[string]any{"id": 1}}, etag: "v7"}
	next := eng.Add(snap, map[string]any{"id": 2}, End)
	e := next.(*envelope)
	if len(e.rows) != 2 || e.etag != "v7" {
		t.Fatalf("envelope after add: %+v", e)
	}
	if len(snap.rows) != 1 {
		t.Fatalf("input envelope was mutated: %+v", snap)
	}
}

// TestSeedSynthesizesEnvelope uses the configured seed when mutating a
// missing snapshot.
func TestSeedSynthesizesEnvelope(t *testing.T) {
	eng, err := New(Options{
		ItemsPath: "data.content",
		Paging: &Paging{
			TotalPath: "page.totalElements",
			PagesPath: "page.totalPages",
			SizePath:  "page.size",
		},
		Seed: map[string]any{
			"page": map[string]any{"size": float64(10)},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	next := eng.Add(nil, map[string]any{"id": float64(1)}, Start)
	if items := eng.Items(next); len(items) != 1 {
		t.Fatalf("seeded add items: %v", items)
	}
	if total, pages := counters(t, next); total != 1 || pages != 1 {
		t.Fatalf("seeded counters: want 1/1, got %d/%d", total, pages)
	}
	if got, _ := dotpath.Int64(dotpath.Get(next, "page.size", nil)); got != 10 {
		t.Fatalf("seed page size should carry through, got %d", got)
	}
}

// ==============================
// Key extraction
// ==============================

// TestKeyFieldOverride keys items by a custom field name.
func TestKeyFieldOverride(t *testing.T) {
	eng, err := New(Options{KeyOf: KeyField("uuid")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap := []any{
		map[string]any{"uuid": "aaa", "n": 1},
		map[string]any{"uuid": "bbb", "n": 2},
	}
	next, err := eng.Update(snap, map[string]any{"uuid": "bbb", "n": 20})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := dotpath.Get(eng.Items(next)[1], "n", nil); got != 20 {
		t.Fatalf("update by uuid: %v", got)
	}
}

// TestCrossRepresentationKeys verifies codec-independent key equality:
// int, int64, float64 and string forms of the same id must match, and
// string "1" must never match number 1.
func TestCrossRepresentationKeys(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"int vs float64", 1, float64(1), true},
		{"int64 vs int", int64(5), 5, true},
		{"uint32 vs int", uint32(9), 9, true},
		{"fractional float", float64(1.5), 1, false},
		{"string vs number", "1", 1, false},
		{"equal strings", "k", "k", true},
		{"bools", true, true, true},
		{"nil vs nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
	}
	for _, tc := range cases {
		if got := keysEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: keysEqual(%v, %v) = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

// ==============================
// Constructor validation
// ==============================

func TestNewValidation(t *testing.T) {
	acc := FuncAccessor{
		Read:  func(any) []any { return nil },
		Write: func(_ any, items []any) any { return items },
	}
	cases := []struct {
		name string
		opts Options
	}{
		{"path and accessor", Options{ItemsPath: "a.b", Accessor: acc}},
		{"seed with accessor", Options{Accessor: acc, Seed: map[string]any{}}},
		{"paging with accessor", Options{Accessor: acc, Paging: &Paging{TotalPath: "t"}}},
		{"half a func accessor", Options{Accessor: FuncAccessor{Read: acc.Read}}},
		{"paging on array snapshot", Options{Paging: &Paging{TotalPath: "t"}}},
	}
	for _, tc := range cases {
		if _, err := New(tc.opts); err == nil {
			t.Errorf("%s: want error, got nil", tc.name)
		}
	}

	// Callers may recycle their Paging struct; the engine keeps a copy.
	p := &Paging{TotalPath: "page.total", PagesPath: "page.pages", SizePath: "page.size"}
	eng, err := New(Options{ItemsPath: "rows", Paging: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.TotalPath = "elsewhere"
	snap := map[string]any{
		"rows": []any{},
		"page": map[string]any{"total": float64(0), "pages": float64(0), "size": float64(5)},
	}
	next := eng.Add(snap, map[string]any{"id": 1}, Start)
	if got, _ := dotpath.Int64(dotpath.Get(next, "page.total", nil)); got != 1 {
		t.Fatalf("engine must not observe later Paging edits, total=%d", got)
	}
}
