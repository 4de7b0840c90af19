package snapmut

import (
	"reflect"

	"github.com/unkn0wn-root/snapmut/dotpath"
)

// ItemsAccessor locates the items array inside a snapshot and rebuilds a
// snapshot around a replacement array. Implementations must satisfy the
// round-trip contract Items(WithItems(s, items)) == items and never mutate
// their inputs.
type ItemsAccessor interface {
	// Items extracts the array; missing, nil, or non-array data reads as
	// empty and never errors.
	Items(snap any) []any
	// WithItems returns a new snapshot with items in place. A nil snapshot
	// is synthesized rather than rejected.
	WithItems(snap any, items []any) any
}

// pathAccessor addresses the items array by dot path. An empty path means
// the snapshot itself is the array.
type pathAccessor struct {
	path string
	seed any
}

var _ ItemsAccessor = pathAccessor{}

func (a pathAccessor) Items(snap any) []any {
	if a.path == "" {
		return asItems(snap)
	}
	return asItems(dotpath.Get(snap, a.path, nil))
}

func (a pathAccessor) WithItems(snap any, items []any) any {
	if a.path == "" {
		// the items array IS the snapshot
		return items
	}
	if snap == nil && a.seed != nil {
		snap = a.seed
	}
	return dotpath.Set(snap, a.path, items)
}

// FuncAccessor adapts caller-supplied extract/rebuild functions to the
// ItemsAccessor interface: the injected-function configuration mode for
// snapshot shapes a dot path cannot address. Both functions are required
// and carry the same contract as the interface.
type FuncAccessor struct {
	Read  func(snap any) []any
	Write func(snap any, items []any) any
}

var _ ItemsAccessor = FuncAccessor{}

func (a FuncAccessor) Items(snap any) []any                { return a.Read(snap) }
func (a FuncAccessor) WithItems(snap any, items []any) any { return a.Write(snap, items) }

// asItems coerces v to []any. Non-slices, nil, and byte blobs read as
// empty; typed slices ([]string, []map[string]any) are converted
// element-wise so codec-specific decodings keep working.
func asItems(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	case []byte:
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
