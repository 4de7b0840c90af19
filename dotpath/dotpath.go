// Package dotpath reads and writes values inside nested map[string]any
// graphs addressed by dot-separated paths ("data.content", "page.totalElements").
//
// Reads absorb structural misses: a missing key, a nil node, or a non-map
// intermediate yields the caller's default instead of an error. Writes never
// mutate the input graph; Set returns a new root with fresh maps along the
// written path and every untouched branch shared by reference with the input.
package dotpath

import (
	"encoding/json"
	"math"
	"strings"
)

// Get walks path through root and returns the value at the final segment.
// It returns def when root is nil, an intermediate is missing or not a
// map[string]any, or the final key is absent. A present final key holding
// nil returns nil, not def: presence wins over the default.
//
// An empty path has no segments to resolve and returns def.
func Get(root any, path string, def any) any {
	if path == "" {
		return def
	}
	cur := root
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		v, ok := m[seg]
		if !ok {
			return def
		}
		if i == len(segs)-1 {
			return v
		}
		cur = v
	}
	return def
}

// Has reports whether every segment of path is a present key in its parent.
// A present final key with a nil value still counts as present.
func Has(root any, path string) bool {
	if path == "" {
		return false
	}
	cur := root
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		v, ok := m[seg]
		if !ok {
			return false
		}
		if i == len(segs)-1 {
			return true
		}
		cur = v
	}
	return false
}

// Set returns a new root with v placed at path. The input graph is never
// mutated: the root and each container along the path are shallow-cloned,
// and any missing or non-map intermediate is replaced with a fresh map.
// Branches not on the path are shared by reference with the input.
//
// An empty path is a no-op that returns root unchanged.
func Set(root any, path string, v any) any {
	if path == "" {
		return root
	}
	return setSegs(root, strings.Split(path, "."), v)
}

func setSegs(node any, segs []string, v any) map[string]any {
	out := cloneMap(node)
	if len(segs) == 1 {
		out[segs[0]] = v
		return out
	}
	out[segs[0]] = setSegs(out[segs[0]], segs[1:], v)
	return out
}

// cloneMap shallow-copies node when it is a map[string]any; anything else
// (nil included) becomes a fresh empty map, dropping the old value.
func cloneMap(node any) map[string]any {
	m, ok := node.(map[string]any)
	if !ok {
		return make(map[string]any, 1)
	}
	out := make(map[string]any, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	return out
}

// Increment adds delta to the numeric value at path and returns the new
// root. A missing or non-numeric current value counts as 0. The result is
// written as int64 and may be negative; clamping is the caller's concern.
func Increment(root any, path string, delta int64) any {
	n, _ := Int64(Get(root, path, nil))
	return Set(root, path, n+delta)
}

// Int64 coerces v to int64. It accepts every integer kind, unsigned kinds
// that fit, whole-valued floats (the shape JSON decoding produces), and
// json.Number. Fractional floats, overflows, and non-numeric values report
// ok=false with a zero result.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt64(f)
		}
		return 0, false
	}
	return 0, false
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
