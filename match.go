package snapmut

import (
	"encoding/json"
	"math"
	"reflect"
)

// KeyFunc extracts the identity of an item. ok is false when the item
// carries no usable key (wrong shape, field absent, or nil).
type KeyFunc func(item any) (key any, ok bool)

// DefaultKey reads the conventional "id" field of map-shaped items.
var DefaultKey = KeyField("id")

// KeyField builds an extractor for map-shaped items keyed by the named
// field. A present-but-nil field counts as missing: nil cannot identify
// anything.
func KeyField(name string) KeyFunc {
	return func(item any) (any, bool) {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[name]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// keysEqual compares two item keys. Numeric keys are normalized first so
// representation drift between codecs cannot break matching: a JSON-decoded
// float64(2) equals a literal int 2 equals json.Number("2"). Values of
// non-comparable dynamic types never match (and never panic).
func keysEqual(a, b any) bool {
	na, nb := normKey(a), normKey(b)
	ta, tb := reflect.TypeOf(na), reflect.TypeOf(nb)
	if ta == nil || tb == nil {
		return ta == tb // both nil match; one nil never does
	}
	if ta != tb || !ta.Comparable() {
		return false
	}
	return na == nb
}

// normKey folds every integer representation to int64 and whole floats to
// int64 as well, so cross-codec numeric keys land in one comparison domain.
// Fractional floats stay float64; strings pass through.
func normKey(v any) any {
	switch k := v.(type) {
	case string:
		return k
	case int:
		return int64(k)
	case int8:
		return int64(k)
	case int16:
		return int64(k)
	case int32:
		return int64(k)
	case int64:
		return k
	case uint:
		return normUint(uint64(k))
	case uint8:
		return int64(k)
	case uint16:
		return int64(k)
	case uint32:
		return int64(k)
	case uint64:
		return normUint(k)
	case float32:
		return normFloat(float64(k))
	case float64:
		return normFloat(k)
	case json.Number:
		if i, err := k.Int64(); err == nil {
			return i
		}
		if f, err := k.Float64(); err == nil {
			return normFloat(f)
		}
		return k.String()
	}
	return v
}

func normUint(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

func normFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}
