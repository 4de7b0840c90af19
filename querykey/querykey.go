// Package querykey derives deterministic identity strings for logical
// queries: a scope plus the arguments that parameterize it. Argument order
// is significant; map iteration order is not.
package querykey

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxLen caps the rendered key so backends with key-size limits (and log
// lines) stay usable; longer keys collapse to a hashed form.
const maxLen = 256

// Build renders scope plus args into one canonical key:
//
//	Build("users", "org", 42, map[string]any{"active": true})
//	  => users|"org"|42|{"active"=true}
//
// Keys beyond an internal length cap become scope + ":" + a 16-hex xxhash
// of the canonical form, still deterministic per (scope, args).
func Build(scope string, args ...any) string {
	var b strings.Builder
	b.WriteString(scope)
	for _, a := range args {
		b.WriteByte('|')
		writeArg(&b, a)
	}
	k := b.String()
	if len(k) <= maxLen {
		return k
	}
	return fmt.Sprintf("%s:%016x", scope, xxhash.Sum64String(k))
}

func writeArg(b *strings.Builder, v any) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		b.WriteString(strconv.Quote(rv.String()))
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			var p strings.Builder
			writeArg(&p, iter.Key().Interface())
			p.WriteByte('=')
			writeArg(&p, iter.Value().Interface())
			pairs = append(pairs, p.String())
		}
		sort.Strings(pairs)
		b.WriteByte('{')
		b.WriteString(strings.Join(pairs, ","))
		b.WriteByte('}')
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			writeArg(b, rv.Index(i).Interface())
		}
		b.WriteByte(']')
	case reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("<nil>")
			return
		}
		writeArg(b, rv.Elem().Interface())
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
