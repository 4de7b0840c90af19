// Package codec serializes snapshot values for byte-backed stores.
//
// Snapshots are dynamic JSON-like graphs (map[string]any, []any, scalars),
// so every codec here decodes container values back into those shapes:
// string-keyed maps that dot-path addressing can walk.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
