package codec

import "encoding/json"

// JSON is the default snapshot codec. Decoding into any yields string-keyed
// maps and float64 numbers, the shapes the mutation engine operates on.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
