package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct serializes JSON-like snapshot values (string-keyed maps, slices,
// strings, numbers, bools, nil) as a protobuf Value message. Useful when the
// store is shared with consumers in other languages that already speak
// google.protobuf.Value.
//
// Numbers round-trip as float64, matching JSON semantics. Values outside the
// JSON-like set (channels, funcs, structs) fail to encode.
type Struct struct{}

var _ Codec[any] = Struct{}

func (Struct) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (Struct) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}
