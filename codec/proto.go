package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoValue carries the tree as a google.protobuf.Value message, for
// pipelines that already move protobuf envelopes around. All numbers come
// back as float64.
type ProtoValue struct{}

var _ Codec[any] = ProtoValue{}

func (ProtoValue) Name() string { return "proto" }

func (ProtoValue) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (ProtoValue) Decode(b []byte) (any, error) {
	pv := &structpb.Value{}
	if err := proto.Unmarshal(b, pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}
