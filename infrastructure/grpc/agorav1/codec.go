package agorav1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/mem"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the content-subtype the agora service is served with.
const CodecName = "json"

func init() {
	encoding.RegisterCodecV2(Codec{})
}

// Codec encodes the agora messages as JSON. Proto messages sharing the
// connection, such as health checks, go through protojson.
type Codec struct{}

func (Codec) Name() string {
	return CodecName
}

func (Codec) Marshal(v any) (mem.BufferSlice, error) {
	var (
		b   []byte
		err error
	)
	if m, ok := v.(proto.Message); ok {
		b, err = protojson.Marshal(m)
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return mem.BufferSlice{mem.SliceBuffer(b)}, nil
}

func (Codec) Unmarshal(data mem.BufferSlice, v any) error {
	b := data.Materialize()
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(b, m)
	}
	return json.Unmarshal(b, v)
}
