package cache

import (
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts values between callers and a byte-oriented store.
type Codec interface {
	// Name identifies the codec in configuration.
	Name() string

	// Encode returns a value the store client can write.
	Encode(v any) (any, error)

	// Decode converts stored bytes back into a value.
	Decode(data []byte) (any, error)
}

// Serializer names accepted by NewCodec.
const (
	SerializerRaw     = "raw"
	SerializerMsgpack = "msgpack"
)

// NewCodec returns the codec registered under name. decodeResponses only applies to the raw
// codec: true decodes replies to strings, false keeps them as []byte.
func NewCodec(name string, decodeResponses bool) (Codec, error) {
	switch name {
	case "", SerializerRaw:
		return RawCodec{DecodeResponses: decodeResponses}, nil
	case SerializerMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, errors.Newf("unknown serializer %q", name)
	}
}

// RawCodec hands values to the store client unchanged.
type RawCodec struct {
	DecodeResponses bool
}

// Name implements Codec.
func (RawCodec) Name() string { return SerializerRaw }

// Encode implements Codec.
func (RawCodec) Encode(v any) (any, error) { return v, nil }

// Decode implements Codec.
func (c RawCodec) Decode(data []byte) (any, error) {
	if c.DecodeResponses {
		return string(data), nil
	}
	return data, nil
}

// MsgpackCodec serializes every value with msgpack, so non-scalar values survive a round trip.
type MsgpackCodec struct{}

// Name implements Codec.
func (MsgpackCodec) Name() string { return SerializerMsgpack }

// Encode implements Codec.
func (MsgpackCodec) Encode(v any) (any, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "msgpack encode")
	}
	return data, nil
}

// Decode implements Codec.
func (MsgpackCodec) Decode(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "msgpack decode")
	}
	return v, nil
}
