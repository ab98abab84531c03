package database

import (
	"bytes"

	"github.com/asdine/storm/v3/codec"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/pkg/errors"
	ugorji "github.com/ugorji/go/codec"
)

// Codec names accepted by Options.Codec.
const (
	CodecMsgpack = "msgpack"
	CodecCBOR    = "cbor"
	CodecBinc    = "binc"
)

// ugorjiCodec encodes records with one of the ugorji/go handles.
type ugorjiCodec struct {
	name   string
	handle func() ugorji.Handle
}

func (c ugorjiCodec) Marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	if err := ugorji.NewEncoder(&b, c.handle()).Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (c ugorjiCodec) Unmarshal(b []byte, v any) error {
	return ugorji.NewDecoderBytes(b, c.handle()).Decode(v)
}

func (c ugorjiCodec) Name() string {
	return c.name
}

// lookupCodec returns the storage codec for the given name, msgpack being the default.
func lookupCodec(name string) (codec.MarshalUnmarshaler, error) {
	switch name {
	case "", CodecMsgpack:
		return msgpack.Codec, nil
	case CodecCBOR:
		// CBOR (Concise Binary Object Representation), RFC 7049.
		return ugorjiCodec{name: CodecCBOR, handle: func() ugorji.Handle { return &ugorji.CborHandle{TimeRFC3339: true} }}, nil
	case CodecBinc:
		// See https://github.com/ugorji/binc
		return ugorjiCodec{name: CodecBinc, handle: func() ugorji.Handle { return &ugorji.BincHandle{} }}, nil
	}
	return nil, errors.Errorf("unsupported database codec %q", name)
}
