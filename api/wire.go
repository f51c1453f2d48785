package api

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/esphomeapi/client/apierr"
)

// This file hand-writes the MarshalVT/UnmarshalVT method shapes the teacher's
// schema compiler (vtprotobuf) would otherwise generate. There is no .proto
// schema or code generator available here, so the message types in types.go
// are encoded/decoded directly against protowire — the same low-level wire
// primitives vtprotobuf itself targets — rather than against the reflective
// google.golang.org/protobuf/proto API.

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUint32Field(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// consumeFields walks every field in data, handing each (number, type,
// raw field bytes) to onField. Unknown field numbers are the caller's
// responsibility to ignore — forward-compatible with fields this build
// doesn't know about, same as a real generated decoder.
func consumeFields(data []byte, onField func(num protowire.Number, typ protowire.Type, raw []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
		}
		data = data[n:]

		fieldLen := protowire.ConsumeFieldValue(num, typ, data)
		if fieldLen < 0 {
			return apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
		}
		raw := data[:fieldLen]
		data = data[fieldLen:]

		if err := onField(num, typ, raw); err != nil {
			return err
		}
	}
	return nil
}

func consumeString(raw []byte) (string, error) {
	v, n := protowire.ConsumeString(raw)
	if n < 0 {
		return "", apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
	}
	return v, nil
}

func consumeBytes(raw []byte) ([]byte, error) {
	v, n := protowire.ConsumeBytes(raw)
	if n < 0 {
		return nil, apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func consumeVarint(raw []byte) (uint64, error) {
	v, n := protowire.ConsumeVarint(raw)
	if n < 0 {
		return 0, apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
	}
	return v, nil
}
