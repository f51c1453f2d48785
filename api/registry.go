package api

import (
	"encoding/binary"

	"github.com/esphomeapi/client/apierr"
)

// APIVersion is the schema compatibility number the façade negotiates during
// the Hello exchange. Two endpoints are compatible whenever their Major
// fields match; Minor is informational only.
type APIVersion struct {
	Major uint32
	Minor uint32
}

// Version is the schema version this build implements.
var Version = APIVersion{Major: 1, Minor: 10}

// Compatible reports whether a peer announcing other can interoperate with
// this build.
func (v APIVersion) Compatible(other APIVersion) bool {
	return v.Major == other.Major
}

type unmarshaler interface {
	Message
	UnmarshalVT([]byte) error
}

// decoders maps a TypeID to a constructor for its zero value, used by Decode
// to dispatch without a type switch. Unregistered ids decode to
// ErrUnknownMessageType rather than panicking, the same tolerance a real
// schema-versioned peer needs for messages newer than this build knows.
var decoders = map[TypeID]func() unmarshaler{
	TypeHelloRequest:       func() unmarshaler { return &HelloRequest{} },
	TypeHelloResponse:      func() unmarshaler { return &HelloResponse{} },
	TypeConnectRequest:     func() unmarshaler { return &ConnectRequest{} },
	TypeConnectResponse:    func() unmarshaler { return &ConnectResponse{} },
	TypeDisconnectRequest:  func() unmarshaler { return &DisconnectRequest{} },
	TypeDisconnectResponse: func() unmarshaler { return &DisconnectResponse{} },
	TypePingRequest:        func() unmarshaler { return &PingRequest{} },
	TypePingResponse:       func() unmarshaler { return &PingResponse{} },
	TypeGetTimeRequest:     func() unmarshaler { return &GetTimeRequest{} },
	TypeGetTimeResponse:    func() unmarshaler { return &GetTimeResponse{} },
	TypeDeviceInfoRequest:  func() unmarshaler { return &DeviceInfoRequest{} },
	TypeDeviceInfoResponse: func() unmarshaler { return &DeviceInfoResponse{} },
}

// Encode returns the wire type id and body bytes for msg, ready to hand to
// stream.Writer.WriteMessage after the canonical 4-byte header is prepended
// by the caller (see client.Client.TryWrite).
func Encode(msg Message) (TypeID, []byte, error) {
	body, err := msg.MarshalVT()
	if err != nil {
		return 0, nil, apierr.Wrap(apierr.KindProtocol, err)
	}
	return msg.TypeID(), body, nil
}

// Decode dispatches on typeID and unmarshals body into the matching
// registered Message. Returns ErrUnknownMessageType, wrapped as
// KindProtocol, for any id this build does not recognize.
func Decode(typeID TypeID, body []byte) (Message, error) {
	ctor, ok := decoders[typeID]
	if !ok {
		return nil, apierr.Wrap(apierr.KindProtocol, apierr.ErrUnknownMessageType)
	}
	msg := ctor()
	if err := msg.UnmarshalVT(body); err != nil {
		return nil, err
	}
	return msg, nil
}

// SplitHeader parses the 4-byte canonical header (type_id BE16 ‖ inner_len
// BE16) a stream.Reader hands back, separating it from the trailing body.
// The inner length field is redundant with the envelope framing that already
// delivered exactly this many bytes, so it is skipped and never checked
// against len(payload) — a source peer that gets it wrong is still readable.
func SplitHeader(payload []byte) (typeID TypeID, body []byte, err error) {
	if len(payload) < 4 {
		return 0, nil, apierr.Wrap(apierr.KindProtocol, apierr.ErrInvalidFrame)
	}
	typeID = TypeID(binary.BigEndian.Uint16(payload[0:2]))
	return typeID, payload[4:], nil
}

// JoinHeader prepends the canonical 4-byte header to body.
func JoinHeader(typeID TypeID, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint16(out[0:2], uint16(typeID))
	binary.BigEndian.PutUint16(out[2:4], uint16(len(body)))
	copy(out[4:], body)
	return out
}
