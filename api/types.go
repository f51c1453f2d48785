// Package api is the generated-from-schema message registry: spec.md §1
// explicitly keeps the full application schema (entity listings, switch and
// sensor commands, etc.) out of the core's scope and treats it as an opaque
// encode/decode capability. This package implements the schema slice the
// façade itself depends on (connection setup, keep-alive, version
// negotiation) plus two illustrative request/response pairs that exercise
// the registry outside the façade's special-cased control messages.
package api

import "google.golang.org/protobuf/encoding/protowire"

// TypeID is the 16-bit numeric identifier the wire assigns to a message
// variant. Assignment is total in one direction (every Message has a
// TypeID) and partial in reverse (see Decode).
type TypeID uint16

// Message is the tagged union every known variant implements.
type Message interface {
	TypeID() TypeID
	MarshalVT() ([]byte, error)
}

// Schema-assigned type ids. A real deployment compiles these in from the
// device's schema version; see APIVersion in registry.go.
const (
	TypeHelloRequest       TypeID = 1
	TypeHelloResponse      TypeID = 2
	TypeConnectRequest     TypeID = 3
	TypeConnectResponse    TypeID = 4
	TypeDisconnectRequest  TypeID = 5
	TypeDisconnectResponse TypeID = 6
	TypePingRequest        TypeID = 7
	TypePingResponse       TypeID = 8
	TypeGetTimeRequest     TypeID = 9
	TypeGetTimeResponse    TypeID = 10
	TypeDeviceInfoRequest  TypeID = 11
	TypeDeviceInfoResponse TypeID = 12
)

// HelloRequest opens connection setup: the client announces itself and the
// compiled-in API version.
type HelloRequest struct {
	ClientInfo      string
	APIVersionMajor uint32
	APIVersionMinor uint32
}

func (*HelloRequest) TypeID() TypeID { return TypeHelloRequest }

func (m *HelloRequest) MarshalVT() ([]byte, error) {
	var b []byte
	b = appendStringField(b, 1, m.ClientInfo)
	b = appendUint32Field(b, 2, m.APIVersionMajor)
	b = appendUint32Field(b, 3, m.APIVersionMinor)
	return b, nil
}

func (m *HelloRequest) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		switch num {
		case 1:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.ClientInfo = v
		case 2:
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.APIVersionMajor = uint32(v)
		case 3:
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.APIVersionMinor = uint32(v)
		}
		return nil
	})
}

// HelloResponse answers HelloRequest with the device's own version and
// informational strings.
type HelloResponse struct {
	APIVersionMajor uint32
	APIVersionMinor uint32
	ServerInfo      string
	Name            string
}

func (*HelloResponse) TypeID() TypeID { return TypeHelloResponse }

func (m *HelloResponse) MarshalVT() ([]byte, error) {
	var b []byte
	b = appendUint32Field(b, 1, m.APIVersionMajor)
	b = appendUint32Field(b, 2, m.APIVersionMinor)
	b = appendStringField(b, 3, m.ServerInfo)
	b = appendStringField(b, 4, m.Name)
	return b, nil
}

func (m *HelloResponse) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		switch num {
		case 1:
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.APIVersionMajor = uint32(v)
		case 2:
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.APIVersionMinor = uint32(v)
		case 3:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.ServerInfo = v
		case 4:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.Name = v
		}
		return nil
	})
}

// ConnectRequest carries the legacy password, sent only when connection
// setup is enabled.
type ConnectRequest struct {
	Password string
}

func (*ConnectRequest) TypeID() TypeID { return TypeConnectRequest }

func (m *ConnectRequest) MarshalVT() ([]byte, error) {
	return appendStringField(nil, 1, m.Password), nil
}

func (m *ConnectRequest) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		if num == 1 {
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.Password = v
		}
		return nil
	})
}

// ConnectResponse reports whether the password was accepted.
type ConnectResponse struct {
	InvalidPassword bool
}

func (*ConnectResponse) TypeID() TypeID { return TypeConnectResponse }

func (m *ConnectResponse) MarshalVT() ([]byte, error) {
	return appendBoolField(nil, 1, m.InvalidPassword), nil
}

func (m *ConnectResponse) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		if num == 1 {
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.InvalidPassword = v != 0
		}
		return nil
	})
}

// DisconnectRequest asks the peer to close the connection gracefully.
type DisconnectRequest struct{}

func (*DisconnectRequest) TypeID() TypeID                  { return TypeDisconnectRequest }
func (*DisconnectRequest) MarshalVT() ([]byte, error)       { return nil, nil }
func (*DisconnectRequest) UnmarshalVT(_ []byte) error       { return nil }

// DisconnectResponse acknowledges a DisconnectRequest.
type DisconnectResponse struct{}

func (*DisconnectResponse) TypeID() TypeID            { return TypeDisconnectResponse }
func (*DisconnectResponse) MarshalVT() ([]byte, error) { return nil, nil }
func (*DisconnectResponse) UnmarshalVT(_ []byte) error { return nil }

// PingRequest is the device's keep-alive probe; the façade answers it
// automatically when handle_ping is enabled (see client package).
type PingRequest struct{}

func (*PingRequest) TypeID() TypeID            { return TypePingRequest }
func (*PingRequest) MarshalVT() ([]byte, error) { return nil, nil }
func (*PingRequest) UnmarshalVT(_ []byte) error { return nil }

// PingResponse is the client's automatic reply to PingRequest.
type PingResponse struct{}

func (*PingResponse) TypeID() TypeID            { return TypePingResponse }
func (*PingResponse) MarshalVT() ([]byte, error) { return nil, nil }
func (*PingResponse) UnmarshalVT(_ []byte) error { return nil }

// GetTimeRequest asks the device for its idea of wall-clock time.
type GetTimeRequest struct{}

func (*GetTimeRequest) TypeID() TypeID            { return TypeGetTimeRequest }
func (*GetTimeRequest) MarshalVT() ([]byte, error) { return nil, nil }
func (*GetTimeRequest) UnmarshalVT(_ []byte) error { return nil }

// GetTimeResponse carries the device's epoch seconds.
type GetTimeResponse struct {
	EpochSeconds uint32
}

func (*GetTimeResponse) TypeID() TypeID { return TypeGetTimeResponse }

func (m *GetTimeResponse) MarshalVT() ([]byte, error) {
	return appendUint32Field(nil, 1, m.EpochSeconds), nil
}

func (m *GetTimeResponse) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		if num == 1 {
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.EpochSeconds = uint32(v)
		}
		return nil
	})
}

// DeviceInfoRequest asks for the device's static identification fields.
type DeviceInfoRequest struct{}

func (*DeviceInfoRequest) TypeID() TypeID            { return TypeDeviceInfoRequest }
func (*DeviceInfoRequest) MarshalVT() ([]byte, error) { return nil, nil }
func (*DeviceInfoRequest) UnmarshalVT(_ []byte) error { return nil }

// DeviceInfoResponse is an illustrative slice of the device schema
// (spec.md §1 places the full entity/schema surface out of scope; this
// pair exists only to exercise the registry with string/bool fields
// beyond the façade's own control messages).
type DeviceInfoResponse struct {
	Name         string
	Model        string
	Board        string
	HasDeepSleep bool
}

func (*DeviceInfoResponse) TypeID() TypeID { return TypeDeviceInfoResponse }

func (m *DeviceInfoResponse) MarshalVT() ([]byte, error) {
	var b []byte
	b = appendStringField(b, 1, m.Name)
	b = appendStringField(b, 2, m.Model)
	b = appendStringField(b, 3, m.Board)
	b = appendBoolField(b, 4, m.HasDeepSleep)
	return b, nil
}

func (m *DeviceInfoResponse) UnmarshalVT(data []byte) error {
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, raw []byte) error {
		switch num {
		case 1:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.Name = v
		case 2:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.Model = v
		case 3:
			v, err := consumeString(raw)
			if err != nil {
				return err
			}
			m.Board = v
		case 4:
			v, err := consumeVarint(raw)
			if err != nil {
				return err
			}
			m.HasDeepSleep = v != 0
		}
		return nil
	})
}
