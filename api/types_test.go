package api

import "testing"

func TestHelloRequestRoundTrip(t *testing.T) {
	want := &HelloRequest{ClientInfo: "integration-test", APIVersionMajor: 1, APIVersionMinor: 10}
	body, err := want.MarshalVT()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := &HelloRequest{}
	if err := got.UnmarshalVT(body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestHelloResponseRoundTrip(t *testing.T) {
	want := &HelloResponse{APIVersionMajor: 1, APIVersionMinor: 10, ServerInfo: "mock-server", Name: "mock-server"}
	body, _ := want.MarshalVT()
	got := &HelloResponse{}
	if err := got.UnmarshalVT(body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestConnectResponseInvalidPassword(t *testing.T) {
	want := &ConnectResponse{InvalidPassword: true}
	body, _ := want.MarshalVT()
	got := &ConnectResponse{}
	if err := got.UnmarshalVT(body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.InvalidPassword {
		t.Fatal("expected InvalidPassword=true to survive round trip")
	}
}

func TestDeviceInfoResponseRoundTrip(t *testing.T) {
	want := &DeviceInfoResponse{Name: "Living Room", Model: "esp32-devkit", Board: "esp32", HasDeepSleep: true}
	body, _ := want.MarshalVT()
	got := &DeviceInfoResponse{}
	if err := got.UnmarshalVT(body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEmptyMessagesMarshalToEmptyBody(t *testing.T) {
	for _, msg := range []Message{
		&DisconnectRequest{}, &DisconnectResponse{},
		&PingRequest{}, &PingResponse{},
		&GetTimeRequest{}, &DeviceInfoRequest{},
	} {
		body, err := msg.MarshalVT()
		if err != nil {
			t.Fatalf("%T: marshal: %v", msg, err)
		}
		if len(body) != 0 {
			t.Fatalf("%T: expected empty body, got %x", msg, body)
		}
	}
}

func TestRegistryEncodeDecode(t *testing.T) {
	original := &HelloRequest{ClientInfo: "roundtrip", APIVersionMajor: 1, APIVersionMinor: 10}
	typeID, body, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if typeID != TypeHelloRequest {
		t.Fatalf("got type %d, want %d", typeID, TypeHelloRequest)
	}

	decoded, err := Decode(typeID, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*HelloRequest)
	if !ok {
		t.Fatalf("decoded to %T, want *HelloRequest", decoded)
	}
	if *got != *original {
		t.Fatalf("got %+v, want %+v", got, original)
	}
}

func TestRegistryDecodeUnknownType(t *testing.T) {
	_, err := Decode(TypeID(65535), nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered type id")
	}
}

func TestJoinSplitHeaderRoundTrip(t *testing.T) {
	body := []byte("hello world")
	framed := JoinHeader(TypeHelloRequest, body)

	typeID, got, err := SplitHeader(framed)
	if err != nil {
		t.Fatalf("SplitHeader: %v", err)
	}
	if typeID != TypeHelloRequest {
		t.Fatalf("got type %d, want %d", typeID, TypeHelloRequest)
	}
	if string(got) != string(body) {
		t.Fatalf("got %q, want %q", got, body)
	}
}

func TestSplitHeaderTooShort(t *testing.T) {
	if _, _, err := SplitHeader([]byte{0x00, 0x01}); err == nil {
		t.Fatal("expected an error for a payload shorter than the canonical header")
	}
}
