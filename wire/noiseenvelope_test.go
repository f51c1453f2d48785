package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/esphomeapi/client/apierr"
)

func TestOuterEnvelopeRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, 1000)
	framed, err := EncodeOuter(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	buf := framed
	got, ok, err := DecodeOuter(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("round trip failed: ok=%v got=%x", ok, got)
	}
	if len(buf) != 0 {
		t.Fatalf("expected buffer drained, got %d bytes left", len(buf))
	}
}

func TestOuterEnvelopeIncomplete(t *testing.T) {
	framed, _ := EncodeOuter([]byte("hello"))
	for n := 0; n < len(framed); n++ {
		buf := append([]byte(nil), framed[:n]...)
		_, ok, err := DecodeOuter(&buf)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if ok {
			t.Fatalf("n=%d: expected ok=false", n)
		}
	}
}

func TestOuterEnvelopeUnexpectedPlain(t *testing.T) {
	buf := []byte{PreamblePlain, 0x00, 0x01, 0x00}
	_, _, err := DecodeOuter(&buf)
	if !errors.Is(err, apierr.ErrUnexpectedPlain) {
		t.Fatalf("expected ErrUnexpectedPlain, got %v", err)
	}
}

func TestEncodeOuterTooLarge(t *testing.T) {
	_, err := EncodeOuter(make([]byte, MaxNoisePayload+1))
	if !errors.Is(err, apierr.ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
