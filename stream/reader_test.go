package stream

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/esphomeapi/client/wire"
)

func TestReaderReadMessage(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	payload := []byte{0x00, 0x01, 0x00, 0x03, 'a', 'b', 'c'}
	framed, err := wire.PlainCodec{}.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	go func() {
		_, _ = serverConn.Write(framed[:2])
		time.Sleep(10 * time.Millisecond)
		_, _ = serverConn.Write(framed[2:])
	}()

	r := NewReader(clientConn, wire.PlainCodec{})
	defer r.Close()

	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %x, want %x", got, payload)
	}
}

func TestReaderConcurrentCallsRejected(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	r := NewReader(clientConn, wire.PlainCodec{})
	defer r.Close()

	r.inFlight.Lock()
	defer r.inFlight.Unlock()

	_, err := r.ReadMessage()
	if err == nil {
		t.Fatal("expected an error when ReadMessage is called while another call is in flight")
	}
}
