package noise

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net"
	"testing"
	"time"

	flynn "github.com/flynn/noise"

	"github.com/esphomeapi/client/wire"
)

// pipeConn creates a bidirectional connected pair over TCP loopback, the
// same approach the teacher's cryptoops tests use in place of net.Pipe (a
// real socket exercises short-read/partial-write paths net.Pipe hides).
func pipeConn(t *testing.T) (clientConn, serverConn net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	clientConn, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	serverConn = <-accepted
	return clientConn, serverConn
}

// mockDeviceHandshake runs the responder side of NNpsk0 directly against
// flynn/noise, acting as a minimal stand-in for a real device, and returns
// the resulting transport CipherStates (encrypt, decrypt) from the server's
// perspective.
func mockDeviceHandshake(t *testing.T, conn net.Conn, psk []byte, serverName, mac string) (encryptor, decryptor *flynn.CipherState) {
	t.Helper()

	var hello [3]byte
	if _, err := io.ReadFull(conn, hello[:]); err != nil {
		t.Fatalf("server: read noise-hello: %v", err)
	}
	if hello != [3]byte{0x01, 0x00, 0x00} {
		t.Fatalf("server: bad noise-hello %x", hello)
	}

	hs, err := flynn.NewHandshakeState(flynn.Config{
		CipherSuite:           cipherSuite,
		Pattern:               flynn.HandshakeNN,
		Initiator:             false,
		Prologue:              []byte(Prologue),
		PresharedKey:          psk,
		PresharedKeyPlacement: 0,
	})
	if err != nil {
		t.Fatalf("server: new handshake state: %v", err)
	}

	msg1Frame, err := readOuterEnvelope(conn)
	if err != nil {
		t.Fatalf("server: read message 1: %v", err)
	}
	if msg1Frame[0] != 0x00 {
		t.Fatalf("server: bad message 1 preamble %x", msg1Frame[0])
	}
	if _, _, _, err := hs.ReadMessage(nil, msg1Frame[1:]); err != nil {
		t.Fatalf("server: read message 1: %v", err)
	}

	identity := append([]byte{0x01}, []byte(serverName)...)
	identity = append(identity, 0x00)
	identity = append(identity, []byte(mac)...)
	identity = append(identity, 0x00)
	if err := writeOuterEnvelope(conn, identity); err != nil {
		t.Fatalf("server: write identity: %v", err)
	}

	msg2, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		t.Fatalf("server: write message 2: %v", err)
	}
	if err := writeOuterEnvelope(conn, append([]byte{0x00}, msg2...)); err != nil {
		t.Fatalf("server: send message 2: %v", err)
	}

	// cs1 = initiator->responder (server decrypts with it), cs2 =
	// responder->initiator (server encrypts with it).
	return cs2, cs1
}

func TestHandshakeRoundTrip(t *testing.T) {
	psk := make([]byte, PSKSize)
	if _, err := rand.Read(psk); err != nil {
		t.Fatalf("psk: %v", err)
	}

	clientConn, serverConn := pipeConn(t)
	defer clientConn.Close()
	defer serverConn.Close()

	type serverResult struct {
		enc, dec *flynn.CipherState
	}
	serverDone := make(chan serverResult, 1)
	go func() {
		enc, dec := mockDeviceHandshake(t, serverConn, psk, "unit-test-device", "aabbccddeeff")
		serverDone <- serverResult{enc, dec}
	}()

	hs, err := New(psk)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	codec, err := hs.Run(ctx, clientConn)
	if err != nil {
		t.Fatalf("client handshake: %v", err)
	}

	identity := hs.Identity()
	if identity.Name != "unit-test-device" || identity.MAC != "aabbccddeeff" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	srv := <-serverDone

	clientPayload := append([]byte{0, 1, 0, 4}, []byte("ping")...)
	framed, err := codec.Encode(clientPayload)
	if err != nil {
		t.Fatalf("client encode: %v", err)
	}
	buf := framed
	outer, ok, err := wire.DecodeOuter(&buf)
	if err != nil || !ok {
		t.Fatalf("decode outer: ok=%v err=%v", ok, err)
	}
	plain, err := srv.dec.Decrypt(nil, nil, outer)
	if err != nil {
		t.Fatalf("server decrypt: %v", err)
	}
	if !bytes.Equal(plain, clientPayload) {
		t.Fatalf("got %x, want %x", plain, clientPayload)
	}

	serverPayload := append([]byte{0, 2, 0, 4}, []byte("pong")...)
	ciphertext, err := srv.enc.Encrypt(nil, nil, serverPayload)
	if err != nil {
		t.Fatalf("server encrypt: %v", err)
	}
	serverFrame, err := wire.EncodeOuter(ciphertext)
	if err != nil {
		t.Fatalf("encode outer: %v", err)
	}
	decBuf := serverFrame
	got, ok, err := codec.Decode(&decBuf)
	if err != nil || !ok {
		t.Fatalf("client decode: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, serverPayload) {
		t.Fatalf("got %x, want %x", got, serverPayload)
	}
}

func TestDecodePSK(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 32))
	if _, err := DecodePSK(valid); err != nil {
		t.Fatalf("expected valid PSK to decode: %v", err)
	}

	shortKey := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x00}, 16))
	if _, err := DecodePSK(shortKey); err == nil {
		t.Fatal("expected error for a 16-byte PSK")
	}

	if _, err := DecodePSK("not-valid-base64!!"); err == nil {
		t.Fatal("expected error for malformed base64")
	}
}

func TestDecodePSKLiteralFromSpecScenario(t *testing.T) {
	// The exact PSK literal from the Noise-hello end-to-end scenario.
	psk, err := DecodePSK("AAECAwQFBgcICRAREhMUFRYXGBkgISIjJCUmJygpMDE=")
	if err != nil {
		t.Fatalf("expected the spec's literal PSK to decode: %v", err)
	}
	if len(psk) != PSKSize {
		t.Fatalf("got %d bytes, want %d", len(psk), PSKSize)
	}
}
