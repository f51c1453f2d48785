// Package noise drives the initiator side of the NNpsk0 handshake and
// produces the symmetric transport codec the stream reader/writer install
// once it completes. It adapts the locking and buffer-handling discipline of
// the teacher's Noise_XX handshaker (flynn/noise-based) to the device API's
// pre-shared-key pattern.
package noise

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net"
	"time"

	flynn "github.com/flynn/noise"

	"github.com/esphomeapi/client/apierr"
	"github.com/esphomeapi/client/wire"
)

// Prologue binds the handshake to this protocol, exactly as sent by the
// device: "NoiseAPIInit" followed by two NUL bytes.
const Prologue = "NoiseAPIInit\x00\x00"

// PSKSize is the only pre-shared key length the NNpsk0 pattern accepts.
const PSKSize = 32

// cipherSuite is Noise_*_25519_ChaChaPoly_SHA256.
var cipherSuite = flynn.NewCipherSuite(flynn.DH25519, flynn.CipherChaChaPoly, flynn.HashSHA256)

// DecodePSK base64-decodes a pre-shared key and validates its length.
// Any base64 error, or a decoded length other than 32 bytes, is InvalidKey.
func DecodePSK(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: %w", apierr.ErrInvalidKey, err)
	}
	if len(key) != PSKSize {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: invalid PSK length", apierr.ErrInvalidKey)
	}
	return key, nil
}

// ServerIdentity carries the informational fields the device announces
// before completing the handshake. The source implementation discards these
// after logging; this reimplementation surfaces them (see SPEC_FULL.md §4.3).
type ServerIdentity struct {
	Name string
	MAC  string
}

// Handshake drives one client-initiated NNpsk0 handshake to completion.
type Handshake struct {
	hs       *flynn.HandshakeState
	identity ServerIdentity
}

// New builds a Handshake for the given pre-shared key (already validated by
// DecodePSK).
func New(psk []byte) (*Handshake, error) {
	hs, err := flynn.NewHandshakeState(flynn.Config{
		CipherSuite:           cipherSuite,
		Pattern:               flynn.HandshakeNN,
		Initiator:             true,
		Prologue:              []byte(Prologue),
		PresharedKey:          psk,
		PresharedKeyPlacement: 0, // NNpsk0: psk mixed in before the first message
	})
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: %w", apierr.ErrHandshakeState, err)
	}
	return &Handshake{hs: hs}, nil
}

// Run executes INIT → SENT_HELLO → SENT_HANDSHAKE → GOT_SERVER_INFO →
// GOT_RESPONSE → TRANSPORT against conn and returns the resulting transport
// codec. ctx's deadline, if any, is applied to the underlying connection for
// the duration of the handshake.
func (h *Handshake) Run(ctx context.Context, conn net.Conn) (*TransportCodec, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, apierr.Wrapf(apierr.KindConnection, "%w: set deadline: %w", apierr.ErrHandshakeFailed, err)
		}
		defer conn.SetDeadline(time.Time{})
	}

	// INIT -> SENT_HELLO: the noise-hello marker is the very first bytes
	// ever sent on the wire, and the only frame whose body really is empty.
	if _, err := conn.Write([]byte{0x01, 0x00, 0x00}); err != nil {
		return nil, apierr.Wrapf(apierr.KindConnection, "%w: send hello: %w", apierr.ErrHandshakeFailed, err)
	}

	// SENT_HELLO -> SENT_HANDSHAKE
	msg1, _, _, err := h.hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: write message 1: %w", apierr.ErrHandshakeState, err)
	}
	if err := writeOuterEnvelope(conn, append([]byte{0x00}, msg1...)); err != nil {
		return nil, apierr.Wrapf(apierr.KindConnection, "%w: send message 1: %w", apierr.ErrHandshakeFailed, err)
	}

	// SENT_HANDSHAKE -> GOT_SERVER_INFO
	identityFrame, err := readOuterEnvelope(conn)
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindConnection, "%w: recv server identity: %w", apierr.ErrHandshakeFailed, err)
	}
	if len(identityFrame) == 0 || identityFrame[0] != 0x01 {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: expected server identity preamble 0x01", apierr.ErrHandshakeState)
	}
	name, mac, err := parseServerIdentity(identityFrame[1:])
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: %w", apierr.ErrHandshakeState, err)
	}
	h.identity = ServerIdentity{Name: name, MAC: mac}

	// GOT_SERVER_INFO -> GOT_RESPONSE
	respFrame, err := readOuterEnvelope(conn)
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindConnection, "%w: recv handshake response: %w", apierr.ErrHandshakeFailed, err)
	}
	if len(respFrame) == 0 || respFrame[0] != 0x00 {
		reason := ""
		if len(respFrame) > 1 {
			reason = string(respFrame[1:])
		}
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: Incorrect preamble: %s", apierr.ErrHandshakeState, reason)
	}
	_, cs1, cs2, err := h.hs.ReadMessage(nil, respFrame[1:])
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: read message 2: %w", apierr.ErrHandshakeState, err)
	}

	// GOT_RESPONSE -> TRANSPORT. cs1 is initiator->responder (our encrypt),
	// cs2 is responder->initiator (our decrypt).
	return newTransportCodec(cs1, cs2), nil
}

// Identity returns the server name/MAC captured during the handshake. Only
// valid after Run returns successfully.
func (h *Handshake) Identity() ServerIdentity {
	return h.identity
}

func parseServerIdentity(payload []byte) (name, mac string, err error) {
	nameEnd := bytes.IndexByte(payload, 0x00)
	if nameEnd < 0 {
		return "", "", apierr.Wrap(apierr.KindNoise, apierr.ErrHandshakeState)
	}
	name = string(payload[:nameEnd])
	rest := payload[nameEnd+1:]
	macEnd := bytes.IndexByte(rest, 0x00)
	if macEnd < 0 {
		return "", "", apierr.Wrap(apierr.KindNoise, apierr.ErrHandshakeState)
	}
	mac = string(rest[:macEnd])
	return name, mac, nil
}

func writeOuterEnvelope(w io.Writer, payload []byte) error {
	frame, err := wire.EncodeOuter(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

func readOuterEnvelope(r io.Reader) ([]byte, error) {
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != wire.PreambleNoise {
		return nil, apierr.Wrap(apierr.KindStream, apierr.ErrInvalidFrame)
	}
	length := int(header[1])<<8 | int(header[2])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
