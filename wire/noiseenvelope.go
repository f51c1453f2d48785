package wire

import (
	"encoding/binary"

	"github.com/esphomeapi/client/apierr"
)

// MaxNoisePayload is the largest payload a single outer Noise frame can
// carry (length is a big-endian u16).
const MaxNoisePayload = 0xffff

// EncodeOuter frames an arbitrary payload (ciphertext, or the plaintext
// noise-hello/handshake messages) under the outer Noise envelope:
//
//	0x01 ‖ BE_u16(len) ‖ payload[len]
func EncodeOuter(payload []byte) ([]byte, error) {
	if len(payload) > MaxNoisePayload {
		return nil, apierr.Wrap(apierr.KindStream, apierr.ErrFrameTooLarge)
	}
	out := make([]byte, 3+len(payload))
	out[0] = PreambleNoise
	binary.BigEndian.PutUint16(out[1:3], uint16(len(payload)))
	copy(out[3:], payload)
	return out, nil
}

// DecodeOuter consumes one outer Noise envelope from the front of *buf,
// returning its (still possibly encrypted) payload. ok=false, consuming
// nothing, means *buf does not yet hold a complete envelope.
func DecodeOuter(buf *[]byte) (payload []byte, ok bool, err error) {
	b := *buf
	if len(b) < 3 {
		return nil, false, nil
	}
	if b[0] != PreambleNoise {
		if b[0] == PreamblePlain {
			return nil, false, apierr.Wrap(apierr.KindProtocol, apierr.ErrUnexpectedPlain)
		}
		return nil, false, apierr.Wrap(apierr.KindStream, apierr.ErrInvalidFrame)
	}
	length := binary.BigEndian.Uint16(b[1:3])
	if len(b) < 3+int(length) {
		return nil, false, nil
	}
	out := make([]byte, length)
	copy(out, b[3:3+int(length)])
	*buf = b[3+int(length):]
	return out, true, nil
}
