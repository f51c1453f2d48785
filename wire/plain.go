package wire

import (
	"encoding/binary"

	"github.com/esphomeapi/client/apierr"
)

// PreamblePlain and PreambleNoise tag the first byte of every frame on the
// wire: 0x00 selects the plaintext envelope, 0x01 selects the Noise
// envelope. Any other leading byte is a fatal, unrecoverable protocol error.
const (
	PreamblePlain byte = 0x00
	PreambleNoise byte = 0x01
)

// CanonicalHeaderSize is the 4-byte prefix (type_id BE16, inner_len BE16)
// that both envelopes agree on once a frame has been deframed.
const CanonicalHeaderSize = 4

const canonicalHeaderSize = CanonicalHeaderSize

// PlainCodec implements the plaintext envelope described in spec §4.1:
//
//	0x00 ‖ LEB128(inner_len) ‖ LEB128(type_id) ‖ body[inner_len]
//
// It satisfies both stream.Decoder and stream.Encoder.
type PlainCodec struct{}

// Encode frames a canonical payload (type_id BE16 ‖ inner_len BE16 ‖ body)
// for the plaintext envelope.
func (PlainCodec) Encode(payload []byte) ([]byte, error) {
	if len(payload) < canonicalHeaderSize {
		return nil, apierr.Wrapf(apierr.KindStream, "%w: payload must be at least 4 bytes long", apierr.ErrInvalidFrame)
	}
	typeID := binary.BigEndian.Uint16(payload[0:2])
	innerLen := binary.BigEndian.Uint16(payload[2:4])
	body := payload[canonicalHeaderSize:]

	out := make([]byte, 0, 1+2*maxLEB128Bytes+len(body))
	out = append(out, PreamblePlain)
	out = putLEB128(out, innerLen)
	out = putLEB128(out, typeID)
	out = append(out, body...)
	return out, nil
}

// Decode consumes one complete frame from the front of *buf, returning the
// canonical payload (type_id BE16 ‖ length BE16 ‖ body). It returns
// ok=false, consuming nothing, when *buf does not yet hold a whole frame.
func (PlainCodec) Decode(buf *[]byte) (payload []byte, ok bool, err error) {
	b := *buf
	if len(b) < 3 {
		return nil, false, nil
	}
	if b[0] != PreamblePlain {
		if b[0] == PreambleNoise {
			return nil, false, apierr.Wrap(apierr.KindProtocol, apierr.ErrUnexpectedEncryption)
		}
		return nil, false, apierr.Wrap(apierr.KindStream, apierr.ErrInvalidFrame)
	}

	rest := b[1:]
	length, n1, ok1, err := takeLEB128(rest)
	if err != nil {
		return nil, false, err
	}
	if !ok1 {
		return nil, false, nil
	}
	rest = rest[n1:]

	typeID, n2, ok2, err := takeLEB128(rest)
	if err != nil {
		return nil, false, err
	}
	if !ok2 {
		return nil, false, nil
	}
	rest = rest[n2:]

	if int(length) > 0xffff {
		return nil, false, apierr.Wrap(apierr.KindStream, apierr.ErrFrameTooLarge)
	}
	if len(rest) < int(length) {
		return nil, false, nil
	}
	body := rest[:length]

	consumed := 1 + n1 + n2 + int(length)
	out := make([]byte, canonicalHeaderSize+len(body))
	binary.BigEndian.PutUint16(out[0:2], typeID)
	binary.BigEndian.PutUint16(out[2:4], length)
	copy(out[canonicalHeaderSize:], body)

	*buf = b[consumed:]
	return out, true, nil
}
