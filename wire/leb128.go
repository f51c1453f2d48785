package wire

import "github.com/esphomeapi/client/apierr"

// maxLEB128Bytes is the most bytes a u16 value needs in a 7-bit-per-byte
// little-endian base-128 encoding (ceil(16/7) == 3).
const maxLEB128Bytes = 3

// putLEB128 appends v encoded as an unsigned LEB128 varint to dst and returns
// the extended slice.
func putLEB128(dst []byte, v uint16) []byte {
	x := uint32(v)
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// takeLEB128 decodes a u16 LEB128 varint from the front of buf. It returns
// ok=false without error when buf does not yet contain a complete varint
// (caller should wait for more data); it returns an error when the varint
// would decode to a value wider than 16 bits.
func takeLEB128(buf []byte) (value uint16, n int, ok bool, err error) {
	var result uint32
	var shift uint
	for i := 0; i < maxLEB128Bytes; i++ {
		if i >= len(buf) {
			return 0, 0, false, nil
		}
		b := buf[i]
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			if result > 0xffff {
				return 0, 0, false, apierr.Wrap(apierr.KindStream, apierr.ErrInvalidFrame)
			}
			return uint16(result), i + 1, true, nil
		}
		shift += 7
	}
	return 0, 0, false, apierr.Wrap(apierr.KindStream, apierr.ErrInvalidFrame)
}
