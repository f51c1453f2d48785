package stream

import (
	"io"
	"net"
	"sync"

	"github.com/esphomeapi/client/apierr"
	"github.com/esphomeapi/client/internal/pool"
)

// Reader owns the read half of a connected socket, a growable accumulation
// buffer, and a pluggable Decoder. Only one goroutine may call ReadMessage
// at a time; a concurrent call returns InvalidInternalState instead of
// corrupting the buffer.
type Reader struct {
	conn    net.Conn
	decoder Decoder
	buf     []byte
	tmp     []byte

	inFlight sync.Mutex
}

// NewReader creates a reader over conn using decoder as its initial frame
// decoder (typically wire.PlainCodec{} before any Noise handshake).
func NewReader(conn net.Conn, decoder Decoder) *Reader {
	return &Reader{
		conn:    conn,
		decoder: decoder,
		buf:     make([]byte, 0, 64*1024),
		tmp:     pool.AcquireReadBuffer(),
	}
}

// Close returns the reader's pooled scratch buffer. It does not close conn;
// the Client owns socket lifetime.
func (r *Reader) Close() {
	pool.ReleaseReadBuffer(r.tmp)
	r.tmp = nil
}

// SetDecoder swaps the installed decoder, used once to promote from the
// plaintext codec to the Noise transport codec after a successful
// handshake. Must not be called while a ReadMessage call is in flight.
func (r *Reader) SetDecoder(d Decoder) {
	r.decoder = d
}

// ReadMessage returns the next decoded canonical payload
// (type_id BE16 ‖ inner_len BE16 ‖ body), blocking until a full frame is
// available.
func (r *Reader) ReadMessage() ([]byte, error) {
	if !r.inFlight.TryLock() {
		return nil, apierr.Wrapf(apierr.KindInvalidInternalState, "%w: concurrent ReadMessage calls on the same reader", apierr.ErrReadFailed)
	}
	defer r.inFlight.Unlock()

	for {
		payload, ok, err := r.decoder.Decode(&r.buf)
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}

		n, err := r.conn.Read(r.tmp)
		if err != nil {
			if err == io.EOF {
				return nil, apierr.Wrapf(apierr.KindStream, "%w: connection closed: %w", apierr.ErrReadFailed, err)
			}
			return nil, apierr.Wrapf(apierr.KindStream, "%w: %w", apierr.ErrReadFailed, err)
		}
		if n == 0 {
			// The source treats a zero-length read as "not ready" rather
			// than EOF; Go's net.Conn rarely returns (0, nil), but we keep
			// the same tolerance (spec.md §9 open question).
			continue
		}
		r.buf = append(r.buf, r.tmp[:n]...)
	}
}
