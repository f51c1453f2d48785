package stream

import (
	"net"
	"sync"

	"github.com/esphomeapi/client/apierr"
)

// sharedWriter is the reference-counted-by-pointer state every clone of a
// Writer points at: one socket, one encoder, one lock. Cloning a Writer
// never duplicates the socket or the encoder.
type sharedWriter struct {
	conn    net.Conn
	encoder Encoder
	mu      sync.Mutex
}

// Writer is a cheaply-clonable handle onto the write half of a connection.
// Concurrent WriteMessage calls from any of a Writer's clones are
// serialized: each call takes the shared lock for its full duration, so
// frames from different callers are never interleaved on the wire.
type Writer struct {
	shared *sharedWriter
}

// NewWriter creates a writer over conn using encoder as its initial frame
// encoder (typically wire.PlainCodec{} before any Noise handshake).
func NewWriter(conn net.Conn, encoder Encoder) Writer {
	return Writer{shared: &sharedWriter{conn: conn, encoder: encoder}}
}

// Clone returns a handle sharing this writer's socket, encoder, and lock.
func (w Writer) Clone() Writer {
	return Writer{shared: w.shared}
}

// SetEncoder swaps the installed encoder, used once to promote from the
// plaintext codec to the Noise transport codec after a successful
// handshake. Visible to every existing clone.
func (w Writer) SetEncoder(e Encoder) {
	w.shared.mu.Lock()
	w.shared.encoder = e
	w.shared.mu.Unlock()
}

// WriteMessage frames and emits a canonical payload
// (type_id BE16 ‖ inner_len BE16 ‖ body). When the installed encoder is the
// Noise transport codec, the encrypt step and the socket write happen in the
// same critical section (the codec's own lock, held for the whole call) so
// ciphertext order on the wire always matches the session's nonce order.
func (w Writer) WriteMessage(payload []byte) error {
	w.shared.mu.Lock()
	defer w.shared.mu.Unlock()

	encoder := w.shared.encoder
	if lk, ok := encoder.(locker); ok {
		lk.Lock()
		defer lk.Unlock()
	}

	framed, err := encoder.Encode(payload)
	if err != nil {
		return err
	}
	return writeFull(w.shared.conn, framed)
}

func writeFull(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return apierr.Wrapf(apierr.KindStream, "%w: %w", apierr.ErrWriteFailed, err)
		}
		data = data[n:]
	}
	return nil
}
