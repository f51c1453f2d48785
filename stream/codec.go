// Package stream owns the two halves of a connected TCP socket: Reader
// drains frames out of a growable buffer via a pluggable Decoder, Writer
// frames and emits payloads via a pluggable Encoder. Both the plaintext
// wire.PlainCodec and the post-handshake noise.TransportCodec satisfy these
// two small capability interfaces, so the façade can swap codecs after the
// handshake without either half knowing which envelope is in use.
package stream

// Decoder drains at most one complete frame from the front of *buf,
// returning the decoded canonical payload. ok is false, and buf is left
// untouched, when the buffer does not yet hold a whole frame.
type Decoder interface {
	Decode(buf *[]byte) (payload []byte, ok bool, err error)
}

// Encoder frames a canonical payload (type_id BE16 ‖ inner_len BE16 ‖ body)
// for the wire.
type Encoder interface {
	Encode(payload []byte) ([]byte, error)
}

// locker is implemented by codecs (noise.TransportCodec) whose Encode must
// run in the same critical section as the socket write that follows it, to
// keep nonce order in step with ciphertext order on the wire. Encoders that
// don't need this (wire.PlainCodec) simply don't implement it.
type locker interface {
	Lock()
	Unlock()
}
