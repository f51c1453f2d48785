package noise

import (
	"sync"

	flynn "github.com/flynn/noise"
	"github.com/valyala/bytebufferpool"

	"github.com/esphomeapi/client/apierr"
	"github.com/esphomeapi/client/wire"
)

// scratchPool provides the 65535-byte scratch buffers transport-mode
// encrypt/decrypt write into, adapted from the teacher's
// cryptoops.acquireBuffer/releaseBuffer pool (minus the cryptographic
// identity material, these buffers only ever hold wire bytes, but are still
// wiped on release out of the same caution).
var scratchPool bytebufferpool.Pool

func acquireScratch() *bytebufferpool.ByteBuffer {
	b := scratchPool.Get()
	if cap(b.B) < wire.MaxNoisePayload {
		b.B = make([]byte, 0, wire.MaxNoisePayload)
	}
	b.B = b.B[:0]
	return b
}

func releaseScratch(b *bytebufferpool.ByteBuffer) {
	full := b.B[:cap(b.B)]
	for i := range full {
		full[i] = 0
	}
	scratchPool.Put(b)
}

// TransportCodec is the symmetric post-handshake Noise session, shared
// between the stream reader (decrypt) and stream writer (encrypt) under one
// mutex: the spec requires encrypt and the following socket write to happen
// in the same critical section, which the writer enforces by holding this
// same lock across Encode+conn.Write (see stream.Writer).
type TransportCodec struct {
	mu        sync.Mutex
	encryptor *flynn.CipherState
	decryptor *flynn.CipherState
}

func newTransportCodec(encryptor, decryptor *flynn.CipherState) *TransportCodec {
	return &TransportCodec{encryptor: encryptor, decryptor: decryptor}
}

// Lock/Unlock expose the session mutex so stream.Writer can hold it across
// both the encrypt call and the subsequent socket write.
func (t *TransportCodec) Lock()   { t.mu.Lock() }
func (t *TransportCodec) Unlock() { t.mu.Unlock() }

// Encode encrypts a canonical payload (type_id BE16 ‖ inner_len BE16 ‖ body)
// and frames it under the outer Noise envelope. The caller must hold the
// codec's lock for the duration of Encode and the socket write that follows
// it — stream.Writer does this via Lock/Unlock — so that nonce order on the
// Noise session matches ciphertext order on the wire.
func (t *TransportCodec) Encode(payload []byte) ([]byte, error) {
	if len(payload) < wire.CanonicalHeaderSize {
		return nil, apierr.Wrapf(apierr.KindStream, "%w: payload must be at least 4 bytes long", apierr.ErrInvalidFrame)
	}

	scratch := acquireScratch()
	defer releaseScratch(scratch)

	ciphertext, err := t.encryptor.Encrypt(scratch.B, nil, payload)
	if err != nil {
		return nil, apierr.Wrapf(apierr.KindNoise, "%w: %w", apierr.ErrCryptoOperation, err)
	}
	return wire.EncodeOuter(ciphertext)
}

// Decode consumes one outer Noise envelope from *buf and decrypts it. The
// decrypted plaintext is already shaped as the canonical header ‖ body, so
// it is returned unchanged — the upper layers see identical byte shapes
// regardless of which envelope is in use.
func (t *TransportCodec) Decode(buf *[]byte) (payload []byte, ok bool, err error) {
	ciphertext, ok, err := wire.DecodeOuter(buf)
	if err != nil || !ok {
		return nil, ok, err
	}

	scratch := acquireScratch()
	defer releaseScratch(scratch)

	t.mu.Lock()
	plain, err := t.decryptor.Decrypt(scratch.B, nil, ciphertext)
	t.mu.Unlock()
	if err != nil {
		return nil, false, apierr.Wrapf(apierr.KindNoise, "%w: %w", apierr.ErrCryptoOperation, err)
	}
	if len(plain) < wire.CanonicalHeaderSize {
		return nil, false, apierr.Wrap(apierr.KindProtocol, apierr.ErrDecodeFailed)
	}

	out := make([]byte, len(plain))
	copy(out, plain)
	return out, true, nil
}
