// Package apierr defines the error taxonomy shared by every layer of the
// client: wire framing, the Noise handshake, the message registry, and the
// connection façade never return bare errors.New strings — they wrap one of
// the sentinels below so callers can classify failures with errors.Is.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into the categories the façade's caller needs to
// tell apart (retry a timeout, surface a password prompt, refuse a bad PSK...).
type Kind int

const (
	KindConfiguration Kind = iota
	KindConnection
	KindStream
	KindProtocol
	KindNoise
	KindTimeout
	KindProtocolMismatch
	KindAuthentication
	KindInvalidInternalState
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindStream:
		return "stream"
	case KindProtocol:
		return "protocol"
	case KindNoise:
		return "noise"
	case KindTimeout:
		return "timeout"
	case KindProtocolMismatch:
		return "protocol_mismatch"
	case KindAuthentication:
		return "authentication"
	case KindInvalidInternalState:
		return "invalid_internal_state"
	default:
		return "unknown"
	}
}

// Error is the wrapper type every exported failure is returned as. Err is
// always non-nil and unwraps to one of the sentinels in this package.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an *Error of the given kind around err. Returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf is Wrap with fmt.Errorf-style formatting of the underlying cause.
func Wrapf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Sentinels. Each layer returns these wrapped in an *Error of the matching Kind.
var (
	// Configuration
	ErrMissingAddress       = errors.New("address is required")
	ErrMultipleSchemaActive = errors.New("more than one message schema version is compiled in")

	// Connection
	ErrDial             = errors.New("tcp connect failed")
	ErrHandshakeFailed  = errors.New("noise handshake failed")

	// Stream
	ErrInvalidFrame   = errors.New("invalid frame")
	ErrFrameTooLarge  = errors.New("frame exceeds maximum size")
	ErrReadFailed     = errors.New("stream read failed")
	ErrWriteFailed    = errors.New("stream write failed")

	// Protocol
	ErrDecodeFailed         = errors.New("message decode failed")
	ErrEncodeFailed         = errors.New("message encode failed")
	ErrUnknownMessageType   = errors.New("unknown message type")
	ErrUnexpectedPlain      = errors.New("unexpected plaintext frame, noise was negotiated")
	ErrUnexpectedEncryption = errors.New("unexpected noise frame, plaintext was negotiated")
	ErrValidationFailed     = errors.New("message validation failed")

	// Noise
	ErrInvalidKey          = errors.New("invalid pre-shared key")
	ErrHandshakeState      = errors.New("noise handshake state error")
	ErrTransportState      = errors.New("noise transport state error")
	ErrCryptoOperation     = errors.New("noise crypto operation failed")

	// Timeout
	ErrTimeout = errors.New("operation timed out")

	// ProtocolMismatch
	ErrProtocolMismatch = errors.New("incompatible api version")

	// Authentication
	ErrAuthentication = errors.New("invalid password")

	// InvalidInternalState
	ErrMutexPoisoned = errors.New("noise session mutex poisoned by a prior panic")
)

// Timeoutf builds a Timeout-kind error carrying the configured budget.
func Timeoutf(timeoutMs int64) error {
	return Wrapf(KindTimeout, "%w after %dms", ErrTimeout, timeoutMs)
}
