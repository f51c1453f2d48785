package noise

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// GenerateKey returns a fresh base64-encoded 32-byte pre-shared key, in the
// same encoding DecodePSK expects back. Intended for device-pairing tooling,
// not for the connect path itself.
//
// Panics if the system randomness source fails: there is nothing safe to
// return a PSK generator caller could mistake for a usable key.
func GenerateKey() string {
	psk := make([]byte, PSKSize)
	if _, err := io.ReadFull(rand.Reader, psk); err != nil {
		panic(fmt.Errorf("noise: failed to read crypto randomness for PSK generation: %w", err))
	}
	return base64.StdEncoding.EncodeToString(psk)
}
