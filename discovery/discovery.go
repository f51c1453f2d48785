// Package discovery is the narrow boundary collaborator spec.md §6 calls
// for: local-network device discovery is explicitly out of the core's
// scope, so this package only pins down the shape a discoverer must expose
// and ships a minimal mDNS-backed implementation behind it.
package discovery

import "context"

// Device is one discovered peer, resolved enough for a caller to hand its
// address straight to client.WithAddress.
type Device struct {
	Hostname      string
	Address       string
	Attributes    map[string]string
	HasEncryption bool
}

// Discoverer streams discovered devices until ctx is cancelled or the
// implementation's channel is exhausted.
type Discoverer interface {
	Discover(ctx context.Context) (<-chan Device, error)
}
