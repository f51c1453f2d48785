package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// DefaultServiceLabel is the DNS-SD service type the devices this client
// targets register themselves under.
const DefaultServiceLabel = "_esphomelib._tcp"

// MDNSDiscoverer browses a local network for devices advertising under a
// DNS-SD service label, using github.com/grandcat/zeroconf the way the
// mDNS-based examples in the retrieval pack do (e.g. the zeroconf-backed
// discovery clients under other_examples/manifests).
type MDNSDiscoverer struct {
	// Service overrides DefaultServiceLabel.
	Service string
	// Domain overrides the default "local." lookup domain.
	Domain string
}

// Discover browses until ctx is cancelled, emitting one Device per
// resolved service instance.
func (d MDNSDiscoverer) Discover(ctx context.Context) (<-chan Device, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: create resolver: %w", err)
	}

	service := d.Service
	if service == "" {
		service = DefaultServiceLabel
	}
	domain := d.Domain
	if domain == "" {
		domain = "local."
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	out := make(chan Device, 16)

	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return nil, fmt.Errorf("discovery: browse %s%s: %w", service, domain, err)
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				dev, ok := deviceFromEntry(entry)
				if !ok {
					continue
				}
				select {
				case out <- dev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func deviceFromEntry(entry *zeroconf.ServiceEntry) (Device, bool) {
	var addr net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		addr = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		addr = entry.AddrIPv6[0]
	default:
		return Device{}, false
	}

	attrs := make(map[string]string, len(entry.Text))
	hasEncryption := false
	for _, txt := range entry.Text {
		key, value := splitTXT(txt)
		attrs[key] = value
		if key == "friendly_name_encrypted" || key == "api_encryption" {
			hasEncryption = true
		}
	}

	return Device{
		Hostname:      entry.HostName,
		Address:       net.JoinHostPort(addr.String(), strconv.Itoa(entry.Port)),
		Attributes:    attrs,
		HasEncryption: hasEncryption,
	}, true
}

func splitTXT(txt string) (key, value string) {
	for i := 0; i < len(txt); i++ {
		if txt[i] == '=' {
			return txt[:i], txt[i+1:]
		}
	}
	return txt, ""
}
