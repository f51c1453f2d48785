package client

import "time"

// config is the resolved set of connect-time options a Builder accumulates.
// It is unexported; callers build one exclusively through the With*
// functional options below, mirroring the teacher's ClientConfig/
// applyDefaults shape (sdk/go/client.go) but expressed as options rather
// than a single exported struct, since this façade's options are too varied
// in kind (strings, durations, booleans) for one flat struct literal to
// read well at call sites.
type config struct {
	address         string
	key             string
	password        string
	clientInfo      string
	timeout         time.Duration
	connectionSetup bool
	handlePing      bool
}

const defaultTimeout = 30 * time.Second
const defaultClientInfo = "esphomeapi-client"

func defaultConfig() config {
	return config{
		clientInfo:      defaultClientInfo,
		timeout:         defaultTimeout,
		connectionSetup: true,
		handlePing:      true,
	}
}

// Option configures a Builder. Apply with New.
type Option func(*config)

// WithAddress sets the required host:port to dial. Omitting it fails
// Connect with a Configuration error.
func WithAddress(address string) Option {
	return func(c *config) { c.address = address }
}

// WithKey sets the base64-encoded 32-byte pre-shared key. Its presence
// selects the Noise envelope; its absence selects the plaintext envelope.
func WithKey(base64PSK string) Option {
	return func(c *config) { c.key = base64PSK }
}

// WithPassword sets the legacy password sent in ConnectRequest. Only takes
// effect when connection setup is enabled.
func WithPassword(password string) Option {
	return func(c *config) { c.password = password }
}

// WithClientInfo overrides the string sent in HelloRequest.
func WithClientInfo(info string) Option {
	return func(c *config) { c.clientInfo = info }
}

// WithTimeout overrides the wall-clock budget for dial, envelope handshake
// and, when enabled, the hello/connect exchange (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithoutConnectionSetup skips the hello/connect exchange entirely; Connect
// returns as soon as the chosen envelope's handshake completes.
func WithoutConnectionSetup() Option {
	return func(c *config) { c.connectionSetup = false }
}

// WithoutPingHandling disables the façade's automatic PingResponse; every
// PingRequest is then returned to the caller like any other message.
func WithoutPingHandling() Option {
	return func(c *config) { c.handlePing = false }
}
