// Package client is the public façade: it binds stream.Reader, stream.Writer
// and the api registry, drives the connect-time envelope handshake and the
// optional hello/connect exchange, and answers keep-alive pings
// transparently on the read path, the way the teacher's RelayClient
// (sdk/go/client.go) binds its transport and pubsub layers behind one
// Start/Close surface.
package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/esphomeapi/client/api"
	"github.com/esphomeapi/client/apierr"
	"github.com/esphomeapi/client/noise"
	"github.com/esphomeapi/client/stream"
	"github.com/esphomeapi/client/wire"
)

// Builder accumulates Options before Connect dials out. Use New to create
// one.
type Builder struct {
	cfg config
}

// New returns a Builder with defaults applied and opts layered on top.
func New(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{cfg: cfg}
}

// Client is a live, connected session: an exclusively-owned reader, a
// cheaply-clonable writer, and the negotiated peer identity (when Noise was
// used).
type Client struct {
	conn       net.Conn
	reader     *stream.Reader
	writer     stream.Writer
	handlePing bool

	state    ConnectionState
	peerName string
	peerMAC  string
}

// Connect dials cfg.address, completes the selected envelope's handshake,
// optionally runs the hello/connect exchange, and returns a ready Client.
// The entire phase — dial, handshake, hello/connect — is bounded by the
// Builder's configured timeout (default 30s); any deadline overrun surfaces
// as a Timeout error and never leaves a half-open socket behind (the
// connection is closed on every error path below).
func (b *Builder) Connect(parent context.Context) (*Client, error) {
	cfg := b.cfg
	if cfg.address == "" {
		return nil, apierr.Wrap(apierr.KindConfiguration, apierr.ErrMissingAddress)
	}

	ctx, cancel := context.WithTimeout(parent, cfg.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", cfg.address)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apierr.Timeoutf(cfg.timeout.Milliseconds())
		}
		return nil, apierr.Wrapf(apierr.KindConnection, "%w: dial %s: %w", apierr.ErrDial, cfg.address, err)
	}

	c := &Client{conn: conn, handlePing: cfg.handlePing, state: StateConnecting}
	c.reader = stream.NewReader(conn, wire.PlainCodec{})
	c.writer = stream.NewWriter(conn, wire.PlainCodec{})

	if cfg.key != "" {
		if err := c.runNoiseHandshake(ctx, cfg.key); err != nil {
			conn.Close()
			if ctx.Err() == context.DeadlineExceeded {
				return nil, apierr.Timeoutf(cfg.timeout.Milliseconds())
			}
			return nil, err
		}
	}
	c.state = StateGreeted

	if cfg.connectionSetup {
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetDeadline(deadline)
		}
		if err := c.performConnectionSetup(cfg); err != nil {
			conn.Close()
			c.state = StateFailed
			if ctx.Err() == context.DeadlineExceeded {
				return nil, apierr.Timeoutf(cfg.timeout.Milliseconds())
			}
			return nil, err
		}
		conn.SetDeadline(time.Time{})
		c.state = StateAuthenticated
	}

	c.state = StateReady
	return c, nil
}

func (c *Client) runNoiseHandshake(ctx context.Context, key string) error {
	psk, err := noise.DecodePSK(key)
	if err != nil {
		return err
	}
	hs, err := noise.New(psk)
	if err != nil {
		return err
	}
	codec, err := hs.Run(ctx, c.conn)
	if err != nil {
		return err
	}
	c.reader.SetDecoder(codec)
	c.writer.SetEncoder(codec)

	identity := hs.Identity()
	c.peerName = identity.Name
	c.peerMAC = identity.MAC
	return nil
}

func (c *Client) performConnectionSetup(cfg config) error {
	hello := &api.HelloRequest{
		ClientInfo:      cfg.clientInfo,
		APIVersionMajor: api.Version.Major,
		APIVersionMinor: api.Version.Minor,
	}
	if err := c.TryWrite(hello); err != nil {
		return err
	}

	helloMsg, err := c.readUntil(func(m api.Message) bool {
		_, ok := m.(*api.HelloResponse)
		return ok
	})
	if err != nil {
		return err
	}
	resp := helloMsg.(*api.HelloResponse)
	if resp.APIVersionMajor != api.Version.Major {
		return apierr.Wrapf(apierr.KindProtocolMismatch, "%w: server major=%d local major=%d",
			apierr.ErrProtocolMismatch, resp.APIVersionMajor, api.Version.Major)
	}
	if resp.APIVersionMinor != api.Version.Minor {
		log.Warn().
			Uint32("server_minor", resp.APIVersionMinor).
			Uint32("local_minor", api.Version.Minor).
			Msg("esphomeapi: server API minor version differs from client")
	}

	if err := c.TryWrite(&api.ConnectRequest{Password: cfg.password}); err != nil {
		return err
	}

	connMsg, err := c.readUntil(func(m api.Message) bool {
		_, ok := m.(*api.ConnectResponse)
		return ok
	})
	if err != nil {
		return err
	}
	if connMsg.(*api.ConnectResponse).InvalidPassword {
		return apierr.Wrapf(apierr.KindAuthentication, "%w: Invalid password", apierr.ErrAuthentication)
	}
	return nil
}

// readUntil drains messages via TryRead, discarding (at debug level) any
// that don't satisfy match, the same tolerance spec.md §7 calls for during
// connection setup.
func (c *Client) readUntil(match func(api.Message) bool) (api.Message, error) {
	for {
		msg, err := c.TryRead()
		if err != nil {
			return nil, err
		}
		if match(msg) {
			return msg, nil
		}
		log.Debug().Str("type", fmt.Sprintf("%T", msg)).Msg("esphomeapi: discarding message during connection setup")
	}
}

// PeerInfo returns the server name and MAC address captured during the
// Noise handshake's server-identity frame. Both are empty when the
// plaintext envelope was used.
func (c *Client) PeerInfo() (name, mac string) {
	return c.peerName, c.peerMAC
}

// State reports the client's current position in the connect/ready/closed
// lifecycle.
func (c *Client) State() ConnectionState {
	return c.state
}

// TryWrite encodes msg via the registry and hands it to the writer.
func (c *Client) TryWrite(msg api.Message) error {
	typeID, body, err := api.Encode(msg)
	if err != nil {
		return err
	}
	return c.writer.WriteMessage(api.JoinHeader(typeID, body))
}

// TryRead returns the next application message, transparently answering and
// swallowing PingRequest frames when handle_ping is enabled — try_read never
// returns a PingRequest to the caller in that mode.
func (c *Client) TryRead() (api.Message, error) {
	for {
		payload, err := c.reader.ReadMessage()
		if err != nil {
			return nil, err
		}
		typeID, body, err := api.SplitHeader(payload)
		if err != nil {
			return nil, err
		}
		msg, err := api.Decode(typeID, body)
		if err != nil {
			return nil, err
		}
		if _, isPing := msg.(*api.PingRequest); isPing && c.handlePing {
			if err := c.TryWrite(&api.PingResponse{}); err != nil {
				return nil, err
			}
			continue
		}
		return msg, nil
	}
}

// WriteStream returns a cheaply-clonable sender sharing this client's
// socket, encoder, and write lock.
func (c *Client) WriteStream() stream.Writer {
	return c.writer.Clone()
}

// Close sends a DisconnectRequest best-effort and closes the socket. The
// disconnect write's failure is not surfaced: the socket is closing either
// way.
func (c *Client) Close() error {
	_ = c.TryWrite(&api.DisconnectRequest{})
	c.state = StateClosed
	c.reader.Close()
	return c.conn.Close()
}
