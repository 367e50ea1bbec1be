package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/danmuck/tssctl/internal/protocol/frame"
	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// StreamDialer dials a raw TCP socket, TLS-wrapped for tls and https URLs.
// Every message on the socket is exactly one frame.
type StreamDialer struct {
	opts Options
}

func NewStreamDialer(opts Options) *StreamDialer {
	return &StreamDialer{opts: opts}
}

func (d *StreamDialer) Dial(ctx context.Context, rawURL string) (session.Conn, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrInvalidURL, err)
	}
	secure := session.SecureScheme(u.Scheme)
	switch strings.ToLower(u.Scheme) {
	case "tcp", "tls", "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q for stream", session.ErrUnsupportedScheme, u.Scheme)
	}
	address := hostPort(u)

	dialer := net.Dialer{Timeout: d.opts.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if !secure {
		return newStreamConn(rawConn, d.opts), nil
	}

	tlsCfg, err := d.opts.TLS.ClientConfig(address)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	log.Debug().Str("address", address).Msg("transport.StreamDialer tls handshake")
	return newStreamConn(conn, d.opts), nil
}

type streamConn struct {
	conn   net.Conn
	reader *bufio.Reader
	opts   Options

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newStreamConn(conn net.Conn, opts Options) *streamConn {
	return &streamConn{conn: conn, reader: bufio.NewReader(conn), opts: opts}
}

func (c *streamConn) ReadMessage() (session.MessageKind, []byte, error) {
	f, err := frame.ReadFrame(c.reader)
	if err != nil {
		return 0, nil, err
	}
	return session.MessageBinary, f.Bytes(), nil
}

// WriteMessage writes one frame. data must hold a full frame; bytes past
// frame.Size are not sent.
func (c *streamConn) WriteMessage(data []byte) error {
	f, err := frame.Decode(data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(writeDeadline(c.opts.WriteTimeout)); err != nil {
		return err
	}
	return frame.WriteFrame(c.conn, f)
}

func (c *streamConn) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}
