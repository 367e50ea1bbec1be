package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketDialer dials TSS servers over websocket. http and https URLs are
// rewritten to ws and wss.
type WebSocketDialer struct {
	opts Options
}

func NewWebSocketDialer(opts Options) *WebSocketDialer {
	return &WebSocketDialer{opts: opts}
}

func (d *WebSocketDialer) Dial(ctx context.Context, rawURL string) (session.Conn, error) {
	u, err := websocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: d.opts.ConnectTimeout}
	if u.Scheme == "wss" {
		tlsCfg, err := d.opts.TLS.ClientConfig(hostPort(u))
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: websocket handshake status=%d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	log.Debug().Str("url", u.String()).Msg("transport.WebSocketDialer dial")
	return &wsConn{conn: conn, opts: d.opts}, nil
}

func websocketURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("%w: %q for websocket", session.ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

type wsConn struct {
	conn *websocket.Conn
	opts Options

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadMessage() (session.MessageKind, []byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, nil, err
		}
		switch typ {
		case websocket.BinaryMessage:
			return session.MessageBinary, data, nil
		case websocket.TextMessage:
			return session.MessageText, data, nil
		}
	}
}

func (c *wsConn) WriteMessage(data []byte) error {
	if err := c.conn.SetWriteDeadline(writeDeadline(c.opts.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, writeDeadline(c.opts.WriteTimeout))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
