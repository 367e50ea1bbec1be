// Package transport provides the socket implementations behind session.Dialer:
// a websocket dialer for TSS servers that speak binary websocket messages and a
// stream dialer for raw TCP or TLS sockets carrying back-to-back frames.
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/tssctl/internal/protocol/session"
)

var ErrUnknownKind = errors.New("transport: unknown transport kind")

// Kind names a transport implementation in configuration.
type Kind string

const (
	KindWebSocket Kind = "websocket"
	KindStream    Kind = "stream"
)

// Options carries dial settings shared by every transport.
type Options struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	TLS            session.TLSConfig
}

// OptionsFromSession copies the dial-relevant fields of a session config.
func OptionsFromSession(cfg session.Config) Options {
	return Options{
		ConnectTimeout: cfg.ConnectTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		TLS:            cfg.TLS,
	}
}

// NewDialer returns the dialer for kind. An empty kind selects websocket.
func NewDialer(kind Kind, opts Options) (session.Dialer, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case "", KindWebSocket:
		return &WebSocketDialer{opts: opts}, nil
	case KindStream:
		return &StreamDialer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// hostPort returns u's host with the scheme default port filled in.
func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if session.SecureScheme(u.Scheme) {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

func writeDeadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
