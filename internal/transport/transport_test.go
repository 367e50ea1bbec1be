package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/tssctl/internal/protocol/frame"
	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/danmuck/tssctl/internal/testutil/testlog"
	"github.com/danmuck/tssctl/internal/testutil/tlstest"
	"github.com/gorilla/websocket"
)

func testOptions() Options {
	return Options{ConnectTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second}
}

func TestNewDialerKinds(t *testing.T) {
	testlog.Start(t)
	d, err := NewDialer("", testOptions())
	if err != nil {
		t.Fatalf("default dialer: %v", err)
	}
	if _, ok := d.(*WebSocketDialer); !ok {
		t.Fatalf("expected websocket dialer by default, got %T", d)
	}
	d, err = NewDialer("STREAM", testOptions())
	if err != nil {
		t.Fatalf("stream dialer: %v", err)
	}
	if _, ok := d.(*StreamDialer); !ok {
		t.Fatalf("expected stream dialer, got %T", d)
	}
	if _, err := NewDialer("carrier-pigeon", testOptions()); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestWebSocketURLMapping(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"https://127.0.0.1:14141":    "wss://127.0.0.1:14141",
		"http://127.0.0.1:14141/tss": "ws://127.0.0.1:14141/tss",
		"wss://tss.local":            "wss://tss.local",
	}
	for in, want := range cases {
		u, err := websocketURL(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if u.String() != want {
			t.Fatalf("%s: got %s want %s", in, u.String(), want)
		}
	}
	if _, err := websocketURL("tcp://127.0.0.1:1"); !errors.Is(err, session.ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestWebSocketExchangesFrames(t *testing.T) {
	testlog.Start(t)
	received := make(chan []byte, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		_ = conn.WriteMessage(websocket.BinaryMessage, frame.Encode(10, 2, 1.0))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := NewWebSocketDialer(testOptions()).Dial(ctx, srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := frame.Encode(1700000000, 2, 0)
	if err := conn.WriteMessage(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-received:
		if !bytes.Equal(got, req) {
			t.Fatalf("server got % x want % x", got, req)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive request")
	}

	kind, data, err := conn.ReadMessage()
	if err != nil || kind != session.MessageText || string(data) != "hello" {
		t.Fatalf("expected text message, got kind=%s data=%q err=%v", kind, data, err)
	}
	kind, data, err = conn.ReadMessage()
	if err != nil || kind != session.MessageBinary {
		t.Fatalf("expected binary message, got kind=%s err=%v", kind, err)
	}
	if !bytes.Equal(data, frame.Encode(10, 2, 1.0)) {
		t.Fatalf("unexpected frame bytes % x", data)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWebSocketDialRejectedHandshake(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := NewWebSocketDialer(testOptions()).Dial(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("expected handshake status error, got %v", err)
	}
}

func TestStreamExchangesFrames(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan frame.Frame, 1)
	go serveFrames(ln, received)

	conn, err := NewStreamDialer(testOptions()).Dial(context.Background(), "tcp://"+ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	assertStreamExchange(t, conn, received)
}

func TestStreamOverTLS(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "tss-test-ca")
	ln, err := tls.Listen("tcp", "127.0.0.1:0", ca.LoopbackServerConfig(t, dir))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan frame.Frame, 1)
	go serveFrames(ln, received)

	opts := testOptions()
	opts.TLS = session.TLSConfig{CAFile: ca.CAFile()}
	conn, err := NewStreamDialer(opts).Dial(context.Background(), "tls://"+ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	assertStreamExchange(t, conn, received)
}

func TestStreamTLSRejectsUnknownAuthority(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "tss-test-ca")
	certFile, keyFile := ca.IssueServerCert(t, dir, "tss-server", nil, []net.IP{net.ParseIP("127.0.0.1")})
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("load server cert: %v", err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		_ = c.(*tls.Conn).Handshake()
		_ = c.Close()
	}()

	_, err = NewStreamDialer(testOptions()).Dial(context.Background(), "tls://"+ln.Addr().String())
	if err == nil {
		t.Fatalf("expected verification failure without ca file")
	}
}

func TestStreamRejectsWebSocketScheme(t *testing.T) {
	testlog.Start(t)
	_, err := NewStreamDialer(testOptions()).Dial(context.Background(), "ws://127.0.0.1:1")
	if !errors.Is(err, session.ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestStreamWriteRejectsShortPayload(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := newStreamConn(client, testOptions())
	defer conn.Close()
	if err := conn.WriteMessage([]byte{1, 2, 3}); !errors.Is(err, frame.ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame, got %v", err)
	}
}

// serveFrames accepts one connection, records the first frame, then replies
// with two frames back to back.
func serveFrames(ln net.Listener, received chan<- frame.Frame) {
	c, err := ln.Accept()
	if err != nil {
		return
	}
	defer c.Close()
	f, err := frame.ReadFrame(c)
	if err != nil {
		return
	}
	received <- f
	var out []byte
	out = append(out, frame.Encode(10, 2, 1.0)...)
	out = append(out, frame.Encode(11, 6, 0)...)
	_, _ = c.Write(out)
	_, _ = frame.ReadFrame(c)
}

func assertStreamExchange(t *testing.T, conn session.Conn, received <-chan frame.Frame) {
	t.Helper()
	if err := conn.WriteMessage(frame.Encode(1700000000, 2, 0)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case f := <-received:
		if f.Timestamp != 1700000000 || f.CommandID != 2 || f.Value != 0 {
			t.Fatalf("unexpected request frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive request")
	}

	for _, want := range [][]byte{frame.Encode(10, 2, 1.0), frame.Encode(11, 6, 0)} {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind != session.MessageBinary || !bytes.Equal(data, want) {
			t.Fatalf("got kind=%s % x want % x", kind, data, want)
		}
	}
}
