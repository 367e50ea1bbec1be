package session

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/tssctl/internal/testutil/testlog"
	"github.com/danmuck/tssctl/internal/testutil/tlstest"
)

func TestRetryDelayGrowsToMax(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	if got := RetryDelay(cfg, 1); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := RetryDelay(cfg, 2); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := RetryDelay(cfg, 3); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := RetryDelay(cfg, 6); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestRetryDelayDefaultIsConstant(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig().Backoff
	for attempt := 1; attempt <= 5; attempt++ {
		if got := RetryDelay(cfg, attempt); got != 5*time.Second {
			t.Fatalf("attempt%d got=%v", attempt, got)
		}
	}
}

func TestRetryDelayZeroIsImmediate(t *testing.T) {
	testlog.Start(t)
	if got := RetryDelay(BackoffConfig{}, 3); got != 0 {
		t.Fatalf("expected immediate retry, got %v", got)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{URL: "ws://tss.local:14141", MaxReconnectAttempts: 3}.WithDefaults()
	if cfg.URL != "ws://tss.local:14141" || cfg.MaxReconnectAttempts != 3 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
	if cfg.ConnectTimeout != 5*time.Second || cfg.Backoff.InitialDelay != 5*time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestValidateTransportSchemes(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{
		"https://127.0.0.1:14141",
		"wss://tss.local/ws",
		"http://127.0.0.1:14141",
		"ws://127.0.0.1:14141",
		"tcp://127.0.0.1:14141",
		"tls://127.0.0.1:14141",
	} {
		cfg := DefaultConfig()
		cfg.URL = raw
		if err := cfg.ValidateTransport(); err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
	}

	cfg := DefaultConfig()
	cfg.URL = "udp://127.0.0.1:14141"
	if err := cfg.ValidateTransport(); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
	cfg.URL = "127.0.0.1"
	if err := cfg.ValidateTransport(); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestValidateTransportTLSMaterial(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.URL = "ws://127.0.0.1:14141"
	cfg.TLS.CAFile = "/tmp/ca.pem"
	if err := cfg.ValidateTransport(); !errors.Is(err, ErrTLSOnPlainScheme) {
		t.Fatalf("expected ErrTLSOnPlainScheme, got %v", err)
	}

	cfg.URL = "wss://127.0.0.1:14141"
	cfg.TLS.CertFile = "/tmp/client.pem"
	if err := cfg.ValidateTransport(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	cfg.TLS.CertFile = ""
	cfg.TLS.KeyFile = "/tmp/client.key"
	if err := cfg.ValidateTransport(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	cfg.TLS.CertFile = "/tmp/client.pem"
	if err := cfg.ValidateTransport(); err != nil {
		t.Fatalf("expected valid transport config, got %v", err)
	}
}

func TestTLSClientConfig(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "tss-test-ca")
	certFile, keyFile := ca.IssueClientCert(t, dir, "tssctl")

	cfg, err := TLSConfig{CAFile: ca.CAFile(), CertFile: certFile, KeyFile: keyFile}.ClientConfig("127.0.0.1:14141")
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "127.0.0.1" {
		t.Fatalf("unexpected server name %q", cfg.ServerName)
	}
	if cfg.RootCAs == nil || len(cfg.Certificates) != 1 {
		t.Fatalf("expected ca pool and client certificate")
	}

	cfg, err = TLSConfig{ServerName: "tss.local", InsecureSkipVerify: true}.ClientConfig(net.JoinHostPort("10.0.0.1", "443"))
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "tss.local" || !cfg.InsecureSkipVerify {
		t.Fatalf("unexpected tls config: %+v", cfg)
	}

	if _, err := (TLSConfig{CAFile: certFile + ".missing"}).ClientConfig("127.0.0.1:1"); err == nil {
		t.Fatalf("expected error for missing ca file")
	}
}
