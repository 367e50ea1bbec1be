package session

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

var (
	ErrInvalidURL          = errors.New("session: invalid url")
	ErrUnsupportedScheme   = errors.New("session: unsupported url scheme")
	ErrTLSCertFileRequired = errors.New("session: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("session: tls key file required")
	ErrTLSOnPlainScheme    = errors.New("session: tls settings on plaintext scheme")
)

// SecureScheme reports whether scheme implies a TLS-wrapped socket.
func SecureScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "https", "wss", "tls":
		return true
	default:
		return false
	}
}

func knownScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "https", "wss", "tls", "http", "ws", "tcp":
		return true
	default:
		return false
	}
}

// ValidateTransport checks the URL and TLS material before any dial.
func (c Config) ValidateTransport() error {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, c.URL)
	}
	if !knownScheme(u.Scheme) {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	tlsSet := c.TLS != (TLSConfig{})
	if tlsSet && !SecureScheme(u.Scheme) {
		return fmt.Errorf("%w: %q", ErrTLSOnPlainScheme, u.Scheme)
	}
	if strings.TrimSpace(c.TLS.CertFile) != "" && strings.TrimSpace(c.TLS.KeyFile) == "" {
		return ErrTLSKeyFileRequired
	}
	if strings.TrimSpace(c.TLS.KeyFile) != "" && strings.TrimSpace(c.TLS.CertFile) == "" {
		return ErrTLSCertFileRequired
	}
	return nil
}

// ClientConfig builds a tls.Config for dialing address (host:port).
func (t TLSConfig) ClientConfig(address string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(t.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(t.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("session: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if strings.TrimSpace(t.CertFile) != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
