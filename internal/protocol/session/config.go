package session

import "time"

// DefaultURL is the TSS server address used when none is configured.
const DefaultURL = "https://127.0.0.1:14141"

// BackoffConfig defines the reconnect delay policy.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// TLSConfig defines client-side TLS material for secure schemes.
type TLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines TSS connection defaults.
type Config struct {
	URL                  string
	ConnectTimeout       time.Duration
	WriteTimeout         time.Duration
	MaxReconnectAttempts int
	Backoff              BackoffConfig
	TLS                  TLSConfig
}

// DefaultConfig returns the TSS connection defaults: five attempts, constant
// five second reconnect delay.
func DefaultConfig() Config {
	return Config{
		URL:                  DefaultURL,
		ConnectTimeout:       5 * time.Second,
		WriteTimeout:         5 * time.Second,
		MaxReconnectAttempts: 5,
		Backoff: BackoffConfig{
			InitialDelay: 5 * time.Second,
			Multiplier:   1.0,
			MaxDelay:     5 * time.Second,
		},
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.URL == "" {
		c.URL = def.URL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = def.Backoff
	}
	return c
}
