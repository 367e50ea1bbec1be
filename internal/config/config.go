package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/tssctl/internal/protocol/session"
	"github.com/danmuck/tssctl/internal/transport"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Source selects who writes the shared state.
type Source string

const (
	SourceTSS       Source = "tss"
	SourceSimulator Source = "simulator"
)

// TSSConfig is the on-disk shape of a tssctl config file. Durations are Go
// duration strings ("100ms", "5s").
type TSSConfig struct {
	URL                  string    `toml:"url" yaml:"url"`
	Source               string    `toml:"source" yaml:"source"`
	Transport            string    `toml:"transport" yaml:"transport"`
	TickInterval         string    `toml:"tick_interval" yaml:"tick_interval"`
	ConnectTimeout       string    `toml:"connect_timeout" yaml:"connect_timeout"`
	WriteTimeout         string    `toml:"write_timeout" yaml:"write_timeout"`
	MaxReconnectAttempts int       `toml:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	ReconnectDelay       string    `toml:"reconnect_delay" yaml:"reconnect_delay"`
	ReconnectMultiplier  float64   `toml:"reconnect_multiplier" yaml:"reconnect_multiplier"`
	ReconnectMaxDelay    string    `toml:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	AdminAddr            string    `toml:"admin_addr" yaml:"admin_addr"`
	AdminToken           string    `toml:"admin_token" yaml:"admin_token"`
	CorsOrigins          []string  `toml:"cors_origins" yaml:"cors_origins"`
	LogLevel             string    `toml:"log_level" yaml:"log_level"`
	TLS                  TLSConfig `toml:"tls" yaml:"tls"`
}

type TLSConfig struct {
	CAFile             string `toml:"ca_file" yaml:"ca_file"`
	CertFile           string `toml:"cert_file" yaml:"cert_file"`
	KeyFile            string `toml:"key_file" yaml:"key_file"`
	ServerName         string `toml:"server_name" yaml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Runtime is a validated TSSConfig with parsed values.
type Runtime struct {
	Source       Source
	Transport    transport.Kind
	TickInterval time.Duration
	AdminAddr    string
	AdminToken   string
	CorsOrigins  []string
	LogLevel     string
	Session      session.Config
}

func Default() TSSConfig {
	return TSSConfig{
		URL:                  session.DefaultURL,
		Source:               string(SourceTSS),
		Transport:            string(transport.KindWebSocket),
		TickInterval:         "100ms",
		ConnectTimeout:       "5s",
		WriteTimeout:         "5s",
		MaxReconnectAttempts: 5,
		ReconnectDelay:       "5s",
		ReconnectMultiplier:  1.0,
		ReconnectMaxDelay:    "5s",
		AdminAddr:            "127.0.0.1:9400",
		CorsOrigins:          []string{"http://localhost:3000"},
		LogLevel:             "info",
	}
}

// Load reads path over Default and validates the result. Files ending in
// .yaml or .yml are YAML; everything else is TOML.
func Load(path string) (TSSConfig, error) {
	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		return TSSConfig{}, err
	}
	if err := Validate(cfg); err != nil {
		return TSSConfig{}, err
	}
	return cfg, nil
}

func loadFile(path string, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYaml(path, out)
	default:
		return loadToml(path, out)
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func loadYaml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg TSSConfig) error {
	_, err := cfg.Runtime()
	return err
}

// Runtime parses and checks every field.
func (c TSSConfig) Runtime() (Runtime, error) {
	rt := Runtime{
		AdminAddr:   strings.TrimSpace(c.AdminAddr),
		AdminToken:  strings.TrimSpace(c.AdminToken),
		CorsOrigins: normalizeOrigins(c.CorsOrigins),
		LogLevel:    strings.TrimSpace(c.LogLevel),
	}

	switch Source(strings.ToLower(strings.TrimSpace(c.Source))) {
	case SourceTSS, "":
		rt.Source = SourceTSS
	case SourceSimulator:
		rt.Source = SourceSimulator
	default:
		return Runtime{}, fmt.Errorf("%w: source %q (want tss|simulator)", ErrInvalidConfig, c.Source)
	}

	switch transport.Kind(strings.ToLower(strings.TrimSpace(c.Transport))) {
	case transport.KindWebSocket, "":
		rt.Transport = transport.KindWebSocket
	case transport.KindStream:
		rt.Transport = transport.KindStream
	default:
		return Runtime{}, fmt.Errorf("%w: transport %q (want websocket|stream)", ErrInvalidConfig, c.Transport)
	}

	var err error
	if rt.TickInterval, err = parseDuration("tick_interval", c.TickInterval); err != nil {
		return Runtime{}, err
	}
	if rt.TickInterval <= 0 {
		return Runtime{}, fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	}
	if rt.AdminAddr == "" {
		return Runtime{}, fmt.Errorf("%w: admin_addr is required", ErrInvalidConfig)
	}
	if c.MaxReconnectAttempts < 0 {
		return Runtime{}, fmt.Errorf("%w: max_reconnect_attempts must not be negative", ErrInvalidConfig)
	}
	if c.ReconnectMultiplier < 0 {
		return Runtime{}, fmt.Errorf("%w: reconnect_multiplier must not be negative", ErrInvalidConfig)
	}

	sc := session.Config{
		URL:                  strings.TrimSpace(c.URL),
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		Backoff:              session.BackoffConfig{Multiplier: c.ReconnectMultiplier},
		TLS: session.TLSConfig{
			CAFile:             strings.TrimSpace(c.TLS.CAFile),
			CertFile:           strings.TrimSpace(c.TLS.CertFile),
			KeyFile:            strings.TrimSpace(c.TLS.KeyFile),
			ServerName:         strings.TrimSpace(c.TLS.ServerName),
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		},
	}
	if sc.ConnectTimeout, err = parseDuration("connect_timeout", c.ConnectTimeout); err != nil {
		return Runtime{}, err
	}
	if sc.WriteTimeout, err = parseDuration("write_timeout", c.WriteTimeout); err != nil {
		return Runtime{}, err
	}
	if sc.Backoff.InitialDelay, err = parseDuration("reconnect_delay", c.ReconnectDelay); err != nil {
		return Runtime{}, err
	}
	if sc.Backoff.MaxDelay, err = parseDuration("reconnect_max_delay", c.ReconnectMaxDelay); err != nil {
		return Runtime{}, err
	}
	if sc.Backoff.InitialDelay == 0 {
		sc.Backoff.InitialDelay = session.DefaultConfig().Backoff.InitialDelay
	}
	rt.Session = sc.WithDefaults()
	if rt.Source == SourceTSS {
		if err := rt.Session.ValidateTransport(); err != nil {
			return Runtime{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return rt, nil
}

// parseDuration accepts an empty value as zero.
func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, key)
	}
	return d, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		if v := strings.TrimSpace(origin); v != "" {
			out = append(out, v)
		}
	}
	return out
}
