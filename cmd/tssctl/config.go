package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tssctl/internal/config"
)

type fileConfig struct {
	URL                  string   `toml:"url"`
	Source               string   `toml:"source"`
	Transport            string   `toml:"transport"`
	TickInterval         string   `toml:"tick_interval"`
	TickIntervalMS       int64    `toml:"tick_interval_ms"`
	ConnectTimeout       string   `toml:"connect_timeout"`
	WriteTimeout         string   `toml:"write_timeout"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`
	ReconnectDelay       string   `toml:"reconnect_delay"`
	ReconnectMultiplier  float64  `toml:"reconnect_multiplier"`
	ReconnectMaxDelay    string   `toml:"reconnect_max_delay"`
	AdminAddr            string   `toml:"admin_addr"`
	AdminToken           string   `toml:"admin_token"`
	CorsOrigins          []string `toml:"cors_origins"`
	LogLevel             string   `toml:"log_level"`
	TLS                  struct {
		CAFile             string `toml:"ca_file"`
		CertFile           string `toml:"cert_file"`
		KeyFile            string `toml:"key_file"`
		ServerName         string `toml:"server_name"`
		InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	} `toml:"tls"`
}

// loadRunConfig resolves the runtime config. An empty path yields defaults;
// yaml files go through the shared loader, toml keys overlay the defaults
// one by one. A non-empty source replaces the file's source before
// validation.
func loadRunConfig(path, source string) (config.Runtime, error) {
	cfg, err := loadTSSConfig(strings.TrimSpace(path))
	if err != nil {
		return config.Runtime{}, err
	}
	if source = strings.TrimSpace(source); source != "" {
		cfg.Source = source
	}
	return cfg.Runtime()
}

func loadTSSConfig(path string) (config.TSSConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.Load(path)
	}

	cfg := config.Default()
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.TSSConfig{}, fmt.Errorf("load tssctl config: %w", err)
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("source") {
		cfg.Source = raw.Source
	}
	if meta.IsDefined("transport") {
		cfg.Transport = raw.Transport
	}
	if meta.IsDefined("tick_interval") {
		cfg.TickInterval = raw.TickInterval
	}
	if meta.IsDefined("tick_interval_ms") {
		cfg.TickInterval = fmt.Sprintf("%dms", raw.TickIntervalMS)
	}
	if meta.IsDefined("connect_timeout") {
		cfg.ConnectTimeout = raw.ConnectTimeout
	}
	if meta.IsDefined("write_timeout") {
		cfg.WriteTimeout = raw.WriteTimeout
	}
	if meta.IsDefined("max_reconnect_attempts") {
		cfg.MaxReconnectAttempts = raw.MaxReconnectAttempts
	}
	if meta.IsDefined("reconnect_delay") {
		cfg.ReconnectDelay = raw.ReconnectDelay
	}
	if meta.IsDefined("reconnect_multiplier") {
		cfg.ReconnectMultiplier = raw.ReconnectMultiplier
	}
	if meta.IsDefined("reconnect_max_delay") {
		cfg.ReconnectMaxDelay = raw.ReconnectMaxDelay
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = raw.AdminAddr
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = raw.AdminToken
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("tls", "ca_file") {
		cfg.TLS.CAFile = raw.TLS.CAFile
	}
	if meta.IsDefined("tls", "cert_file") {
		cfg.TLS.CertFile = raw.TLS.CertFile
	}
	if meta.IsDefined("tls", "key_file") {
		cfg.TLS.KeyFile = raw.TLS.KeyFile
	}
	if meta.IsDefined("tls", "server_name") {
		cfg.TLS.ServerName = raw.TLS.ServerName
	}
	if meta.IsDefined("tls", "insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.TLS.InsecureSkipVerify
	}
	return cfg, nil
}
