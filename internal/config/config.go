// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/webview-bridge/pkg/transport"
)

const logPrefix = "config:LoadConfig"

// Config holds webview-bridge configuration.
type Config struct {
	// COMMS: connect to NATS at COMMSURL, or run an in-process server when COMMSEmbedded is set.
	COMMSURL      string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName     string `envconfig:"SERVICE_NAME" default:"webview-bridge"`
	COMMSEmbedded bool   `envconfig:"COMMS_EMBEDDED" default:"false"`

	// Bridge transport: push, signal or pull.
	Transport     string `envconfig:"BRIDGE_TRANSPORT" default:"push"`
	PushSubject   string `envconfig:"BRIDGE_PUSH_SUBJECT"`
	SignalSubject string `envconfig:"BRIDGE_SIGNAL_SUBJECT"`
	HostSubject   string `envconfig:"BRIDGE_HOST_SUBJECT"`

	// Bridge behaviour
	DebounceWindow time.Duration `envconfig:"BRIDGE_DEBOUNCE_WINDOW" default:"10ms"`
	Strict         bool          `envconfig:"BRIDGE_STRICT" default:"false"`
	FlushTimeout   time.Duration `envconfig:"BRIDGE_FLUSH_TIMEOUT" default:"5s"`

	// Instance identity (scopes subjects and id reservations)
	Instance string `envconfig:"BRIDGE_INSTANCE" default:"default"`
	IDBlock  int64  `envconfig:"BRIDGE_ID_BLOCK" default:"1048576"`

	// Manifest
	ManifestFile string `envconfig:"BRIDGE_MANIFEST_FILE"`

	// Database (optional; enables persistent id reservations)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`

	// HTTP health endpoint (BRIDGE_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr string `envconfig:"BRIDGE_HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Mode parses the configured transport.
func (c *Config) Mode() (transport.Mode, error) {
	return transport.ParseMode(c.Transport)
}

// ValidateForServe checks required config when running the bridge server.
func (c *Config) ValidateForServe() error {
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("%s - BRIDGE_TRANSPORT: %w", logPrefix, err)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("%s - BRIDGE_DEBOUNCE_WINDOW must be positive", logPrefix)
	}
	if c.FlushTimeout <= 0 {
		return fmt.Errorf("%s - BRIDGE_FLUSH_TIMEOUT must be positive", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.Instance == "" {
		return fmt.Errorf("%s - BRIDGE_INSTANCE is required", logPrefix)
	}
	if c.DatabaseURL != "" && c.IDBlock <= 0 {
		return fmt.Errorf("%s - BRIDGE_ID_BLOCK must be positive", logPrefix)
	}
	if !c.COMMSEmbedded && c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required unless COMMS_EMBEDDED is set", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
