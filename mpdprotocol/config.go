package mpdprotocol

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds connection defaults. Defaults can be loaded via envdecode.
type Config struct {
	// Host name, IP address or unix socket path. ENV: MPD_HOST
	// The "password@host" form sets Password as well.
	Host string `env:"MPD_HOST,default=localhost"`
	// Port for TCP connections. ENV: MPD_PORT
	Port int `env:"MPD_PORT,default=6600,strict"`
	// Password sent right after connecting. ENV: MPD_PASSWORD
	Password string `env:"MPD_PASSWORD"`
	// Timeout per command. ENV: MPD_TIMEOUT
	Timeout time.Duration `env:"MPD_TIMEOUT,default=30s,strict"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{Host: DefaultHost, Port: DefaultPort, Timeout: CommandTimeout}
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("load config from environment: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize splits a "password@host" host and fills empty fields with the
// built-in defaults. A leading '@' alone names an abstract socket.
func (c *Config) normalize() {
	if i := strings.IndexByte(c.Host, '@'); i > 0 {
		if c.Password == "" {
			c.Password = c.Host[:i]
		}
		c.Host = c.Host[i+1:]
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.Timeout <= 0 {
		c.Timeout = CommandTimeout
	}
}

// Address returns the dial address for the configured endpoint.
func (c Config) Address() string {
	return Address(c.Host, c.Port)
}

// NewClientFromConfig creates a client whose ConnectDefault uses cfg.
func NewClientFromConfig(cfg Config, opts ...Option) *Client {
	cfg.normalize()
	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	c := NewClient(opts...)
	c.ApplyConfig(cfg)
	return c
}

// ApplyConfig replaces the address and password used by ConnectDefault. The
// timeout is fixed when the client is created and is not changed. An open
// connection keeps the settings it was made with.
func (c *Client) ApplyConfig(cfg Config) {
	cfg.normalize()
	c.SetDefaultAddress(cfg.Host, cfg.Port)
	c.SetDefaultPassword(cfg.Password)
}
