package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the client settings.
// Environment variables are parsed from the MEMORIES_ prefix, e.g.
// MEMORIES_API_URL, MEMORIES_REQUEST_TIMEOUT.
type Config struct {
	APIURL string `envconfig:"API_URL" default:"http://localhost:5000"`

	// HTTPTimeout bounds one HTTP exchange; RequestTimeout bounds one
	// controller action (including queue waits).
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	NotifyDismiss time.Duration `envconfig:"NOTIFY_DISMISS" default:"6s"`

	// StateDir overrides ~/.memories for the session database.
	StateDir string `envconfig:"STATE_DIR" default:""`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	// Google sign-in; empty ClientID disables it.
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" default:""`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:3000"`
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_URL: %q", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool { return c.GoogleClientID != "" }

// New creates a new Config by parsing environment variables prefixed with
// MEMORIES_.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MEMORIES", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("api_url", cfg.APIURL).
		Dur("http_timeout", cfg.HTTPTimeout).
		Dur("request_timeout", cfg.RequestTimeout).
		Dur("notify_dismiss", cfg.NotifyDismiss).
		Str("state_dir", cfg.StateDir).
		Bool("google_enabled", cfg.GoogleEnabled()).
		Msg("configuration loaded")

	return &cfg, nil
}
