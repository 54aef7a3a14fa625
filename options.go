package client

// Functional options that configure the Client during construction.

import (
	"fmt"
	"time"
)

// Option configures a Client during construction in New.
//
// Options are applied before the token transport wrapper is installed, so
// transport options (like debug logging) sit underneath it.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout. It bounds a
// single HTTP request end to end; prefer per-call context deadlines.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is logged.
// Do not enable in production: dumps include tokens and form fields.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}

// WithTokenSource supplies the bearer token for every request, typically
// (*session.Manager).Token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) error {
		c.tokens = ts
		return nil
	}
}

// WithFetchRetry sets how many times idempotent reads are attempted and the
// initial backoff between attempts.
func WithFetchRetry(attempts int, initial time.Duration) Option {
	return func(c *Client) error {
		if attempts < 1 {
			return fmt.Errorf("fetch attempts must be >= 1")
		}
		if initial <= 0 {
			return fmt.Errorf("fetch backoff must be > 0")
		}
		c.maxFetchAttempts = attempts
		c.fetchBackoff = initial
		return nil
	}
}

// WithExecutor replaces the default shard executor. The Client takes
// ownership and stops it on Close.
func WithExecutor(e executor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("executor cannot be nil")
		}
		c.exec = e
		return nil
	}
}
