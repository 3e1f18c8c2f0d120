// Package http builds the outbound HTTP clients used by delivery transports.
package http

import (
	"net/http"
	"time"
)

// Defaults for outbound clients.
const (
	DefaultTimeout             = 10 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// ClientConfig configures NewClient. Zero fields take the defaults above.
type ClientConfig struct {
	// Timeout bounds a whole request. Negative disables it, leaving timeout
	// policy to the caller's context.
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
}

// NewClient returns an *http.Client with a pooled transport.
func NewClient(cfg ClientConfig) *http.Client {
	timeout := orDuration(cfg.Timeout, DefaultTimeout)
	if cfg.Timeout < 0 {
		timeout = 0
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        orInt(cfg.MaxIdleConns, DefaultMaxIdleConns),
		MaxIdleConnsPerHost: orInt(cfg.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost),
		IdleConnTimeout:     orDuration(cfg.IdleConnTimeout, DefaultIdleConnTimeout),
		TLSHandshakeTimeout: orDuration(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func orDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
