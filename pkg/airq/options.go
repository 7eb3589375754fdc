package airq

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	port       int
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		port:       80,
		timeout:    15 * time.Second,
		httpClient: nil,
		logger:     nil,
	}
}

// WithPort sets the TCP port of the device's HTTP API.
// Default is 80.
func WithPort(port int) ClientOption {
	return func(c *clientConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		c.port = port
		return nil
	}
}

// WithTimeout sets the timeout applied to a request whose context has
// no deadline. Hitting it usually means the device and the host are not
// on the same network.
// Default is 15 seconds.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client used to talk to the device.
// The caller keeps ownership of it.
// By default, http.DefaultClient is used.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}
