package airq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// maxBodySize bounds how much of a response is read. Real payloads are a
// few kilobytes.
const maxBodySize = 1 << 20

// Routes that return an encrypted envelope and may be passed to Get.
const (
	RouteConfig  = "config"
	RouteLog     = "log"
	RouteData    = "data"
	RouteAverage = "average"
	RoutePing    = "ping"
)

var supportedRoutes = []string{RouteConfig, RouteLog, RouteData, RouteAverage, RoutePing}

// Response is a decrypted JSON object returned by the device.
type Response map[string]any

// envelope is the plain JSON wrapper around every encrypted payload.
type envelope struct {
	Content *string `json:"content"`
}

// Client talks to a single air-Q device.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	address    string
	baseURL    string
	cipher     *Cipher
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a client for the device at address (an IP address or
// an mDNS hostname such as "a123f_air-q.local"). No request is made; use
// Validate to check the password.
// Options can be provided to configure the client behavior.
func NewClient(address, password string, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("device address is required")
	}

	host := address
	if cfg.port != 80 {
		host = net.JoinHostPort(address, strconv.Itoa(cfg.port))
	}
	baseURL := "http://" + host
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid device address %q: %w", address, err)
	}

	aesCipher, err := NewCipher(password)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		address:    address,
		baseURL:    baseURL,
		cipher:     aesCipher,
		httpClient: httpClient,
		timeout:    cfg.timeout,
		logger:     cfg.logger,
	}, nil
}

// Address returns the device address the client was created with.
func (c *Client) Address() string {
	return c.address
}

func (c *Client) String() string {
	return fmt.Sprintf("airq.Client(%s)", c.address)
}

// FetchConfig returns the device configuration: available sensors,
// device metadata and user settings.
func (c *Client) FetchConfig(ctx context.Context) (Response, error) {
	return c.getObject(ctx, "fetch config", "/"+RouteConfig)
}

// FetchCurrentData returns the latest sensor readings. Readings with an
// uncertainty estimate are reported as [value, uncertainty].
func (c *Client) FetchCurrentData(ctx context.Context) (Response, error) {
	return c.getObject(ctx, "fetch data", "/"+RouteData)
}

// FetchAverageData returns the readings averaged by the firmware. The
// shape matches FetchCurrentData.
func (c *Client) FetchAverageData(ctx context.Context) (Response, error) {
	return c.getObject(ctx, "fetch average", "/"+RouteAverage)
}

// FetchLog returns the device log lines.
func (c *Client) FetchLog(ctx context.Context) ([]string, error) {
	const op = "fetch log"
	decoded, err := c.getDecoded(ctx, op, "/"+RouteLog)
	if err != nil {
		return nil, err
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("expected JSON array, got %T", decoded)}
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			lines = append(lines, s)
			continue
		}
		lines = append(lines, fmt.Sprint(item))
	}
	return lines, nil
}

// Get returns the decrypted payload of one of the encrypted routes
// (config, log, data, average, ping). Prefer the specialised methods.
func (c *Client) Get(ctx context.Context, route string) (any, error) {
	route = strings.TrimPrefix(route, "/")
	if !slices.Contains(supportedRoutes, route) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedRoute, route, strings.Join(supportedRoutes, ", "))
	}
	return c.getDecoded(ctx, "get "+route, "/"+route)
}

// Ping queries the ping route and returns its decrypted payload.
func (c *Client) Ping(ctx context.Context) (any, error) {
	return c.getDecoded(ctx, "ping", "/"+RoutePing)
}

// Validate checks that the device is reachable and that the password is
// correct. A wrong password yields *AuthenticationError.
func (c *Client) Validate(ctx context.Context) error {
	_, err := c.Ping(ctx)
	return err
}

// Blink makes the device LEDs blink for a short while and returns the
// device ID. Useful to identify one device among several.
func (c *Client) Blink(ctx context.Context) (string, error) {
	const op = "blink"
	body, err := c.roundTrip(ctx, op, http.MethodGet, "/blink", "", nil)
	if err != nil {
		return "", err
	}
	var reply struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", &ProtocolError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if reply.ID == nil {
		return "", &ProtocolError{Op: op, Err: fmt.Errorf("%w: id", ErrMissingKey)}
	}
	return *reply.ID, nil
}

func (c *Client) getObject(ctx context.Context, op, path string) (Response, error) {
	decoded, err := c.getDecoded(ctx, op, path)
	if err != nil {
		return nil, err
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("expected JSON object, got %T", decoded)}
	}
	return Response(obj), nil
}

func (c *Client) getDecoded(ctx context.Context, op, path string) (any, error) {
	body, err := c.roundTrip(ctx, op, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(op, body)
}

// decodeEnvelope unwraps {"content": ...}, decrypts it and parses the
// plaintext as JSON.
func (c *Client) decodeEnvelope(op string, body []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if env.Content == nil {
		return nil, &ProtocolError{Op: op, Err: ErrMissingContent}
	}

	plaintext, err := c.cipher.Decrypt(*env.Content)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed to decrypt payload", "op", op, "error", err)
		}
		return nil, classify(op, err)
	}

	var decoded any
	if err := json.Unmarshal(plaintext, &decoded); err != nil {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return decoded, nil
}

// roundTrip performs a single request and returns the body of a 2xx
// response.
func (c *Client) roundTrip(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	// Apply request timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.logger != nil {
		c.logger.Debug("request sent", "op", op, "method", method, "url", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("request failed", "op", op, "url", endpoint, "error", err)
		}
		return nil, &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if c.logger != nil {
		c.logger.Debug("response received", "op", op, "status", resp.StatusCode, "bytes", len(payload))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(payload)))}
	}

	return payload, nil
}
