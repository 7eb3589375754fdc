package airq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

const formContentType = "application/x-www-form-urlencoded"

// LEDTheme holds the themes of the left and right LED strips.
type LEDTheme struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Restart asks the device to restart once pending setting changes have
// been applied.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.postCommand(ctx, "restart", map[string]any{"reset": true})
	return err
}

// Shutdown asks the device to power down.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.postCommand(ctx, "shutdown", map[string]any{"shutdown": true})
	return err
}

// SetIfconfigStatic configures a static IPv4 setup. The device only
// supports IPv4. Call Restart to apply the settings.
func (c *Client) SetIfconfigStatic(ctx context.Context, ip, subnet, gateway, dns string) error {
	for _, field := range []struct{ name, value string }{
		{"IP", ip},
		{"subnet", subnet},
		{"gateway", gateway},
		{"DNS server", dns},
	} {
		if !isValidIPv4(field.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidIPAddress, field.name, field.value)
		}
	}

	_, err := c.postCommand(ctx, "set ifconfig", map[string]any{
		"ifconfig": map[string]string{
			"ip":      ip,
			"subnet":  subnet,
			"gateway": gateway,
			"dns":     dns,
		},
	})
	return err
}

// SetIfconfigDHCP removes a static setup so the device uses DHCP again.
// Call Restart to apply the settings.
func (c *Client) SetIfconfigDHCP(ctx context.Context) error {
	_, err := c.postCommand(ctx, "set ifconfig dhcp", map[string]any{"DeleteKey": "ifconfig"})
	return err
}

func (c *Client) SetTimeServer(ctx context.Context, server string) error {
	_, err := c.postCommand(ctx, "set time server", map[string]any{"TimeServer": server})
	return err
}

func (c *Client) SetDeviceName(ctx context.Context, name string) error {
	_, err := c.postCommand(ctx, "set device name", map[string]any{"devicename": name})
	return err
}

func (c *Client) SetCloudRemote(ctx context.Context, enabled bool) error {
	_, err := c.postCommand(ctx, "set cloud remote", map[string]any{"cloudRemote": enabled})
	return err
}

// SetLEDThemeBoth sets both LED strips at once.
func (c *Client) SetLEDThemeBoth(ctx context.Context, left, right string) error {
	_, err := c.postCommand(ctx, "set led theme", map[string]any{
		"ledTheme": LEDTheme{Left: left, Right: right},
	})
	return err
}

// SetLEDThemeLeft changes the left strip and keeps the right one.
func (c *Client) SetLEDThemeLeft(ctx context.Context, theme string) error {
	current, err := c.LEDTheme(ctx)
	if err != nil {
		return err
	}
	return c.SetLEDThemeBoth(ctx, theme, current.Right)
}

// SetLEDThemeRight changes the right strip and keeps the left one.
func (c *Client) SetLEDThemeRight(ctx context.Context, theme string) error {
	current, err := c.LEDTheme(ctx)
	if err != nil {
		return err
	}
	return c.SetLEDThemeBoth(ctx, current.Left, theme)
}

// postCommand encrypts payload, posts it to /config and returns the
// decrypted status message. The firmware rejects single-sided ledTheme
// writes, hence the read-modify-write helpers above.
func (c *Client) postCommand(ctx context.Context, op string, payload any) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}
	encoded, err := c.cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// The firmware reads the base64 value verbatim, so it is not URL-escaped.
	body := strings.NewReader("request=" + encoded)
	respBody, err := c.roundTrip(ctx, op, http.MethodPost, "/"+RouteConfig, formContentType, body)
	if err != nil {
		return "", err
	}

	decoded, err := c.decodeEnvelope(op, respBody)
	if err != nil {
		return "", err
	}

	message, _ := decoded.(string)
	message = strings.TrimSpace(message)
	if strings.HasPrefix(message, "Error") {
		return "", &CommandError{Op: op, Message: message}
	}

	if c.logger != nil {
		c.logger.Debug("command accepted", "op", op, "message", message)
	}
	return message, nil
}

func isValidIPv4(address string) bool {
	addr, err := netip.ParseAddr(address)
	return err == nil && addr.Is4()
}
