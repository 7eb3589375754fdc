package airq

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeviceInfo is a condensed description of a device.
type DeviceInfo struct {
	ID            string  `json:"id"`
	Name          *string `json:"name,omitempty"`
	Model         *string `json:"model,omitempty"`
	SuggestedArea *string `json:"suggested_area,omitempty"`
	SWVersion     *string `json:"sw_version,omitempty"`
	HWVersion     *string `json:"hw_version,omitempty"`
}

// FetchDeviceInfo reads the configuration and condenses it. The device ID
// is the only required field.
func (c *Client) FetchDeviceInfo(ctx context.Context) (DeviceInfo, error) {
	const op = "fetch device info"
	config, err := c.FetchConfig(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}

	id, ok := config["id"].(string)
	if !ok {
		return DeviceInfo{}, &ProtocolError{Op: op, Err: fmt.Errorf("%w: id", ErrMissingKey)}
	}

	info := DeviceInfo{
		ID:        id,
		Name:      stringField(config, "devicename"),
		Model:     stringField(config, "type"),
		SWVersion: stringField(config, "air-Q-Software-Version"),
		HWVersion: stringField(config, "air-Q-Hardware-Version"),
	}
	if room := stringField(config, "RoomType"); room != nil && *room != "" {
		area := cases.Title(language.Und).String(strings.ReplaceAll(*room, "-", " "))
		info.SuggestedArea = &area
	}
	return info, nil
}

func (c *Client) TimeServer(ctx context.Context) (string, error) {
	return configString(ctx, c, "TimeServer")
}

func (c *Client) DeviceName(ctx context.Context) (string, error) {
	return configString(ctx, c, "devicename")
}

func (c *Client) CloudRemote(ctx context.Context) (bool, error) {
	value, err := c.configValue(ctx, "cloudRemote")
	if err != nil {
		return false, err
	}
	enabled, ok := value.(bool)
	if !ok {
		return false, &ProtocolError{Op: "read cloudRemote", Err: fmt.Errorf("expected bool, got %T", value)}
	}
	return enabled, nil
}

// PossibleLEDThemes lists the LED themes the firmware accepts.
func (c *Client) PossibleLEDThemes(ctx context.Context) ([]string, error) {
	value, err := c.configValue(ctx, "possibleLedTheme")
	if err != nil {
		return nil, err
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &ProtocolError{Op: "read possibleLedTheme", Err: fmt.Errorf("expected array, got %T", value)}
	}
	themes := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			themes = append(themes, s)
		}
	}
	return themes, nil
}

// LEDTheme returns the current theme of both LED strips.
func (c *Client) LEDTheme(ctx context.Context) (LEDTheme, error) {
	const op = "read ledTheme"
	value, err := c.configValue(ctx, "ledTheme")
	if err != nil {
		return LEDTheme{}, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return LEDTheme{}, &ProtocolError{Op: op, Err: fmt.Errorf("expected object, got %T", value)}
	}
	left, lok := obj["left"].(string)
	right, rok := obj["right"].(string)
	if !lok || !rok {
		return LEDTheme{}, &ProtocolError{Op: op, Err: fmt.Errorf("%w: ledTheme.left/right", ErrMissingKey)}
	}
	return LEDTheme{Left: left, Right: right}, nil
}

func (c *Client) configValue(ctx context.Context, key string) (any, error) {
	config, err := c.FetchConfig(ctx)
	if err != nil {
		return nil, err
	}
	value, ok := config[key]
	if !ok {
		return nil, &ProtocolError{Op: "read " + key, Err: fmt.Errorf("%w: %s", ErrMissingKey, key)}
	}
	return value, nil
}

func configString(ctx context.Context, c *Client, key string) (string, error) {
	value, err := c.configValue(ctx, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", &ProtocolError{Op: "read " + key, Err: fmt.Errorf("expected string, got %T", value)}
	}
	return s, nil
}

func stringField(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}
