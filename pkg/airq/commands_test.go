package airq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands_EncryptedPayloads(t *testing.T) {
	tests := []struct {
		name     string
		run      func(*Client) error
		expected map[string]any
	}{
		{
			name:     "restart",
			run:      func(c *Client) error { return c.Restart(context.Background()) },
			expected: map[string]any{"reset": true},
		},
		{
			name:     "shutdown",
			run:      func(c *Client) error { return c.Shutdown(context.Background()) },
			expected: map[string]any{"shutdown": true},
		},
		{
			name:     "device name",
			run:      func(c *Client) error { return c.SetDeviceName(context.Background(), "Küche") },
			expected: map[string]any{"devicename": "Küche"},
		},
		{
			name:     "time server",
			run:      func(c *Client) error { return c.SetTimeServer(context.Background(), "192.168.0.1") },
			expected: map[string]any{"TimeServer": "192.168.0.1"},
		},
		{
			name:     "cloud remote",
			run:      func(c *Client) error { return c.SetCloudRemote(context.Background(), false) },
			expected: map[string]any{"cloudRemote": false},
		},
		{
			name:     "dhcp",
			run:      func(c *Client) error { return c.SetIfconfigDHCP(context.Background()) },
			expected: map[string]any{"DeleteKey": "ifconfig"},
		},
		{
			name: "static ip",
			run: func(c *Client) error {
				return c.SetIfconfigStatic(context.Background(), "192.168.0.42", "255.255.255.0", "192.168.0.1", "192.168.0.1")
			},
			expected: map[string]any{"ifconfig": map[string]any{
				"ip":      "192.168.0.42",
				"subnet":  "255.255.255.0",
				"gateway": "192.168.0.1",
				"dns":     "192.168.0.1",
			}},
		},
		{
			name: "led theme both",
			run:  func(c *Client) error { return c.SetLEDThemeBoth(context.Background(), "VOC", "CO2") },
			expected: map[string]any{"ledTheme": map[string]any{
				"left": "VOC", "right": "CO2",
			}},
		},
		{
			name: "led theme left keeps right",
			run:  func(c *Client) error { return c.SetLEDThemeLeft(context.Background(), "VOC") },
			expected: map[string]any{"ledTheme": map[string]any{
				"left": "VOC", "right": "standard",
			}},
		},
		{
			name: "led theme right keeps left",
			run:  func(c *Client) error { return c.SetLEDThemeRight(context.Background(), "VOC") },
			expected: map[string]any{"ledTheme": map[string]any{
				"left": "CO2", "right": "VOC",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, srv := newFakeDevice(t, fixturePassword)
			client := newTestClient(t, srv, fixturePassword)

			require.NoError(t, tt.run(client))

			commands := device.recorded()
			require.Len(t, commands, 1)
			assert.Equal(t, tt.expected, commands[0])
		})
	}
}

func TestCommand_Rejected(t *testing.T) {
	device, srv := newFakeDevice(t, fixturePassword)
	device.setReply(fixtureError)
	client := newTestClient(t, srv, fixturePassword)

	err := client.SetLEDThemeBoth(context.Background(), "disco", "disco")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Error: unsupported option for key 'ledTheme'", cmdErr.Message)
}

func TestCommand_ReplyMessage(t *testing.T) {
	_, srv := newFakeDevice(t, fixturePassword)
	client := newTestClient(t, srv, fixturePassword)

	message, err := client.postCommand(context.Background(), "set device name", map[string]any{"devicename": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Success: new setting saved for key 'devicename'", message)
}

func TestSetIfconfigStatic_InvalidAddress(t *testing.T) {
	device, srv := newFakeDevice(t, fixturePassword)
	client := newTestClient(t, srv, fixturePassword)

	tests := []struct {
		name                     string
		ip, subnet, gateway, dns string
	}{
		{"ipv6", "fe80::1", "255.255.255.0", "192.168.0.1", "192.168.0.1"},
		{"garbage subnet", "192.168.0.42", "mask", "192.168.0.1", "192.168.0.1"},
		{"short gateway", "192.168.0.42", "255.255.255.0", "192.168.1", "192.168.0.1"},
		{"out of range dns", "192.168.0.42", "255.255.255.0", "192.168.0.1", "192.168.0.256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.SetIfconfigStatic(context.Background(), tt.ip, tt.subnet, tt.gateway, tt.dns)
			assert.ErrorIs(t, err, ErrInvalidIPAddress)
		})
	}
	assert.Empty(t, device.recorded())
}

func TestIsValidIPv4(t *testing.T) {
	assert.True(t, isValidIPv4("192.168.0.1"))
	assert.True(t, isValidIPv4("0.0.0.0"))
	assert.False(t, isValidIPv4("::ffff:192.168.0.1"))
	assert.False(t, isValidIPv4("localhost"))
	assert.False(t, isValidIPv4(""))
}
