package airq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDeviceInfo(t *testing.T) {
	_, srv := newFakeDevice(t, fixturePassword)
	client := newTestClient(t, srv, fixturePassword)

	info, err := client.FetchDeviceInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0123456789abcdef0123456789abcdef", info.ID)
	require.NotNil(t, info.Name)
	assert.Equal(t, "Living Room", *info.Name)
	require.NotNil(t, info.Model)
	assert.Equal(t, "air-Q Pro", *info.Model)
	require.NotNil(t, info.SuggestedArea)
	assert.Equal(t, "Living Room", *info.SuggestedArea)
	require.NotNil(t, info.SWVersion)
	assert.Equal(t, "1.80.0", *info.SWVersion)
	require.NotNil(t, info.HWVersion)
	assert.Equal(t, "D_1.4", *info.HWVersion)
}

func TestFetchDeviceInfo_MissingID(t *testing.T) {
	device, srv := newFakeDevice(t, fixturePassword)
	device.setRoute("/config", fixtureAverage)
	client := newTestClient(t, srv, fixturePassword)

	_, err := client.FetchDeviceInfo(context.Background())

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestConfigGetters(t *testing.T) {
	_, srv := newFakeDevice(t, fixturePassword)
	client := newTestClient(t, srv, fixturePassword)
	ctx := context.Background()

	server, err := client.TimeServer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pool.ntp.org", server)

	name, err := client.DeviceName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Living Room", name)

	remote, err := client.CloudRemote(ctx)
	require.NoError(t, err)
	assert.True(t, remote)

	themes, err := client.PossibleLEDThemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"standard", "CO2", "VOC"}, themes)

	theme, err := client.LEDTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, LEDTheme{Left: "CO2", Right: "standard"}, theme)
}

func TestConfigGetters_MissingKey(t *testing.T) {
	device, srv := newFakeDevice(t, fixturePassword)
	device.setRoute("/config", fixtureAverage)
	client := newTestClient(t, srv, fixturePassword)

	_, err := client.TimeServer(context.Background())
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = client.LEDTheme(context.Background())
	assert.ErrorIs(t, err, ErrMissingKey)
}
