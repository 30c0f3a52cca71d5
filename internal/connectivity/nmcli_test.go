package connectivity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeRun(output string, err error) func(string, ...string) ([]byte, error) {
	return func(string, ...string) ([]byte, error) {
		return []byte(output), err
	}
}

func TestNMCLIConnectedParsesDeviceStates(t *testing.T) {
	n := NewNMCLI("HomeWifi", zap.NewNop().Sugar())

	n.run = fakeRun("HomeWifi:connected\nlo:unmanaged\n", nil)
	ok, err := n.Connected()
	require.NoError(t, err)
	require.True(t, ok)

	n.run = fakeRun("HomeWifi:disconnected\nlo:unmanaged\n", nil)
	ok, err = n.Connected()
	require.NoError(t, err)
	require.False(t, ok)

	n.run = fakeRun("OtherWifi:connected\n", nil)
	ok, err = n.Connected()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDetectWifiConnectionFindsWirelessDevice(t *testing.T) {
	out := "Wired 1:eth0:802-3-ethernet\nHomeWifi:wlan0:802-11-wireless\n"
	name, err := detectWifiConnection(fakeRun(out, nil), zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Equal(t, "HomeWifi", name)
}

func TestDetectWifiConnectionNoneFound(t *testing.T) {
	out := "Wired 1:eth0:802-3-ethernet\n"
	_, err := detectWifiConnection(fakeRun(out, nil), zap.NewNop().Sugar())
	require.Error(t, err)
}
