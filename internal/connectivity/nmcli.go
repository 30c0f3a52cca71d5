package connectivity

import (
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// NMCLI probes and reconnects the machine's wifi through NetworkManager's
// nmcli. The connection name is resolved once at startup; the box has exactly
// one wifi uplink and it does not change while the display runs.
type NMCLI struct {
	Connection string
	Log        *zap.SugaredLogger

	// run is an exec seam for tests.
	run func(name string, args ...string) ([]byte, error)
}

// NewNMCLI builds a prober for the named NetworkManager connection.
func NewNMCLI(connection string, log *zap.SugaredLogger) *NMCLI {
	return &NMCLI{Connection: connection, Log: log, run: runCommand}
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// DetectWifiConnection asks nmcli for the active wireless connection name.
func DetectWifiConnection(log *zap.SugaredLogger) (string, error) {
	return detectWifiConnection(runCommand, log)
}

func detectWifiConnection(run func(string, ...string) ([]byte, error), log *zap.SugaredLogger) (string, error) {
	out, err := run("nmcli", "--get-values", "name,device,type", "con", "show", "--active")
	if err != nil {
		return "", errors.Wrap(err, "listing active connections")
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		name, device, devType := parts[0], parts[1], parts[2]
		if strings.HasPrefix(device, "wlan") && strings.Contains(devType, "wireless") {
			log.Infow("Detected wifi connection", "connection", name, "device", device)
			return name, nil
		}
	}
	return "", errors.New("no active wifi connection found")
}

// Connected reports whether the wifi connection is up according to nmcli.
func (n *NMCLI) Connected() (bool, error) {
	out, err := n.run("nmcli", "--get-values", "connection,state", "device")
	if err != nil {
		return false, errors.Wrap(err, "nmcli device state query failed")
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if parts[0] == n.Connection && parts[1] == "connected" {
			return true, nil
		}
	}
	return false, nil
}

// Reconnect brings the connection up again. Requires passwordless sudo for
// "nmcli connection up" on the deployment box.
func (n *NMCLI) Reconnect() error {
	if _, err := n.run("sudo", "nmcli", "connection", "up", n.Connection); err != nil {
		return errors.Wrapf(err, "bringing connection %q up", n.Connection)
	}
	n.Log.Infow("Restarted wifi connection", "connection", n.Connection)
	return nil
}
