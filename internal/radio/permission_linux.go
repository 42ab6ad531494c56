//go:build linux

package radio

import (
	"fmt"
	"strings"

	"github.com/srg/peltctl/internal/device"
	"golang.org/x/sys/unix"
)

// capget is swapped in tests.
var capget = func() (effective uint64, err error) {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return 0, err
	}
	return uint64(data[0].Effective) | uint64(data[1].Effective)<<32, nil
}

var requiredCapabilities = []struct {
	bit  uint
	name string
}{
	{unix.CAP_NET_ADMIN, "cap_net_admin"},
	{unix.CAP_NET_RAW, "cap_net_raw"},
}

// checkCapabilities verifies the effective set allows raw HCI sockets.
func checkCapabilities() error {
	effective, err := capget()
	if err != nil {
		return fmt.Errorf("failed to read process capabilities: %w", err)
	}
	return missingCapabilities(effective)
}

func missingCapabilities(effective uint64) error {
	var missing []string
	for _, c := range requiredCapabilities {
		if effective&(1<<c.bit) == 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s (run as root or grant with: sudo setcap 'cap_net_raw,cap_net_admin+eip' <binary>)",
		device.ErrUnauthorized, strings.Join(missing, ", "))
}
