package goble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/peltctl/internal/device"
)

// errResetting marks an adapter that is restarting; device.StateFromError
// classifies it by its message.
var errResetting = errors.New("bluetooth adapter is resetting")

// NormalizeError maps known go-ble error strings to the device sentinels.
// Returns wrapped errors to preserve original context.
//
// CoreBluetooth reports "central manager has invalid state: have=N want=5"
// where N follows CBManagerState (1 resetting, 2 unsupported, 3 unauthorized,
// 4 powered off).
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "have=4 want=5"), containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "have=3 want=5"),
		containsIgnoreCase(msg, "operation not permitted"),
		containsIgnoreCase(msg, "permission denied"):
		return fmt.Errorf("%w: %v", device.ErrUnauthorized, err)
	case containsIgnoreCase(msg, "have=2 want=5"), containsIgnoreCase(msg, "no devices available"):
		return fmt.Errorf("%w: %v", device.ErrUnsupported, err)
	case containsIgnoreCase(msg, "have=1 want=5"):
		return fmt.Errorf("%w: %v", errResetting, err)
	case containsIgnoreCase(msg, "device not connected"), containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", device.ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", device.ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "connection is not initialized"):
		return fmt.Errorf("%w: %v", device.ErrNotInitialized, err)
	default:
		return err
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
