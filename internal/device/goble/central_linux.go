//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

const mtuExchangeSupported = true

// linux.NewDevice brings the adapter down and binds HCI_CHANNEL_USER, so
// BlueZ sees it powered off and then removed while a central is open.
const exclusiveAdapter = true

func newPlatformDevice() (ble.Device, error) {
	dev, err := linux.NewDevice(ble.OptDeviceID(int(adapterID.Load())))
	if err != nil {
		return nil, err
	}
	return dev, nil
}
