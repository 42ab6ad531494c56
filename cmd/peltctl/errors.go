package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/radio"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the link dropped while a command was holding it.
	// This is distinct from device.ErrNotConnected, which means there was no link to use.
	ErrConnectionLost = errors.New("connection lost")

	// ErrNotInteractive is returned by commands that need a terminal.
	ErrNotInteractive = errors.New("an interactive terminal is required")
)

// FormatUserError turns an error into a message for the terminal.
func FormatUserError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off. Turn it on with 'peltctl power on' and try again."
	case errors.Is(err, device.ErrUnauthorized):
		return "Bluetooth access is not authorized. On Linux run with CAP_NET_ADMIN and CAP_NET_RAW, on macOS allow Bluetooth for your terminal."
	case errors.Is(err, device.ErrAccessDenied):
		return fmt.Sprintf("Access denied: only the configured target device can be connected (%v).", err)
	case errors.Is(err, radio.ErrToggleUnsupported):
		return controller.MsgToggleUnsupported
	case errors.Is(err, ErrConnectionLost):
		return "Connection to the device was lost."
	case errors.Is(err, device.ErrNotConnected):
		return "Not connected to the device."
	case errors.Is(err, device.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The device did not respond in time. Make sure it is powered on and in range."
	case errors.Is(err, ErrNotInteractive):
		return "The ui command needs an interactive terminal."
	}
	return err.Error()
}
