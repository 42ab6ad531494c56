// Package device provides the Bluetooth Low Energy (BLE) domain model used by
// peltctl: advertisements, discovered peripherals, GATT connection contracts,
// adapter state and the errors shared by every layer above the BLE library.
//
// The concrete go-ble backed implementation lives in the goble subpackage.
package device
