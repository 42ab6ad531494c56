package goble

import "github.com/go-ble/ble"

var propertyNames = []struct {
	value ble.Property
	name  string
}{
	{ble.CharBroadcast, "Broadcast"},
	{ble.CharRead, "Read"},
	{ble.CharWriteNR, "WriteWithoutResponse"},
	{ble.CharWrite, "Write"},
	{ble.CharNotify, "Notify"},
	{ble.CharIndicate, "Indicate"},
	{ble.CharSignedWrite, "AuthenticatedSignedWrites"},
	{ble.CharExtended, "ExtendedProperties"},
}

// PropertyNames lists the names of the flags set in p, in bit order.
func PropertyNames(p ble.Property) []string {
	names := make([]string, 0, len(propertyNames))
	for _, pn := range propertyNames {
		if p&pn.value != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}
