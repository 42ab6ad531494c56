package device

import (
	"fmt"
	"regexp"
	"strings"
)

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID
// (0000xxxx-0000-1000-8000-00805f9b34fb) without dashes.
const sigBaseSuffix = "00001000800000805f9b34fb"

var hexUUID = regexp.MustCompile(`^[0-9a-f]+$`)

// NormalizeUUID converts a UUID string to the internal format (lowercase, no dashes).
// Strips a 0x prefix. Full 128-bit UUIDs in Bluetooth SIG base format are
// reduced to their 16-bit short form. Returns "" for malformed input.
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")

	switch len(u) {
	case 4, 8:
	case 32:
		if strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
			u = u[4:8]
		}
	default:
		return ""
	}

	if !hexUUID.MatchString(u) {
		return ""
	}
	return u
}

// NormalizeUUIDs normalizes a slice of UUID strings, dropping malformed ones.
func NormalizeUUIDs(uuids []string) []string {
	result := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if n := NormalizeUUID(u); n != "" {
			result = append(result, n)
		}
	}
	return result
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns normalized UUID strings or an error.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, uuid := range uuids {
		if uuid == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		normalized := NormalizeUUID(uuid)
		if normalized == "" {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
		}
		result = append(result, normalized)
	}
	return result, nil
}

var (
	macAddress = regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`)
	// CoreBluetooth hides hardware addresses behind per-host identifiers.
	peripheralID = regexp.MustCompile(`^[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`)
)

// NormalizeAddress upper-cases a hardware address and uses ':' separators.
// CoreBluetooth identifiers (UUIDs) pass through upper-cased.
func NormalizeAddress(addr string) string {
	a := strings.ToUpper(strings.TrimSpace(addr))
	if len(a) == 17 {
		a = strings.ReplaceAll(a, "-", ":")
	}
	return a
}

// ValidateAddress checks that addr is a six-octet hardware address or a
// CoreBluetooth peripheral identifier.
func ValidateAddress(addr string) error {
	a := NormalizeAddress(addr)
	if !macAddress.MatchString(a) && !peripheralID.MatchString(a) {
		return fmt.Errorf("invalid device address %q: expected six hex octets like 94:51:DC:58:55:6A", addr)
	}
	return nil
}

// SameAddress compares two addresses ignoring case and separator style.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}
