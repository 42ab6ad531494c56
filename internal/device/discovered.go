package device

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// txPowerUnavailable is the value go-ble reports when the advertisement
// carries no TX power level.
const txPowerUnavailable = 127

// Discovered is a peripheral seen while scanning. It implements DeviceInfo.
type Discovered struct {
	mu                 sync.RWMutex
	address            string
	name               string
	rssi               int
	txPower            *int
	connectable        bool
	lastSeen           time.Time
	advertisedServices []string
	manufData          []byte
}

var _ DeviceInfo = (*Discovered)(nil)

// NewDeviceFromAdvertisement creates a Discovered from its first advertisement.
func NewDeviceFromAdvertisement(adv Advertisement) *Discovered {
	d := &Discovered{
		address:            NormalizeAddress(adv.Addr()),
		advertisedServices: make([]string, 0),
	}
	d.connectable = adv.Connectable()
	d.apply(adv)
	return d
}

// Update refreshes device information from a new advertisement
func (d *Discovered) Update(adv Advertisement) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apply(adv)
}

func (d *Discovered) apply(adv Advertisement) {
	d.rssi = adv.RSSI()
	d.lastSeen = time.Now()

	if name := adv.LocalName(); name != "" {
		d.name = name
	} else if d.name == "" {
		if extracted := extractNameFromManufacturerData(adv.ManufacturerData()); extracted != "" {
			d.name = extracted
		}
	}

	if manufData := adv.ManufacturerData(); len(manufData) > 0 {
		d.manufData = manufData
	}

	needsSort := false
	for _, svc := range adv.Services() {
		normalized := NormalizeUUID(svc)
		if normalized == "" || d.hasServiceUUID(normalized) {
			continue
		}
		d.advertisedServices = append(d.advertisedServices, normalized)
		needsSort = true
	}
	if needsSort {
		sort.Strings(d.advertisedServices)
	}

	if tx := adv.TxPowerLevel(); tx != txPowerUnavailable {
		d.txPower = &tx
	}
}

func (d *Discovered) hasServiceUUID(uuid string) bool {
	for _, s := range d.advertisedServices {
		if s == uuid {
			return true
		}
	}
	return false
}

func (d *Discovered) ID() string { return d.Address() }

func (d *Discovered) Address() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.address
}

// Name returns the advertised name, or "" when none was seen.
func (d *Discovered) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// DisplayName returns the name shown in device lists.
func (d *Discovered) DisplayName() string {
	return DisplayName(d.Name(), d.ID())
}

func (d *Discovered) RSSI() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rssi
}

func (d *Discovered) TxPower() *int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.txPower
}

func (d *Discovered) IsConnectable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectable
}

func (d *Discovered) AdvertisedServices() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.advertisedServices...)
}

func (d *Discovered) ManufacturerData() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.manufData
}

func (d *Discovered) LastSeen() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSeen
}

// MarshalJSON renders the device for `scan --format json`.
func (d *Discovered) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.Marshal(struct {
		ID               string   `json:"id"`
		Name             string   `json:"name"`
		Address          string   `json:"address"`
		RSSI             int      `json:"rssi"`
		TxPower          *int     `json:"tx_power"`
		Connectable      bool     `json:"connectable"`
		Services         []string `json:"services"`
		ManufacturerData []byte   `json:"manufacturer_data"`
	}{
		ID:               d.address,
		Name:             DisplayName(d.name, d.address),
		Address:          d.address,
		RSSI:             d.rssi,
		TxPower:          d.txPower,
		Connectable:      d.connectable,
		Services:         d.advertisedServices,
		ManufacturerData: d.manufData,
	})
}

// DisplayName falls back to "Unnamed (<id>)" for peripherals without a name.
func DisplayName(name, id string) string {
	if name != "" {
		return name
	}
	return "Unnamed (" + id + ")"
}

// extractNameFromManufacturerData looks for a readable ASCII run of at least
// three characters; some peripherals embed their name there.
func extractNameFromManufacturerData(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	for i := 0; i < len(data)-3; i++ {
		if !isReadableASCII(data[i]) {
			continue
		}
		var nameBytes []byte
		for j := i; j < len(data) && j < i+32; j++ {
			if !isReadableASCII(data[j]) {
				break
			}
			nameBytes = append(nameBytes, data[j])
		}
		if len(nameBytes) >= 3 {
			name := strings.TrimSpace(string(nameBytes))
			if isValidDeviceName(name) {
				return name
			}
		}
	}
	return ""
}

func isReadableASCII(b byte) bool {
	return b >= 32 && b <= 126
}

// isValidDeviceName requires 3..32 characters and at least one letter
func isValidDeviceName(name string) bool {
	if len(name) < 3 || len(name) > 32 {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
