package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	blelib "github.com/go-ble/ble"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/stretchr/testify/mock"
)

// MockCentral is a testify mock of goble.Central.
type MockCentral struct {
	mock.Mock
}

var _ goble.Central = (*MockCentral)(nil)

func (m *MockCentral) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	args := m.Called(ctx, allowDup, handler)
	return args.Error(0)
}

func (m *MockCentral) Dial(ctx context.Context, address string) (goble.Client, error) {
	args := m.Called(ctx, address)
	client, _ := args.Get(0).(goble.Client)
	return client, args.Error(1)
}

func (m *MockCentral) Stop() error {
	return m.Called().Error(0)
}

// MockClient is a testify mock of goble.Client that also exposes the
// Disconnected() channel both go-ble backends provide.
type MockClient struct {
	mock.Mock
	disconnected chan struct{}
	once         sync.Once
}

var _ goble.Client = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{disconnected: make(chan struct{})}
}

func (m *MockClient) DiscoverProfile(force bool) (*blelib.Profile, error) {
	args := m.Called(force)
	profile, _ := args.Get(0).(*blelib.Profile)
	return profile, args.Error(1)
}

func (m *MockClient) ExchangeMTU(rxMTU int) (int, error) {
	args := m.Called(rxMTU)
	return args.Int(0), args.Error(1)
}

func (m *MockClient) CancelConnection() error {
	args := m.Called()
	m.Drop()
	return args.Error(0)
}

func (m *MockClient) Disconnected() <-chan struct{} {
	return m.disconnected
}

// Drop simulates the peripheral going out of range.
func (m *MockClient) Drop() {
	m.once.Do(func() { close(m.disconnected) })
}

// CharacteristicConfig represents a BLE characteristic configuration for mocking
type CharacteristicConfig struct {
	UUID       string `json:"uuid"`
	Properties string `json:"properties,omitempty"` // e.g., "read,write,notify"
}

// ServiceConfig represents a BLE service configuration for mocking
type ServiceConfig struct {
	UUID            string                 `json:"uuid"`
	Characteristics []CharacteristicConfig `json:"characteristics,omitempty"`
}

// DeviceProfileConfig represents the complete device profile for mocking
type DeviceProfileConfig struct {
	Services []ServiceConfig `json:"services"`
}

// PeripheralBuilder builds a mocked central that advertises and serves one peripheral.
type PeripheralBuilder struct {
	profile     DeviceProfileConfig
	ads         []device.Advertisement
	dialErr     error
	discoverErr error
	mtu         int
}

func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{mtu: 247}
}

// WithService adds a service to the device profile
func (b *PeripheralBuilder) WithService(uuid string) *PeripheralBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralBuilder) WithCharacteristic(uuid, properties string) *PeripheralBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}
	last := &b.profile.Services[len(b.profile.Services)-1]
	last.Characteristics = append(last.Characteristics, CharacteristicConfig{UUID: uuid, Properties: properties})
	return b
}

// FromJSON replaces the device profile with the JSON one.
func (b *PeripheralBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *PeripheralBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var config DeviceProfileConfig
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		panic(fmt.Sprintf("PeripheralBuilder.FromJSON: failed to unmarshal: %v", err))
	}
	b.profile = config
	return b
}

// WithAdvertisements sets what a scan reports, in order.
func (b *PeripheralBuilder) WithAdvertisements(ads ...*AdvertisementBuilder) *PeripheralBuilder {
	for _, ad := range ads {
		b.ads = append(b.ads, ad.Build())
	}
	return b
}

func (b *PeripheralBuilder) WithDialError(err error) *PeripheralBuilder {
	b.dialErr = err
	return b
}

func (b *PeripheralBuilder) WithDiscoverError(err error) *PeripheralBuilder {
	b.discoverErr = err
	return b
}

func (b *PeripheralBuilder) WithMTU(mtu int) *PeripheralBuilder {
	b.mtu = mtu
	return b
}

// Profile returns the go-ble profile the client discovers.
func (b *PeripheralBuilder) Profile() *blelib.Profile {
	profile := &blelib.Profile{}
	for _, svcConfig := range b.profile.Services {
		svc := &blelib.Service{UUID: blelib.MustParse(svcConfig.UUID)}
		for _, charConfig := range svcConfig.Characteristics {
			svc.Characteristics = append(svc.Characteristics, &blelib.Characteristic{
				UUID:     blelib.MustParse(charConfig.UUID),
				Property: parseCharacteristicProperties(charConfig.Properties),
			})
		}
		profile.Services = append(profile.Services, svc)
	}
	return profile
}

// Build creates the mocked central and the client its Dial returns.
// Scan replays the configured advertisements and returns.
func (b *PeripheralBuilder) Build() (*MockCentral, *MockClient) {
	central := &MockCentral{}
	client := NewMockClient()

	ads := append([]device.Advertisement(nil), b.ads...)
	central.On("Scan", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(func(device.Advertisement))
			for _, adv := range ads {
				handler(adv)
			}
		}).
		Return(nil).Maybe()

	if b.dialErr != nil {
		central.On("Dial", mock.Anything, mock.Anything).Return(nil, b.dialErr).Maybe()
	} else {
		central.On("Dial", mock.Anything, mock.Anything).Return(client, nil).Maybe()
	}
	central.On("Stop").Return(nil).Maybe()

	if b.discoverErr != nil {
		client.On("DiscoverProfile", true).Return(nil, b.discoverErr).Maybe()
	} else {
		client.On("DiscoverProfile", true).Return(b.Profile(), nil).Maybe()
	}
	client.On("ExchangeMTU", mock.Anything).Return(b.mtu, nil).Maybe()
	client.On("CancelConnection").Return(nil).Maybe()

	return central, client
}

var propertyFlags = map[string]blelib.Property{
	"broadcast": blelib.CharBroadcast,
	"read":      blelib.CharRead,
	"writenr":   blelib.CharWriteNR,
	"write":     blelib.CharWrite,
	"notify":    blelib.CharNotify,
	"indicate":  blelib.CharIndicate,
}

// parseCharacteristicProperties converts "read,notify" style lists to ble.Property flags
func parseCharacteristicProperties(props string) blelib.Property {
	if strings.TrimSpace(props) == "" {
		return blelib.CharRead | blelib.CharWrite | blelib.CharNotify
	}

	var property blelib.Property
	for _, p := range strings.Split(props, ",") {
		if flag, ok := propertyFlags[strings.ToLower(strings.TrimSpace(p))]; ok {
			property |= flag
		}
	}
	return property
}
