package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/stretchr/testify/suite"
)

// MockPeripheralSuite provides a reusable test suite with a mocked BLE central.
//
// The suite swaps goble.CentralFactory for the duration of each test so that
// everything using goble.SharedCentral talks to the mock.
//
// Custom device profile usage:
//
//	type ConnectSuite struct {
//	    testutils.MockPeripheralSuite
//	}
//
//	func (s *ConnectSuite) SetupTest() {
//	    s.WithPeripheral().
//	        WithService("180F").
//	        WithCharacteristic("2A19", "read,notify").
//	        WithAdvertisements(testutils.CreateMockAdvertisement("LKZ_PELT", "94:51:DC:58:55:6A", -50))
//
//	    s.MockPeripheralSuite.SetupTest() // call parent last to apply configuration
//	}
type MockPeripheralSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	// Central and Client are the mocks the current test runs against.
	Central *MockCentral
	Client  *MockClient

	PeripheralBuilder *PeripheralBuilder

	originalFactory func() (goble.Central, error)
}

// SetupSuite is called once before all tests in the suite.
func (s *MockPeripheralSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
}

// SetupTest builds the configured peripheral and installs it as the central.
func (s *MockPeripheralSuite) SetupTest() {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = createDefaultPeripheralBuilder()
	}
	s.Central, s.Client = s.PeripheralBuilder.Build()

	s.originalFactory = goble.CentralFactory
	goble.CentralFactory = func() (goble.Central, error) {
		return s.Central, nil
	}
	_ = goble.ResetCentral()

	s.Logger.Debug("Test setup completed - ready for execution")
}

// TearDownTest restores the central factory and resets the builder.
func (s *MockPeripheralSuite) TearDownTest() {
	_ = goble.ResetCentral()
	if s.originalFactory != nil {
		goble.CentralFactory = s.originalFactory
	}
	s.PeripheralBuilder = nil
	s.Central = nil
	s.Client = nil
}

// WithPeripheral returns the peripheral builder for configuration in SetupTest.
func (s *MockPeripheralSuite) WithPeripheral() *PeripheralBuilder {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewPeripheralBuilder()
	}
	return s.PeripheralBuilder
}

// createDefaultPeripheralBuilder serves a Battery Service (180F) with a Battery Level characteristic (2A19).
func createDefaultPeripheralBuilder() *PeripheralBuilder {
	return NewPeripheralBuilder().FromJSON(`
	{
		"services": [
			{
				"uuid": "180F",
				"characteristics": [
					{ "uuid": "2A19", "properties": "read,notify" }
				]
			}
		]
	}`)
}
