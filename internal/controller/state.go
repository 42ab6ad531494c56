package controller

import (
	"fmt"
	"strings"

	"github.com/srg/peltctl/internal/device"
)

// Level is the last pressed percent button.
type Level string

const (
	Level25  Level = "25%"
	Level50  Level = "50%"
	Level75  Level = "75%"
	Level100 Level = "100%"
)

// Levels lists the percent buttons in screen order.
var Levels = []Level{Level25, Level50, Level75, Level100}

// ParseLevel accepts "25", "25%" and the other button values.
func ParseLevel(s string) (Level, error) {
	v := strings.TrimSuffix(strings.TrimSpace(s), "%")
	for _, l := range Levels {
		if string(l) == v+"%" {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid level %q: expected one of 25, 50, 75, 100", s)
}

// Pole is the last pressed pole button.
type Pole string

const (
	PoleUp   Pole = "POLE UP"
	PoleDown Pole = "POLE DOWN"
)

// ParsePole accepts "up", "down" or the button labels, case-insensitively.
func ParsePole(s string) (Pole, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP", string(PoleUp):
		return PoleUp, nil
	case "DOWN", string(PoleDown):
		return PoleDown, nil
	}
	return "", fmt.Errorf("invalid pole direction %q: expected up or down", s)
}

// State is a snapshot of everything the screen renders.
type State struct {
	Target     string
	TargetName string

	Adapter device.AdapterState
	// Devices are in discovery order, one entry per id.
	Devices  []device.DeviceInfo
	Scanning bool

	Connected bool
	Services  []device.Service
	MTU       int

	Loading        bool
	LoadingMessage string

	DeviceListVisible bool

	Level   Level
	Pole    Pole
	OffUsed bool
}

// IsTarget reports whether id is the configured target.
func (s State) IsTarget(id string) bool {
	return device.SameAddress(id, s.Target)
}
