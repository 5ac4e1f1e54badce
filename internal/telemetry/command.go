package telemetry

import (
	"fmt"
	"strings"
)

// command token prefixes used on the wire, per device.
var commandPrefix = map[DeviceKey]string{
	DeviceLight:      "LED",
	DeviceHumidifier: "HUM",
	DeviceFan:        "FAN",
}

// Command builds the wire token for switching a device, e.g. "LED_ON".
func Command(device DeviceKey, on bool) string {
	suffix := "_OFF"
	if on {
		suffix = "_ON"
	}
	return commandPrefix[device] + suffix
}

// ParseCommand maps a wire token back to a device and desired state.
func ParseCommand(token string) (DeviceKey, bool, error) {
	prefix, suffix, found := strings.Cut(token, "_")
	if !found || (suffix != "ON" && suffix != "OFF") {
		return "", false, fmt.Errorf("unknown command %q", token)
	}
	for device, p := range commandPrefix {
		if p == prefix {
			return device, suffix == "ON", nil
		}
	}
	return "", false, fmt.Errorf("unknown command %q", token)
}
