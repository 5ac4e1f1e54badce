// Package telemetry defines the sample format published by the device and
// the command vocabulary it understands. The JSON field names are the
// device firmware's, not ours — do not rename them.
package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// SensorKey identifies one numeric reading in a sample. The keys double as
// the threshold map keys in settings.
type SensorKey string

const (
	SensorLux      SensorKey = "lux"
	SensorSoil     SensorKey = "soil"
	SensorAir      SensorKey = "air"
	SensorTemp     SensorKey = "temp"
	SensorPressure SensorKey = "pressure"
	SensorRSSI     SensorKey = "rssi"
)

// DeviceKey identifies one controllable actuator on the device.
type DeviceKey string

const (
	DeviceLight      DeviceKey = "led"
	DeviceHumidifier DeviceKey = "hum"
	DeviceFan        DeviceKey = "fan"
)

// Sample is one telemetry message from the device. Numeric fields are
// pointers because the firmware omits readings from sensors that failed to
// initialize; a nil field means "not reported", not zero.
type Sample struct {
	Lux          *float64 `json:"luminosite,omitempty"`
	SoilMoisture *float64 `json:"humidite_sol,omitempty"`
	AirHumidity  *float64 `json:"humidite_air,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Pressure     *float64 `json:"pressure,omitempty"`
	RSSI         *float64 `json:"rssi,omitempty"`

	WaterFull    *bool `json:"water_full,omitempty"`
	LightOn      *bool `json:"led_on,omitempty"`
	FanOn        *bool `json:"fan_on,omitempty"`
	HumidifierOn *bool `json:"humidifier_on,omitempty"`

	// Timestamp is stamped by the bridge on admission, not by the device.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Decode parses a raw broker payload. It fails on non-JSON input, on
// mistyped fields, and on payloads carrying no numeric reading at all.
// Such messages never reach the throttle or the automation engine.
func Decode(payload []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return Sample{}, fmt.Errorf("decode telemetry: %w", err)
	}
	if !s.hasReading() {
		return Sample{}, fmt.Errorf("decode telemetry: no numeric reading in payload")
	}
	return s, nil
}

func (s Sample) hasReading() bool {
	for _, v := range []*float64{s.Lux, s.SoilMoisture, s.AirHumidity, s.Temperature, s.Pressure, s.RSSI} {
		if v != nil {
			return true
		}
	}
	return false
}

// Value returns the reading for the given sensor key. ok is false when the
// sample does not carry that sensor or the value is not finite.
func (s Sample) Value(key SensorKey) (float64, bool) {
	var v *float64
	switch key {
	case SensorLux:
		v = s.Lux
	case SensorSoil:
		v = s.SoilMoisture
	case SensorAir:
		v = s.AirHumidity
	case SensorTemp:
		v = s.Temperature
	case SensorPressure:
		v = s.Pressure
	case SensorRSSI:
		v = s.RSSI
	}
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// Echo returns the actuator on/off state the device reported for the given
// device key. ok is false when the sample carries no echo for it.
func (s Sample) Echo(device DeviceKey) (on, ok bool) {
	var v *bool
	switch device {
	case DeviceLight:
		v = s.LightOn
	case DeviceFan:
		v = s.FanOn
	case DeviceHumidifier:
		v = s.HumidifierOn
	}
	if v == nil {
		return false, false
	}
	return *v, true
}
