// Package broker owns the connection to the MQTT broker: it subscribes to
// the device's telemetry topic, validates inbound payloads at the
// boundary, and exposes publishing with explicit link-down failures.
package broker

import (
	"errors"

	"github.com/sweeney/plant-bridge/internal/telemetry"
)

// Default topics for the device conversation.
const (
	DefaultTelemetryTopic = "tp/esp32/telemetry"
	DefaultCommandTopic   = "tp/esp32/cmd"
	DefaultStatusTopic    = "tp/esp32/bridge"
)

// ErrLinkDown reports a publish attempted while the broker connection is
// down. Callers surface it to the user; nothing is queued or retried.
var ErrLinkDown = errors.New("broker link down")

// Publisher publishes payloads to the broker.
type Publisher interface {
	// Publish sends a payload. Fails with ErrLinkDown when disconnected.
	Publish(topic string, payload []byte) error
}

// Link is the full broker connection contract.
type Link interface {
	Publisher

	// Connected reports current broker connectivity.
	Connected() bool

	// Close disconnects from the broker.
	Close() error
}

// SampleHandler receives each validated telemetry sample, on the broker
// client's delivery goroutine.
type SampleHandler func(telemetry.Sample)

// StatusHandler receives connectivity transitions: false immediately on
// loss, true only after reconnect and re-subscription complete.
type StatusHandler func(connected bool)
