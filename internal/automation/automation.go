// Package automation decides actuator transitions from admitted telemetry
// and the current thresholds. One hysteresis machine per device: the band
// between min and max is a dead band in which no decision is made, which
// is what keeps a value hovering near one boundary from toggling the
// actuator on every sample.
package automation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/broker"
	"github.com/sweeney/plant-bridge/internal/settings"
	"github.com/sweeney/plant-bridge/internal/telemetry"
)

// State is the mirrored actuator state for one device. Unknown until the
// first telemetry echo or locally issued command.
type State int

const (
	StateUnknown State = iota
	StateOff
	StateOn
)

func stateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// Orientation says which side of the band activates the device.
type Orientation int

const (
	// ActivateWhenLow turns the device on at or below min and off at or
	// above max (grow light on low lux, humidifier on dry soil).
	ActivateWhenLow Orientation = iota

	// ActivateWhenHigh turns the device on at or above max and off at or
	// below min (fan on high temperature).
	ActivateWhenHigh
)

// Rule binds one device to one sensor and one threshold band.
type Rule struct {
	Device      telemetry.DeviceKey
	Sensor      telemetry.SensorKey
	Threshold   string
	Orientation Orientation
}

// DefaultRules is the device's fixed actuator wiring.
func DefaultRules() []Rule {
	return []Rule{
		{Device: telemetry.DeviceLight, Sensor: telemetry.SensorLux, Threshold: "lux", Orientation: ActivateWhenLow},
		{Device: telemetry.DeviceHumidifier, Sensor: telemetry.SensorSoil, Threshold: "soil", Orientation: ActivateWhenLow},
		{Device: telemetry.DeviceFan, Sensor: telemetry.SensorTemp, Threshold: "temp", Orientation: ActivateWhenHigh},
	}
}

// Engine evaluates the rules on every admitted sample and emits commands
// through the broker link. It owns the process-wide actuator mirror; the
// hub reports manual commands into it and telemetry echoes reconcile it.
type Engine struct {
	rules        []Rule
	settings     *settings.Manager
	link         broker.Publisher
	commandTopic string
	log          *zap.Logger

	// OnCommand, when set, is called after each automation-issued
	// command. Used for status counters.
	OnCommand func(device telemetry.DeviceKey, on bool)

	mu    sync.Mutex
	state map[telemetry.DeviceKey]State
}

// New creates an Engine publishing commands to the given topic.
func New(rules []Rule, mgr *settings.Manager, link broker.Publisher, commandTopic string, log *zap.Logger) *Engine {
	return &Engine{
		rules:        rules,
		settings:     mgr,
		link:         link,
		commandTopic: commandTopic,
		log:          log,
		state:        make(map[telemetry.DeviceKey]State),
	}
}

// Observe processes one admitted sample: actuator echoes reconcile the
// mirror first, then every rule whose automation flag is enabled is
// evaluated against the sample. Devices with the flag off are never
// evaluated, so a manual state set while automation is disabled is never
// overridden here.
func (e *Engine) Observe(sample telemetry.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range e.rules {
		if on, ok := sample.Echo(rule.Device); ok {
			e.state[rule.Device] = stateOf(on)
		}
	}

	snap := e.settings.Get()
	for _, rule := range e.rules {
		if !snap.Automations[string(rule.Device)] {
			continue
		}
		value, ok := sample.Value(rule.Sensor)
		if !ok {
			continue
		}
		band, ok := snap.Thresholds[rule.Threshold]
		if !ok {
			continue
		}

		desired, decided := decide(rule.Orientation, value, band)
		if !decided || e.state[rule.Device] == stateOf(desired) {
			continue
		}
		e.emit(rule.Device, desired, value)
	}
}

// decide returns the desired state for one reading, or decided=false
// inside the dead band.
func decide(o Orientation, value float64, band settings.Threshold) (desired, decided bool) {
	switch o {
	case ActivateWhenLow:
		if value <= band.Min {
			return true, true
		}
		if value >= band.Max {
			return false, true
		}
	case ActivateWhenHigh:
		if value >= band.Max {
			return true, true
		}
		if value <= band.Min {
			return false, true
		}
	}
	return false, false
}

// emit publishes one command and optimistically updates the mirror. On a
// failed publish the mirror is left untouched so the next admitted sample
// can decide again.
func (e *Engine) emit(device telemetry.DeviceKey, on bool, value float64) {
	token := telemetry.Command(device, on)
	if err := e.link.Publish(e.commandTopic, []byte(token)); err != nil {
		e.log.Warn("automation command not sent",
			zap.String("device", string(device)),
			zap.String("cmd", token),
			zap.Error(err))
		return
	}
	e.state[device] = stateOf(on)
	e.log.Info("automation command sent",
		zap.String("device", string(device)),
		zap.String("cmd", token),
		zap.Float64("value", value))
	if e.OnCommand != nil {
		e.OnCommand(device, on)
	}
}

// NoteManual records a manually commanded state so the next evaluation
// starts from it, the same optimistic update a device echo would make.
func (e *Engine) NoteManual(device telemetry.DeviceKey, on bool) {
	e.mu.Lock()
	e.state[device] = stateOf(on)
	e.mu.Unlock()
}

// ActuatorState returns the mirrored state for one device.
func (e *Engine) ActuatorState(device telemetry.DeviceKey) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state[device]
}
