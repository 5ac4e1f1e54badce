package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Clients       int          `json:"clients"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counters      CountersJSON `json:"counters"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports broker connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of the event counters.
type CountersJSON struct {
	Admitted       int `json:"telemetry_admitted"`
	Dropped        int `json:"telemetry_dropped"`
	ManualCommands int `json:"manual_commands"`
	AutoCommands   int `json:"auto_commands"`
}

// ConfigJSON is the JSON representation of bridge config.
type ConfigJSON struct {
	Broker         string `json:"broker"`
	TelemetryTopic string `json:"telemetry_topic"`
	CommandTopic   string `json:"command_topic"`
	HTTPAddr       string `json:"http_addr"`
	ThrottleMs     int64  `json:"throttle_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Clients:       snap.Clients,
		MQTT:          MQTTStatus{Connected: snap.BrokerConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			Admitted:       snap.Counters.Admitted,
			Dropped:        snap.Counters.Dropped,
			ManualCommands: snap.Counters.ManualCommands,
			AutoCommands:   snap.Counters.AutoCommands,
		},
		Config: ConfigJSON{
			Broker:         snap.Config.Broker,
			TelemetryTopic: snap.Config.TelemetryTopic,
			CommandTopic:   snap.Config.CommandTopic,
			HTTPAddr:       snap.Config.HTTPAddr,
			ThrottleMs:     snap.Config.ThrottleMs,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event field).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a heartbeat publish.
func FormatStatusEvent(snap Snapshot, event string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
