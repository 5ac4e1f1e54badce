// Package hub manages the live websocket client connections: it fans
// admitted telemetry out to every client, pushes broker connectivity
// transitions, and gates inbound actuator commands behind authentication.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/auth"
	"github.com/sweeney/plant-bridge/internal/automation"
	"github.com/sweeney/plant-bridge/internal/broker"
	"github.com/sweeney/plant-bridge/internal/settings"
	"github.com/sweeney/plant-bridge/internal/status"
	"github.com/sweeney/plant-bridge/internal/telemetry"
)

// Envelope is the wire frame for every websocket message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-visible event names, matching the front end's vocabulary.
const (
	EventTelemetry   = "telemetry"
	EventMQTTStatus  = "mqtt_status"
	EventAuth        = "auth"
	EventAuthSuccess = "auth_success"
	EventAuthError   = "auth_error"
	EventCommand     = "cmd"
	EventCommandAck  = "cmd_ack"
)

// StatusData is the payload of a mqtt_status event.
type StatusData struct {
	Connected bool `json:"connected"`
}

// AuthSuccessData is the payload of an auth_success event.
type AuthSuccessData struct {
	Username string `json:"username"`
}

// AuthErrorData is the payload of an auth_error event.
type AuthErrorData struct {
	Message string `json:"message"`
}

// CommandAck is the payload of a cmd_ack event. Status is "sent" or
// "error"; a command is never silently dropped, so the client can always
// tell "rejected" from "no response yet".
type CommandAck struct {
	Cmd     string `json:"cmd"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	ackSent  = "sent"
	ackError = "error"
)

// Config wires a Hub to its collaborators.
type Config struct {
	Link         broker.Link
	CommandTopic string
	Gate         auth.Validator
	Settings     *settings.Manager
	Engine       *automation.Engine
	Tracker      *status.Tracker
}

// Hub owns the connection set. Each connection is registered on upgrade
// and destroyed together with its session on disconnect.
type Hub struct {
	link         broker.Link
	commandTopic string
	gate         auth.Validator
	settings     *settings.Manager
	engine       *automation.Engine
	tracker      *status.Tracker
	log          *zap.Logger
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	brokerUp bool
}

// New creates a Hub.
func New(cfg Config, log *zap.Logger) *Hub {
	commandTopic := cfg.CommandTopic
	if commandTopic == "" {
		commandTopic = broker.DefaultCommandTopic
	}
	return &Hub{
		link:         cfg.Link,
		commandTopic: commandTopic,
		gate:         cfg.Gate,
		settings:     cfg.Settings,
		engine:       cfg.Engine,
		tracker:      cfg.Tracker,
		log:          log,
		conns:        make(map[*Conn]struct{}),
	}
}

// HandleWS upgrades an HTTP request and runs the connection until it
// closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := h.Attach(ws)
	h.readLoop(c)
}

// Attach registers a connection and pushes the current broker status so a
// late-joining client renders correct state immediately. HandleWS calls it
// with the upgraded socket; tests attach fakes directly.
func (h *Hub) Attach(w Wire) *Conn {
	c := &Conn{hub: h, w: w}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	up := h.brokerUp
	h.mu.Unlock()

	if h.tracker != nil {
		h.tracker.SetClients(n)
	}
	if err := c.send(EventMQTTStatus, StatusData{Connected: up}); err != nil {
		h.log.Debug("initial status push failed", zap.Error(err))
	}
	h.log.Info("client connected", zap.Int("clients", n))
	return c
}

func (h *Hub) detach(c *Conn) {
	h.mu.Lock()
	_, present := h.conns[c]
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()

	if !present {
		return
	}
	c.w.Close()
	if h.tracker != nil {
		h.tracker.SetClients(n)
	}
	h.log.Info("client disconnected", zap.Int("clients", n))
}

func (h *Hub) snapshot() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast delivers an admitted sample to every live connection,
// authenticated or not. Connections whose write fails are detached.
func (h *Hub) Broadcast(sample telemetry.Sample) {
	for _, c := range h.snapshot() {
		if err := c.send(EventTelemetry, sample); err != nil {
			h.detach(c)
		}
	}
}

// SetBrokerStatus records a broker connectivity transition and pushes it
// to every connection.
func (h *Hub) SetBrokerStatus(connected bool) {
	h.mu.Lock()
	h.brokerUp = connected
	h.mu.Unlock()

	if h.tracker != nil {
		h.tracker.SetBrokerConnected(connected)
	}
	for _, c := range h.snapshot() {
		if err := c.send(EventMQTTStatus, StatusData{Connected: connected}); err != nil {
			h.detach(c)
		}
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close detaches every connection.
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		h.detach(c)
	}
}
