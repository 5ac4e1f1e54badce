package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/auth"
	"github.com/sweeney/plant-bridge/internal/broker"
	"github.com/sweeney/plant-bridge/internal/telemetry"
)

const validateTimeout = 10 * time.Second

// Wire is the websocket surface the hub needs. *websocket.Conn satisfies
// it; tests use a fake.
type Wire interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Conn is one client connection. It starts unauthenticated; a successful
// auth event binds an Identity for the life of the connection; there is
// no way back to unauthenticated short of reconnecting.
type Conn struct {
	hub *Hub
	w   Wire

	writeMu sync.Mutex

	mu       sync.Mutex
	identity *auth.Identity
}

// Authenticated reports whether the connection holds a session.
func (c *Conn) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity != nil
}

// Identity returns the bound identity, or nil.
func (c *Conn) Identity() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Conn) bind(id auth.Identity) {
	c.mu.Lock()
	c.identity = &id
	c.mu.Unlock()
}

// send marshals data and writes one envelope. Writes are serialized per
// connection so broadcasts and acks never interleave on the wire.
func (c *Conn) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.w.WriteJSON(Envelope{Event: event, Data: raw})
}

// readLoop runs until the connection closes, dispatching each inbound
// envelope. The connection is detached on exit.
func (h *Hub) readLoop(c *Conn) {
	defer h.detach(c)
	for {
		_, raw, err := c.w.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(c, raw)
	}
}

// dispatch handles one inbound envelope. Unknown events are logged and
// ignored.
func (h *Hub) dispatch(c *Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Debug("unreadable client message", zap.Error(err))
		return
	}
	switch env.Event {
	case EventAuth:
		h.handleAuth(c, env.Data)
	case EventCommand:
		h.handleCommand(c, env.Data)
	default:
		h.log.Debug("unknown client event", zap.String("event", env.Event))
	}
}

// handleAuth validates the presented credential and, on success, binds the
// identity for the life of the connection. The identity is cached; later
// commands do not re-validate.
func (h *Hub) handleAuth(c *Conn, data json.RawMessage) {
	var credential string
	if err := json.Unmarshal(data, &credential); err != nil {
		c.send(EventAuthError, AuthErrorData{Message: "malformed credential"})
		return
	}

	if id := c.Identity(); id != nil {
		// Already authenticated; re-sending auth is a no-op.
		c.send(EventAuthSuccess, AuthSuccessData{Username: id.Username})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()

	id, err := h.gate.Validate(ctx, credential)
	switch {
	case errors.Is(err, auth.ErrInvalidCredential):
		c.send(EventAuthError, AuthErrorData{Message: "invalid credential"})
		return
	case err != nil:
		h.log.Error("credential validation failed", zap.Error(err))
		c.send(EventAuthError, AuthErrorData{Message: "authentication unavailable"})
		return
	}

	c.bind(id)
	h.log.Info("client authenticated", zap.String("username", id.Username))
	c.send(EventAuthSuccess, AuthSuccessData{Username: id.Username})
}

// handleCommand forwards an actuator command to the broker. Every path
// answers with a cmd_ack.
func (h *Hub) handleCommand(c *Conn, data json.RawMessage) {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		c.send(EventCommandAck, CommandAck{Status: ackError, Message: "malformed command"})
		return
	}

	if !c.Authenticated() {
		c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackError, Message: "not authenticated"})
		return
	}

	device, on, err := telemetry.ParseCommand(token)
	if err != nil {
		c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackError, Message: "unknown command"})
		return
	}

	// Manual control and automation are mutually exclusive per device.
	if h.settings != nil && h.settings.AutomationEnabled(string(device)) {
		c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackError, Message: "automation enabled for this device"})
		return
	}

	err = h.link.Publish(h.commandTopic, []byte(token))
	switch {
	case errors.Is(err, broker.ErrLinkDown):
		c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackError, Message: "broker link down"})
		return
	case err != nil:
		h.log.Error("command publish failed", zap.String("cmd", token), zap.Error(err))
		c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackError, Message: "publish failed"})
		return
	}

	if h.engine != nil {
		h.engine.NoteManual(device, on)
	}
	if h.tracker != nil {
		h.tracker.ManualCommand()
	}
	h.log.Info("command forwarded", zap.String("cmd", token))
	c.send(EventCommandAck, CommandAck{Cmd: token, Status: ackSent})
}
