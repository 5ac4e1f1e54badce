package hub

import (
	"encoding/json"
	"errors"
	"io"
)

// FakeWire is a wire for tests: it records everything written and serves
// reads from a queue.
type FakeWire struct {
	// Written contains every envelope written to the client.
	Written []Envelope

	// WriteError, if set, will be returned by WriteJSON.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool

	inbound chan []byte
}

// NewFakeWire creates a FakeWire.
func NewFakeWire() *FakeWire {
	return &FakeWire{inbound: make(chan []byte, 16)}
}

// WriteJSON records the envelope.
func (f *FakeWire) WriteJSON(v any) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	env, ok := v.(Envelope)
	if !ok {
		return errors.New("fake wire: not an envelope")
	}
	f.Written = append(f.Written, env)
	return nil
}

// ReadMessage returns the next queued client message, or io.EOF once the
// queue is closed.
func (f *FakeWire) ReadMessage() (int, []byte, error) {
	raw, ok := <-f.inbound
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, raw, nil
}

// Close marks the wire closed.
func (f *FakeWire) Close() error {
	f.Closed = true
	return nil
}

// QueueEvent enqueues a client-to-server envelope for ReadMessage.
func (f *FakeWire) QueueEvent(event string, data any) {
	raw, _ := json.Marshal(data)
	msg, _ := json.Marshal(Envelope{Event: event, Data: raw})
	f.inbound <- msg
}

// EndInput closes the read queue, ending the connection's read loop.
func (f *FakeWire) EndInput() {
	close(f.inbound)
}

// Events returns the event names written, in order.
func (f *FakeWire) Events() []string {
	var names []string
	for _, env := range f.Written {
		names = append(names, env.Event)
	}
	return names
}

// LastAck decodes the most recent cmd_ack written, or nil.
func (f *FakeWire) LastAck() *CommandAck {
	for i := len(f.Written) - 1; i >= 0; i-- {
		if f.Written[i].Event == EventCommandAck {
			var ack CommandAck
			if err := json.Unmarshal(f.Written[i].Data, &ack); err != nil {
				return nil
			}
			return &ack
		}
	}
	return nil
}
