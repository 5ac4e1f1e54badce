package broker

// PublishedMessage records one Publish call on a FakeLink.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// FakeLink is a Link for tests. It records publishes and lets the test
// control connectivity.
type FakeLink struct {
	// Up controls Connected and whether Publish succeeds.
	Up bool

	// PublishError, if set, will be returned by Publish even when Up.
	PublishError error

	// Published contains every successful Publish call.
	Published []PublishedMessage

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLink creates a connected FakeLink.
func NewFakeLink() *FakeLink {
	return &FakeLink{Up: true}
}

// Publish records the message, or fails with ErrLinkDown when Up is false.
func (f *FakeLink) Publish(topic string, payload []byte) error {
	if !f.Up {
		return ErrLinkDown
	}
	if f.PublishError != nil {
		return f.PublishError
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	f.Published = append(f.Published, PublishedMessage{Topic: topic, Payload: copied})
	return nil
}

// Connected reports the Up flag.
func (f *FakeLink) Connected() bool {
	return f.Up
}

// Close marks the link as closed.
func (f *FakeLink) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded publishes.
func (f *FakeLink) Reset() {
	f.Published = nil
	f.PublishError = nil
	f.Closed = false
}
