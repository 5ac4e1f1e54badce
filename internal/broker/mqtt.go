package broker

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/telemetry"
)

// Options configures an MQTTLink.
type Options struct {
	Broker         string
	ClientID       string
	TelemetryTopic string
	RetryInterval  time.Duration

	// OnSample receives every validated telemetry sample.
	OnSample SampleHandler

	// OnStatus receives connectivity transitions.
	OnStatus StatusHandler
}

// MQTTLink is the paho-backed broker connection. Reconnects run inside the
// paho client on a fixed retry interval; consumers only ever see the
// status transitions.
type MQTTLink struct {
	client   paho.Client
	log      *zap.Logger
	onSample SampleHandler
	onStatus StatusHandler
	topic    string
}

// NewMQTTLink creates a link and connects to the broker. The initial
// connect also retries on the fixed interval, so a broker that is down at
// startup does not fail the process.
func NewMQTTLink(opts Options, log *zap.Logger) (*MQTTLink, error) {
	l := &MQTTLink{
		log:      log,
		onSample: opts.OnSample,
		onStatus: opts.OnStatus,
		topic:    opts.TelemetryTopic,
	}
	if l.topic == "" {
		l.topic = DefaultTelemetryTopic
	}
	retry := opts.RetryInterval
	if retry <= 0 {
		retry = 5 * time.Second
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retry).
		SetMaxReconnectInterval(retry).
		SetOnConnectHandler(l.handleConnect).
		SetConnectionLostHandler(l.handleConnectionLost)

	l.client = paho.NewClient(pahoOpts)

	token := l.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// Still retrying in the background; not an error.
		log.Warn("broker not reachable yet, connecting in background", zap.String("broker", opts.Broker))
		return l, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return l, nil
}

// handleConnect runs on every (re)connect. Connectivity is reported up
// only after the telemetry subscription is re-established.
func (l *MQTTLink) handleConnect(client paho.Client) {
	token := client.Subscribe(l.topic, 0, l.handleMessage)
	if !token.WaitTimeout(10 * time.Second) {
		l.log.Error("telemetry subscribe timeout", zap.String("topic", l.topic))
		return
	}
	if err := token.Error(); err != nil {
		l.log.Error("telemetry subscribe failed", zap.String("topic", l.topic), zap.Error(err))
		return
	}
	l.log.Info("broker connected", zap.String("topic", l.topic))
	if l.onStatus != nil {
		l.onStatus(true)
	}
}

func (l *MQTTLink) handleConnectionLost(_ paho.Client, err error) {
	l.log.Warn("broker connection lost", zap.Error(err))
	if l.onStatus != nil {
		l.onStatus(false)
	}
}

func (l *MQTTLink) handleMessage(_ paho.Client, msg paho.Message) {
	l.deliver(msg.Payload())
}

// deliver validates one raw payload and forwards it. Malformed payloads
// are logged and dropped here and never reach downstream components.
func (l *MQTTLink) deliver(payload []byte) {
	sample, err := telemetry.Decode(payload)
	if err != nil {
		l.log.Warn("dropping malformed telemetry", zap.Error(err), zap.ByteString("payload", payload))
		return
	}
	if l.onSample != nil {
		l.onSample(sample)
	}
}

// Publish sends a payload at QoS 0. Fails fast with ErrLinkDown when the
// connection is not open.
func (l *MQTTLink) Publish(topic string, payload []byte) error {
	if !l.client.IsConnectionOpen() {
		return ErrLinkDown
	}
	token := l.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Connected reports current broker connectivity.
func (l *MQTTLink) Connected() bool {
	return l.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (l *MQTTLink) Close() error {
	l.client.Disconnect(1000) // 1 second timeout
	return nil
}
