package notifier

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 30 * time.Second
	disconnectQuiesce = 250 // ms
)

// MQTT publishes alert bodies to a per-destination topic. QoS 1: the channel
// contract is fire-and-forget with no delivery confirmation beyond the ack.
type MQTT struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTT connects to the broker and returns a ready publisher.
func NewMQTT(brokerURL, clientID, topicPrefix string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}
	return &MQTT{client: client, topicPrefix: strings.TrimSuffix(topicPrefix, "/")}, nil
}

// Send publishes the body to <prefix>/<destination> and waits for the ack.
func (m *MQTT) Send(destination, body string) error {
	topic := m.topicPrefix + "/" + sanitizeTopic(destination)
	token := m.client.Publish(topic, 1, false, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, letting in-flight work drain briefly.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(disconnectQuiesce)
	}
}

// sanitizeTopic strips characters with MQTT topic semantics from an address.
func sanitizeTopic(dest string) string {
	r := strings.NewReplacer("/", "_", "+", "", "#", "", " ", "")
	return r.Replace(dest)
}
