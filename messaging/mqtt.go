package messaging

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/openobs/enclosure/sensors"
)

const publishTimeout = 5 * time.Second

// MQTTConfig locates the observatory message broker.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// MQTT publishes capture notifications to the observatory broker, one topic
// per device under the configured prefix.
type MQTT struct {
	client      mqtt.Client
	topicPrefix string
	logger      golog.Logger
}

// NewMQTT connects to the broker.
func NewMQTT(cfg MQTTConfig, logger golog.Logger) (*MQTT, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "enclosure"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "enclosure"
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connecting to mqtt broker")
	}
	return &MQTT{client: client, topicPrefix: cfg.TopicPrefix, logger: logger}, nil
}

// Publish sends one notification for the reading to
// "<prefix>/<device>".
func (m *MQTT) Publish(ctx context.Context, reading *sensors.Reading) error {
	payload, err := encodeEnvelope(reading)
	if err != nil {
		return errors.Wrap(err, "encoding capture notification")
	}
	topic := m.topicPrefix + "/" + reading.Device
	token := m.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("timed out publishing to %q", topic)
	}
	return errors.Wrapf(token.Error(), "publishing to %q", topic)
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
