package telemetry

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

const mqttConnectTimeout = 5 * time.Second

// MQTTSink publishes snapshots as JSON to one broker topic. Publishes are
// fire and forget: delivery is never waited on.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	logger golog.Logger
}

// NewMQTTSink connects to the broker and returns the sink. A connection
// failure is returned to the caller, who is expected to degrade to
// log-only reporting rather than fail the robot.
func NewMQTTSink(broker, topic string, logger golog.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("roamer-telemetry").
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return nil, errors.Errorf("timed out connecting to mqtt broker %q", broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, errors.Wrapf(err, "cannot connect to mqtt broker %q", broker)
	}

	return &MQTTSink{client: client, topic: topic, logger: logger}, nil
}

// Publish sends one snapshot without waiting for delivery.
func (s *MQTTSink) Publish(snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.client.Publish(s.topic, 0, false, payload)
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
