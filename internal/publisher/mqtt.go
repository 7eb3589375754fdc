package publisher

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// BrokerConfig describes the MQTT connection.
type BrokerConfig struct {
	URL      string
	ClientID string
	Username string
	Password string
	// WillTopic, if set, receives a retained "offline" when the connection
	// drops without a clean disconnect.
	WillTopic string
}

// MQTTBroker publishes through a paho client.
type MQTTBroker struct {
	client mqtt.Client
}

// Connect dials the broker and waits for the session to be established.
func Connect(cfg BrokerConfig) (*MQTTBroker, error) {
	if cfg.URL == "" {
		return nil, errors.New("mqtt broker url is required")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, payloadOffline, 1, true)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URL, token.Error())
	}
	return &MQTTBroker{client: client}, nil
}

func (b *MQTTBroker) Publish(topic string, payload []byte, retained bool) error {
	if token := b.client.Publish(topic, 1, retained, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects, giving in-flight messages up to 250ms.
func (b *MQTTBroker) Close() {
	b.client.Disconnect(250)
}
