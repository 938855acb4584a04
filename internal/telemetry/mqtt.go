package telemetry

import (
	"RLoader/internal/model"
	"RLoader/internal/util"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// publishClient is the part of mqtt.Client the publisher uses.
type publishClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes status events to <prefix>/<vehicle id>/status at QoS 0.
type MQTTPublisher struct {
	client publishClient
	topic  string
	log    *logrus.Entry
}

// Topic returns the status topic for a vehicle.
func Topic(prefix, vehicleID string) string {
	return fmt.Sprintf("%s/%s/status", prefix, vehicleID)
}

// DialMQTT connects to the configured broker. Reconnects are automatic.
func DialMQTT(cfg model.TelemetryConfig, vehicleID string, timeout time.Duration) (*MQTTPublisher, error) {
	log := util.For("MQTT")
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClient)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infof("MQTT publisher connected to %s", cfg.MQTTBroker)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		log.Warnf("MQTT broker %s not reachable yet. Retrying in background.", cfg.MQTTBroker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", cfg.MQTTBroker, err)
	}
	return newMQTTPublisher(client, Topic(cfg.TopicPrefix, vehicleID)), nil
}

func newMQTTPublisher(client publishClient, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, log: util.For("MQTT")}
}

// Report publishes ev without waiting for delivery.
func (p *MQTTPublisher) Report(ev model.StatusEvent) {
	if !p.client.IsConnected() {
		p.log.Debugf("Not connected. Dropping %s event.", ev.Kind)
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("Encode status: %v", err)
		return
	}
	token := p.client.Publish(p.topic, 0, false, b)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			p.log.Warnf("Publish %s: %v", p.topic, token.Error())
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if c, ok := p.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
}
