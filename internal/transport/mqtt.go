package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	// TopicPrefix is prepended to the channel number to form the default topic.
	TopicPrefix = "pixel-mesh/channel"

	brokerTimeout = 5 * time.Second
)

// MQTT carries frames through a broker topic. QoS 0 keeps the fire-and-forget semantics of the
// radio link.
type MQTT struct {
	client mqtt.Client
	topic  string

	closeOnce sync.Once
}

// Topic returns the default topic for a channel.
func Topic(channel int) (string, error) {
	if _, err := Port(channel); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d", TopicPrefix, channel), nil
}

// ConnectMQTT connects to a broker (for example tcp://localhost:1883) and uses topic for both
// sending and receiving.
func ConnectMQTT(broker, topic, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.Infof("Connected to MQTT broker %v as %v", broker, clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Warn("MQTT connection lost, reconnecting: ", err)
	}

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect()); err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}
	return newMQTT(client, topic), nil
}

func newMQTT(client mqtt.Client, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// Send publishes one frame to the topic. Nothing is retried.
func (m *MQTT) Send(payload []byte) error {
	if len(payload) > MaxFrame {
		return &Error{Op: "send", Err: fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))}
	}
	if err := wait(m.client.Publish(m.topic, 0, false, payload)); err != nil {
		return &Error{Op: "send", Err: err}
	}
	return nil
}

// OnReceive subscribes to the topic and calls handle for every frame, until the context is
// cancelled or the transport is closed.
func (m *MQTT) OnReceive(ctx context.Context, handle func(payload []byte)) error {
	token := m.client.Subscribe(m.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		if len(payload) > MaxFrame {
			log.Warnf("Ignoring oversized frame of %d bytes on %v", len(payload), msg.Topic())
			return
		}
		log.Debugf("Received %d bytes on %v", len(payload), msg.Topic())

		frame := make([]byte, len(payload))
		copy(frame, payload)
		handle(frame)
	})
	if err := wait(token); err != nil {
		return &Error{Op: "subscribe", Err: err}
	}
	log.Infof("Listening for pixels on topic %v", m.topic)

	go func() {
		<-ctx.Done()
		m.Close()
	}()
	return nil
}

func (m *MQTT) Close() error {
	m.closeOnce.Do(func() {
		m.client.Disconnect(250)
	})
	return nil
}

func wait(t mqtt.Token) error {
	if !t.WaitTimeout(brokerTimeout) {
		return ErrTimeout
	}
	return t.Error()
}
