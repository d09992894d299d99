package main

import (
	"context"

	"github.com/callebjorkell/pixel-mesh/internal/fade"
	"github.com/callebjorkell/pixel-mesh/internal/transport"
)

type receiver interface {
	OnReceive(ctx context.Context, handle func(payload []byte)) error
	Close() error
}

type sender interface {
	fade.Sender
	Close() error
}

// openReceiver listens on the broker when one is configured, and on UDP otherwise.
func openReceiver(conf *Config) (receiver, error) {
	if conf.MQTT.Broker != "" {
		m, err := transport.ConnectMQTT(conf.MQTT.Broker, conf.MQTT.Topic, conf.MQTT.ClientID)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	u, err := transport.Listen(conf.ListenAddress, conf.Channel)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func openSender(conf *Config) (sender, error) {
	if conf.MQTT.Broker != "" {
		m, err := transport.ConnectMQTT(conf.MQTT.Broker, conf.MQTT.Topic, conf.MQTT.ClientID)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	u, err := transport.Dial(conf.PeerAddress, conf.Channel)
	if err != nil {
		return nil, err
	}
	return u, nil
}
