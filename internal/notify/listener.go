package notify

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	subscribeQoS   = 1
	disconnectWait = 250 // ms
)

// Handler receives every valid notification.
type Handler func(Local)

// Topic is the MQTT topic a mosque's notifications are published on.
func Topic(mosqueID string) string {
	return fmt.Sprintf("mosques/%s/notifications", mosqueID)
}

// Listener subscribes to a mosque's notification topic.
type Listener struct {
	client  mqtt.Client
	topic   string
	handler Handler
}

// NewListener prepares a listener for broker (e.g. "tcp://localhost:1883").
func NewListener(broker, clientID, mosqueID string, handler Handler) *Listener {
	l := &Listener{
		topic:   Topic(mosqueID),
		handler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(c mqtt.Client) {
		log.Info().Str("broker", broker).Msg("connected to MQTT broker")
		// Subscriptions are lost on reconnect with a clean session.
		if token := c.Subscribe(l.topic, subscribeQoS, l.onMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", l.topic).Msg("subscribe failed")
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	l.client = mqtt.NewClient(opts)
	return l
}

// Run connects and delivers notifications until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Debug().Str("topic", l.topic).Msg("listening for notifications")

	<-ctx.Done()

	l.client.Unsubscribe(l.topic).Wait()
	l.client.Disconnect(disconnectWait)
	return nil
}

func (l *Listener) onMessage(_ mqtt.Client, msg mqtt.Message) {
	l.deliver(msg.Topic(), msg.Payload())
}

func (l *Listener) deliver(topic string, payload []byte) {
	p, err := ParseJSON(payload)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("dropping notification")
		return
	}
	l.handler(Render(p))
}
