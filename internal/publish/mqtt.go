package publish

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dshills/tickterm/internal/logging"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	// Broker is a URL such as tcp://localhost:1883.
	Broker string
	// Topic is the prefix; events go to <Topic>/<event type>.
	Topic    string
	ClientID string
	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration
	// PublishTimeout bounds the wait for each publish acknowledgement.
	PublishTimeout time.Duration
}

// mqttClient is the subset of mqtt.Client the sink uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes events as JSON messages.
type MQTTSink struct {
	mu     sync.Mutex
	client mqttClient
	opts   MQTTOptions
	logger *logging.Logger
	closed bool
}

// message is the JSON body of each published event.
type message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// NewMQTTSink connects to the broker and returns a sink.
func NewMQTTSink(opts MQTTOptions, logger *logging.Logger) (*MQTTSink, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	logger = logging.OrNop(logger).WithComponent("mqtt")

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetKeepAlive(60 * time.Second)
	co.SetPingTimeout(10 * time.Second)
	co.SetConnectTimeout(opts.ConnectTimeout)
	co.SetAutoReconnect(true)
	co.SetMaxReconnectInterval(time.Minute)
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("connection lost: %v", err)
	})

	client := mqtt.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connecting to %s: timed out after %v", opts.Broker, opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Broker, err)
	}
	logger.Info("connected to %s", opts.Broker)

	return newMQTTSink(client, opts, logger), nil
}

func newMQTTSink(client mqttClient, opts MQTTOptions, logger *logging.Logger) *MQTTSink {
	return &MQTTSink{client: client, opts: opts, logger: logging.OrNop(logger)}
}

// Topic returns the topic an event type is published to.
func (s *MQTTSink) Topic(eventType string) string {
	return s.opts.Topic + "/" + eventType
}

// Publish implements Publisher. Failures are logged, not returned.
func (s *MQTTSink) Publish(eventType string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	payload, err := json.Marshal(message{Type: eventType, Data: data})
	if err != nil {
		s.logger.Warn("encoding %s: %v", eventType, err)
		return
	}

	token := s.client.Publish(s.Topic(eventType), 0, false, payload)
	if !token.WaitTimeout(s.opts.PublishTimeout) {
		s.logger.Warn("publishing %s: timed out", eventType)
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Warn("publishing %s: %v", eventType, err)
	}
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPublisherClosed
	}
	s.closed = true
	s.client.Disconnect(250)
	return nil
}
